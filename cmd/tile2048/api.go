package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/platform/httpapi"
	"github.com/vovakirdan/tile2048/internal/reward"
	"github.com/vovakirdan/tile2048/internal/session"
)

var flagHTTPAddr string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP/WebSocket game API",
	Long: `Serve remote games over HTTP. Each POST /api/game/start opens a
session with its own board; moves, restarts and the end of a game go through
the session id. Live updates stream on /api/game/ws/:id.

Finished games land in the same database as terminal games. Games played by
a wallet address with a score above reward.min_score produce a reward claim.

Routes:
  POST /api/game/start              {mode, address?, signature?, timestamp?, seed?}
  POST /api/game/move               {session_id, direction}
  GET  /api/game/state/:id
  POST /api/game/restart            {session_id}
  POST /api/game/end                {session_id}
  GET  /api/game/ws/:id
  GET  /api/game/leaderboard        ?mode=&limit=
  GET  /api/user/:address/profile
  GET  /api/user/:address/history   ?limit=&offset=
  GET  /healthz, /metrics

Examples:
  tile2048 api
  tile2048 api --http :9090 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP listen address (default from config)")
}

func runAPI(cmd *cobra.Command, _ []string) error {
	addr := appConfig.Server.HTTPAddr
	if cmd.Flags().Changed("http") {
		addr = flagHTTPAddr
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	rewards := reward.NopFactory()
	if appConfig.Reward.Enabled {
		rewards = reward.LedgerFactory(store, logger.WithPrefix("reward"))
	}

	sessCfg := session.DefaultConfig()
	sessCfg.IdleTimeout = appConfig.Server.SessionIdleTimeout
	sessCfg.RewardMinScore = appConfig.Reward.MinScore

	manager := session.NewManager(sessCfg,
		session.WithLogger(logger.WithPrefix("session")),
		session.WithResultSaver(store),
		session.WithRewards(rewards),
	)
	manager.Start()
	// Stop abandons open games, so it runs before the store closes.
	defer manager.Stop()

	server := httpapi.New(httpapi.Config{
		Addr:             addr,
		RequireSignature: appConfig.Server.RequireSignature,
		SignatureWindow:  appConfig.Server.SignatureWindow,
	}, manager, store, logger.WithPrefix("http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
