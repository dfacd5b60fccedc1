// Package httpapi exposes game sessions over HTTP and WebSocket.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tile2048/internal/session"
	"github.com/vovakirdan/tile2048/internal/storage"
)

// Records answers leaderboard and account queries.
type Records interface {
	Leaderboard(ctx context.Context, gameID string, limit int) ([]storage.LeaderboardEntry, error)
	AccountHistory(ctx context.Context, account string, limit, offset int) ([]storage.GameResult, int, error)
	AccountProfile(ctx context.Context, account string) (storage.Profile, error)
}

// Config holds the server settings.
type Config struct {
	Addr             string
	RequireSignature bool          // game start must be signed by the address
	SignatureWindow  time.Duration // accepted timestamp drift
}

// Server is the HTTP front end.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	srv      *http.Server
	sessions *session.Manager
	records  Records
	metrics  *Metrics
	logger   *log.Logger
	now      func() time.Time
	upgrader websocket.Upgrader
}

// New builds the router. records may be nil, which disables the
// leaderboard and account routes.
func New(cfg Config, sessions *session.Manager, records Records, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		records:  records,
		metrics:  NewMetrics(sessions.Count),
		logger:   logger,
		now:      time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors())
	engine.Use(accessLog(logger, s.metrics))
	s.routes(engine)
	s.engine = engine

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Count()})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	game := r.Group("/api/game")
	game.POST("/start", s.handleStart)
	game.POST("/move", s.handleMove)
	game.GET("/state/:id", s.handleState)
	game.POST("/restart", s.handleRestart)
	game.POST("/end", s.handleEnd)
	game.GET("/ws/:id", s.handleWS)

	if s.records != nil {
		game.GET("/leaderboard", s.handleLeaderboard)

		user := r.Group("/api/user/:address")
		user.GET("/profile", s.handleProfile)
		user.GET("/history", s.handleHistory)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until the server stops. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP API listening", "addr", s.cfg.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
