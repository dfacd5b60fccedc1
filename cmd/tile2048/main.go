// tile2048 plays 2048 in the terminal, over SSH, or through an HTTP API.
//
// Usage:
//
//	tile2048 list              - List available modes
//	tile2048 play [mode]       - Play a mode, or pick one from the menu
//	tile2048 scores [mode]     - Show the leaderboard
//	tile2048 serve             - Start the SSH server for remote play
//	tile2048 api               - Start the HTTP/WebSocket game API
//	tile2048 claims            - List pending reward claims
//
// Global flags:
//
//	--fps <rate>          - Set tick rate (default: 60)
//	--seed <value>        - Set RNG seed for reproducible gameplay
//	--db <path>           - Override the database path
//	--config <path>       - Use a specific tile2048.yaml
//	--difficulty <name>   - easy, normal or hard
//	--log-level <level>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tile2048/internal/config"
	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string

	// Set by setup before any command runs.
	appConfig config.Config
	logger    *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tile2048",
	Short: "tile2048 - the sliding tile game for terminals and the web",
	Long: `tile2048 is the 2048 puzzle: slide the board, merge equal tiles,
reach the target tile before the board locks up.

Available commands:
  list     - Show all modes
  play     - Play a mode directly, or pick one from the menu
  scores   - View the leaderboard
  serve    - Start SSH server for remote play
  api      - Start the HTTP/WebSocket game API
  claims   - List and settle reward claims

Examples:
  tile2048 play
  tile2048 play classic --seed 42
  tile2048 scores endless
  tile2048 serve --ssh :2222
  tile2048 api --http :8080`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a custom tile2048.yaml")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(claimsCmd)
}

// setup loads .env and the config file, applies flag overrides and
// configures the game rules and the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDifficulty != "" {
		preset, err := config.ParseDifficulty(flagDifficulty)
		if err != nil {
			return &config.Error{Field: "--difficulty", Err: err}
		}
		cfg.Difficulty = preset
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.Path = flagDBPath
	}
	if flagFPS <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", flagFPS)
	}

	if err := t2048.Configure(cfg.EffectiveRules()); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tile2048",
		Level:           level,
	})
	log.SetDefault(logger)

	appConfig = cfg
	return nil
}

// openStore opens the configured database.
func openStore() (*storage.Store, error) {
	return storage.Open(appConfig.Storage.Path)
}

// runtimeConfig sizes the game to the current terminal.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	cfg.TickRate = flagFPS
	cfg.Seed = flagSeed
	return cfg
}
