package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/storage"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

var (
	flagScoresLimit int
	flagScoresLocal bool
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [mode]",
	Short: "Show the leaderboard",
	Long: `Display the best finished games of a mode, or of every mode when no
mode is given. Games from the terminal, SSH and the API share one board.

Examples:
  tile2048 scores
  tile2048 scores classic
  tile2048 scores endless --limit 25
  tile2048 scores --local
  tile2048 scores classic --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of entries per mode")
	scoresCmd.Flags().BoolVar(&flagScoresLocal, "local", false, "Show the quick local score list instead of the leaderboard")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete the local score list of the selected modes")
}

func runScores(cmd *cobra.Command, args []string) error {
	modes := t2048.Modes()
	if len(args) == 1 {
		mode, err := t2048.ParseMode(args[0])
		if err != nil {
			return fmt.Errorf("%w (run 'tile2048 list' to see available modes)", err)
		}
		modes = []t2048.Mode{mode}
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("cannot open scores database: %w", err)
	}
	defer store.Close()

	if flagScoresClear {
		for _, mode := range modes {
			if err := store.ClearScores(mode.GameID()); err != nil {
				return err
			}
			fmt.Printf("Cleared local scores for %s.\n", mode.Title())
		}
		return nil
	}

	for i, mode := range modes {
		if i > 0 {
			fmt.Println()
		}
		if flagScoresLocal {
			err = printLocalScores(store, mode)
		} else {
			err = printLeaderboard(cmd.Context(), store, mode)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// printLocalScores lists the scores table, which also holds games that
// ended before any move was made.
func printLocalScores(store *storage.Store, mode t2048.Mode) error {
	scores, err := store.TopScores(mode.GameID(), flagScoresLimit)
	if err != nil {
		return fmt.Errorf("cannot retrieve scores: %w", err)
	}

	fmt.Printf("Local Scores - %s\n", mode.Title())
	fmt.Println()
	if len(scores) == 0 {
		fmt.Println("No scores yet.")
		return nil
	}
	for i, s := range scores {
		fmt.Printf("  %2d. %8d  %s\n", i+1, s.Score, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func printLeaderboard(ctx context.Context, store *storage.Store, mode t2048.Mode) error {
	entries, err := store.Leaderboard(ctx, mode.GameID(), flagScoresLimit)
	if err != nil {
		return fmt.Errorf("cannot retrieve scores: %w", err)
	}

	fmt.Printf("High Scores - %s\n", mode.Title())
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("No games recorded yet.")
		fmt.Printf("Play 'tile2048 play %s' to set the first high score!\n", mode)
		return nil
	}

	fmt.Printf("  %-4s  %-8s  %-6s  %-6s  %-13s  %s\n", "Rank", "Score", "Tile", "Moves", "Player", "Date")
	fmt.Printf("  %-4s  %-8s  %-6s  %-6s  %-13s  %s\n", "----", "-----", "----", "-----", "------", "----")
	for _, e := range entries {
		player := wallet.Short(e.Account)
		if player == "" {
			player = "local"
		}
		fmt.Printf("  %-4d  %-8d  %-6d  %-6d  %-13s  %s\n",
			e.Rank, e.Score, e.MaxTile, e.Moves, player, e.EndedAt.Local().Format("2006-01-02 15:04"))
	}

	if stats, err := store.GetGameStats(mode.GameID()); err == nil && stats.GamesCount > 0 {
		fmt.Println()
		fmt.Printf("Best: %d  Games: %d  Average: %.0f\n", stats.HighScore, stats.GamesCount, stats.AvgScore)
	}
	return nil
}
