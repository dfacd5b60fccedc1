package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/registry"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all modes",
	Long:  `Shows every registered mode and the campaign stages.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	games := registry.List()

	if len(games) == 0 {
		fmt.Println("No modes available.")
		return
	}

	fmt.Println("Available modes:")
	fmt.Println()

	maxIDLen := 2 // "ID" header
	for _, g := range games {
		maxIDLen = max(maxIDLen, len(g.ID))
	}

	stats := playedStats()

	fmt.Printf("  %-*s  %-16s  %-6s  %s\n", maxIDLen, "ID", "Title", "Played", "Description")
	fmt.Printf("  %-*s  %-16s  %-6s  %s\n", maxIDLen, "--", "-----", "------", "-----------")
	for _, g := range games {
		played := 0
		if st, ok := stats[g.ID]; ok {
			played = st.GamesCount
		}
		fmt.Printf("  %-*s  %-16s  %-6d  %s\n", maxIDLen, g.ID, g.Title, played, g.Description)
	}

	fmt.Println()
	fmt.Println("Campaign stages:")
	for i, st := range t2048.Stages() {
		fmt.Printf("  %d. %s\n", i+1, st.Label())
	}

	fmt.Println()
	fmt.Println("Run 'tile2048 play <mode>' to play, e.g. 'tile2048 play classic'.")
}

// playedStats returns per-mode totals, or nil when there is no database yet.
func playedStats() map[string]*storage.GameStats {
	store, err := openStore()
	if err != nil {
		logger.Debug("no score database", "error", err)
		return nil
	}
	defer store.Close()

	stats, err := store.GetAllGamesStats()
	if err != nil {
		logger.Debug("cannot read stats", "error", err)
		return nil
	}
	return stats
}
