package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/platform/tui"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var flagStage int

var playCmd = &cobra.Command{
	Use:   "play [mode]",
	Short: "Play a mode, or pick one from the menu",
	Long: `Start playing. Without a mode the interactive menu is shown and you
return to it after each game.

Modes: campaign, classic, endless (registry ids 2048, 2048_classic,
2048_endless are accepted too).

Controls:
  Arrows/WASD/HJKL  - Slide
  P/Esc             - Pause
  R                 - Restart (after game over)
  B/Esc             - Back to menu (paused or game over)
  Ctrl+S            - Save a screenshot
  Q/Ctrl+C          - Quit

Difficulty options:
  easy   - Half the chance of spawning a 4
  normal - The configured chance
  hard   - Double the chance of spawning a 4

Examples:
  tile2048 play
  tile2048 play classic
  tile2048 play campaign --stage 4
  tile2048 play endless --difficulty hard --seed 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagStage, "stage", 0, "Campaign start stage (1-based)")
}

func runPlay(_ *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		logger.Warn("could not open scores database, scores will not be saved", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	cfg := runtimeConfig()

	if len(args) == 0 {
		return runMenu(store, cfg)
	}

	mode, err := t2048.ParseMode(args[0])
	if err != nil {
		return fmt.Errorf("%w (run 'tile2048 list' to see available modes)", err)
	}
	if flagStage != 0 {
		if mode != t2048.ModeCampaign {
			return fmt.Errorf("--stage only applies to the campaign")
		}
		if flagStage < 1 || flagStage > t2048.StageCount() {
			return fmt.Errorf("--stage must be between 1 and %d", t2048.StageCount())
		}
	}

	item := tui.MenuItem{GameID: mode.GameID(), Title: mode.Title(), Mode: mode, Stage: flagStage}
	game, err := item.NewGame()
	if err != nil {
		return err
	}
	return tui.Run(game, store, cfg)
}

// runMenu alternates between the menu, the scoreboard and games until the
// player quits.
func runMenu(store *storage.Store, cfg core.RuntimeConfig) error {
	for {
		result, err := tui.RunMenu(store, cfg)
		if err != nil {
			return err
		}
		cfg = result.Config

		if result.Quit {
			return nil
		}

		if result.WantsScoreboard {
			goBack, err := tui.RunScoreboard(store, cfg.ScreenW, cfg.ScreenH)
			if err != nil {
				return err
			}
			if !goBack {
				return nil
			}
			continue
		}

		game, err := result.Item.NewGame()
		if err != nil {
			logger.Error("cannot create game", "game", result.Item.GameID, "error", err)
			continue
		}

		if err := tui.Run(game, store, cfg); err != nil {
			return err
		}
		// a fixed --seed only applies to the first game
		cfg.Seed = 0
	}
}
