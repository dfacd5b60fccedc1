package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/storage"
)

var testConfig = core.RuntimeConfig{
	ScreenW:  80,
	ScreenH:  24,
	TickRate: 60,
	Seed:     7,
}

// scriptedGame ends after a fixed number of steps.
type scriptedGame struct {
	steps   int
	endAt   int
	resets  int
	paused  bool
	endedAt time.Time
}

func (g *scriptedGame) ID() string    { return "2048_classic" }
func (g *scriptedGame) Title() string { return "Scripted" }

func (g *scriptedGame) Reset(core.RuntimeConfig) {
	g.steps = 0
	g.paused = false
	g.resets++
}

func (g *scriptedGame) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if !g.paused && g.steps < g.endAt {
		g.steps++
	}
	return core.StepResult{State: g.State()}
}

func (g *scriptedGame) Render(dst *core.Screen) {
	dst.DrawText(0, 0, "scripted")
}

func (g *scriptedGame) State() core.GameState {
	return core.GameState{
		Score:    g.steps * 4,
		HighTile: 8,
		GameOver: g.steps >= g.endAt,
		Paused:   g.paused,
	}
}

func (g *scriptedGame) Outcome() (core.Outcome, bool) {
	if g.steps < g.endAt {
		return core.Outcome{}, false
	}
	return core.Outcome{
		Score:   g.steps * 4,
		MaxTile: 8,
		Moves:   g.steps,
		Status:  "lost",
		EndedAt: g.endedAt,
	}, true
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func tick(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = send(t, m, TickMsg(time.Now()))
	return m
}

func TestModelRecordsFinishedGame(t *testing.T) {
	store := openTestStore(t)
	endedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := &scriptedGame{endAt: 3, endedAt: endedAt}

	m := NewModel(game, store, testConfig)
	m.Init()
	for range 5 {
		m = tick(t, m)
	}
	if !m.gameState.GameOver {
		t.Fatal("game should be over")
	}

	if hs, err := store.HighScore("2048_classic"); err != nil || hs != 12 {
		t.Errorf("HighScore = %d, %v; want 12", hs, err)
	}

	board, err := store.Leaderboard(context.Background(), "2048_classic", 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("leaderboard has %d rows, want 1 (saved once)", len(board))
	}
	got := board[0]
	if got.Score != 12 || got.Moves != 3 || got.Status != "lost" || got.Seed != testConfig.Seed {
		t.Errorf("result = %+v", got.GameResult)
	}
	if !got.EndedAt.Equal(endedAt) {
		t.Errorf("ended at = %v, want %v", got.EndedAt, endedAt)
	}
	if got.SessionID != m.sessionID {
		t.Errorf("session id = %q, want %q", got.SessionID, m.sessionID)
	}
}

func TestModelRestartAfterGameOver(t *testing.T) {
	game := &scriptedGame{endAt: 1}
	m := NewModel(game, nil, testConfig)
	m.Init()
	m = tick(t, m)
	if !m.gameState.GameOver {
		t.Fatal("game should be over")
	}

	m, _ = send(t, m, runeKey('r'))
	m = tick(t, m)
	if game.resets != 2 {
		t.Errorf("resets = %d, want 2", game.resets)
	}
	if m.gameState.GameOver || m.recorded {
		t.Error("restart should start a fresh, unrecorded game")
	}
	if m.config.Seed == testConfig.Seed {
		t.Error("restart should pick a new seed")
	}
}

func TestModelRestartIgnoredWhilePlaying(t *testing.T) {
	game := &scriptedGame{endAt: 10}
	m := NewModel(game, nil, testConfig)
	m.Init()

	m, _ = send(t, m, runeKey('r'))
	tick(t, m)
	if game.resets != 1 {
		t.Errorf("resets = %d, want 1", game.resets)
	}
}

func TestModelEscPausesThenReturns(t *testing.T) {
	game := &scriptedGame{endAt: 10}
	m := NewModel(game, nil, testConfig)
	m.Init()

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = tick(t, m)
	if !m.gameState.Paused || m.BackToMenu() {
		t.Fatalf("esc while playing should pause, state %+v", m.gameState)
	}

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.BackToMenu() {
		t.Error("esc while paused should return to the menu")
	}
	if cmd != nil {
		t.Error("returning to a menu should not quit the program")
	}
}

func TestStandaloneModelQuitsOnBack(t *testing.T) {
	game := &scriptedGame{endAt: 1}
	m := NewModel(game, nil, testConfig)
	m.quitOnBack = true
	m.Init()
	m = tick(t, m)

	m, cmd := send(t, m, runeKey('b'))
	if !m.IsQuitting() || cmd == nil {
		t.Error("back without a menu should quit")
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(&scriptedGame{endAt: 5}, nil, testConfig)
	m, cmd := send(t, m, runeKey('q'))
	if !m.IsQuitting() || cmd == nil {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestModelResize(t *testing.T) {
	t.Run("plain game resets", func(t *testing.T) {
		game := &scriptedGame{endAt: 10}
		m := NewModel(game, nil, testConfig)
		m.Init()
		send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
		if game.resets != 2 {
			t.Errorf("resets = %d, want 2", game.resets)
		}
	})

	t.Run("2048 keeps its board", func(t *testing.T) {
		game := t2048.New(t2048.ModeClassic)
		m := NewModel(game, nil, testConfig)
		m.Init()
		m, _ = send(t, m, runeKey('a'))
		m = tick(t, m)
		m, _ = send(t, m, runeKey('w'))
		m = tick(t, m)
		before := game.Snapshot()

		m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
		after := game.Snapshot()
		if after.Moves != before.Moves || after.Score != before.Score {
			t.Errorf("resize changed the game: %+v -> %+v", before, after)
		}
		if m.screen.Width() != 120 || m.screen.Height() != 40 {
			t.Errorf("screen = %dx%d, want 120x40", m.screen.Width(), m.screen.Height())
		}
	})
}

func TestModelViewRendersGame(t *testing.T) {
	m := NewModel(t2048.New(t2048.ModeClassic), nil, testConfig)
	m.Init()
	if m.View() == "" {
		t.Error("view should render the board")
	}
}
