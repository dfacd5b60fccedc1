package t2048

// GameStateType names the phase a game is in.
type GameStateType string

const (
	StatePlaying      GameStateType = "playing"
	StateStageCleared GameStateType = "stage_cleared"
	StateGameOver     GameStateType = "game_over"
	StateWin          GameStateType = "win"
	StatePaused       GameStateType = "paused"
	StatePausedSmall  GameStateType = "paused_small_window"
)

// Snapshot captures the game for determinism tests.
type Snapshot struct {
	Tick    uint64
	Mode    Mode
	Stage   int // 1-based; 0 outside the campaign
	Target  int
	Score   int
	Moves   int
	Cells   [][]int
	MaxTile int
	State   GameStateType
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	state := StatePlaying
	switch {
	case g.tooSmall:
		state = StatePausedSmall
	case g.won():
		state = StateWin
	case g.over():
		state = StateGameOver
	case g.stageCleared:
		state = StateStageCleared
	case g.paused:
		state = StatePaused
	}

	stage := 0
	if g.mode == ModeCampaign {
		stage = g.stage + 1
	}

	board := g.eng.Board()
	return Snapshot{
		Tick:    g.tick,
		Mode:    g.mode,
		Stage:   stage,
		Target:  g.target(),
		Score:   g.eng.Score(),
		Moves:   g.eng.Moves(),
		Cells:   board.Values(),
		MaxTile: board.MaxTile(),
		State:   state,
	}
}
