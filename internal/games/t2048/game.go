package t2048

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/registry"
)

// stageClearTicks is how long the stage banner stays up (2s at 60 ticks/s).
const stageClearTicks = 120

// Game wraps one engine instance as a registry.Game.
type Game struct {
	mode  Mode
	rules engine.Rules
	eng   *engine.Engine
	now   func() time.Time
	tick  uint64

	screenW int
	screenH int

	startStage   int
	stage        int
	stageCleared bool
	clearTicks   int
	campaignDone bool
	finishedAt   time.Time

	paused   bool
	tooSmall bool
	anim     animator
}

// Option tweaks a Game before its first Reset.
type Option func(*Game)

// WithStartStage starts a campaign at stage n (1-based).
func WithStartStage(n int) Option {
	return func(g *Game) {
		if n >= 1 && n <= StageCount() {
			g.startStage = n - 1
		}
	}
}

// New creates a game in the given mode.
func New(mode Mode, opts ...Option) *Game {
	g := &Game{
		mode:  mode,
		rules: RulesFor(mode),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Reset(core.DefaultConfig())
	return g
}

func init() {
	for _, m := range Modes() {
		registry.Register(m.GameID(), func() registry.Game {
			return New(m)
		})
	}
}

func (g *Game) ID() string    { return g.mode.GameID() }
func (g *Game) Title() string { return g.mode.Title() }
func (g *Game) Mode() Mode    { return g.mode }

// Description is shown by the list command.
func (g *Game) Description() string {
	switch g.mode {
	case ModeClassic:
		return "Reach the target tile on a single board"
	case ModeEndless:
		return "No target, play until the board locks up"
	default:
		return "Clear a ladder of targets on one board"
	}
}

// Reset starts a new game.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.tick = 0
	g.screenW = cfg.ScreenW
	g.screenH = cfg.ScreenH
	g.stage = g.startStage
	g.stageCleared = false
	g.clearTicks = 0
	g.campaignDone = false
	g.finishedAt = time.Time{}
	g.paused = false
	g.anim.stop()

	rules := g.rules
	if g.mode == ModeCampaign {
		if st, ok := StageAt(g.stage); ok {
			rules.Spawn4Probability = st.Spawn4
		}
	}
	eng, err := engine.New(rules, engine.WithSeed(cfg.Seed), engine.WithClock(g.now))
	if err != nil {
		// base rules pass Configure and stage rates are fixed, so this is a bug
		panic(fmt.Sprintf("t2048: %s rules: %v", g.mode.GameID(), err))
	}
	g.eng = eng

	g.checkScreenSize()
}

// Resize follows a terminal resize without restarting the game.
func (g *Game) Resize(width, height int) {
	g.screenW = width
	g.screenH = height
	g.checkScreenSize()
}

func (g *Game) checkScreenSize() {
	w, h := boardDims(g.rules.Size)
	g.tooSmall = g.screenW < w+2 || g.screenH < h+hudHeight+3
}

// Step advances the game by one tick. Every queued move is applied in order.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	g.tick++

	if g.tooSmall {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) && !g.over() {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	g.anim.advance()

	if g.stageCleared {
		g.clearTicks++
		if g.clearTicks >= stageClearTicks {
			g.advanceStage()
		}
		return core.StepResult{State: g.State()}
	}

	if g.over() {
		return core.StepResult{State: g.State()}
	}

	moved := false
	for _, a := range in.Moves() {
		if g.applyMove(directionFor(a)) {
			moved = true
		}
		if g.over() || g.stageCleared {
			break
		}
	}

	return core.StepResult{State: g.State(), Moved: moved}
}

func directionFor(a core.Action) engine.Direction {
	switch a {
	case core.ActionUp:
		return engine.DirUp
	case core.ActionDown:
		return engine.DirDown
	case core.ActionLeft:
		return engine.DirLeft
	default:
		return engine.DirRight
	}
}

// applyMove runs one engine move and reports whether the board changed.
func (g *Game) applyMove(dir engine.Direction) bool {
	res, err := g.eng.ApplyMove(dir)
	if err != nil || res.Outcome != engine.MoveApplied {
		return false
	}
	g.anim.start(res)

	if g.mode == ModeCampaign {
		if st, ok := StageAt(g.stage); ok && g.eng.Board().MaxTile() >= st.Target {
			g.stageCleared = true
			g.clearTicks = 0
		}
	}
	return true
}

func (g *Game) advanceStage() {
	g.stageCleared = false
	g.clearTicks = 0

	if g.stage >= StageCount()-1 {
		g.campaignDone = true
		g.finishedAt = g.now()
		return
	}

	g.stage++
	if st, ok := StageAt(g.stage); ok {
		if err := g.eng.SetSpawn4Probability(st.Spawn4); err != nil {
			log.Warn("cannot retune spawn rate", "stage", st.Name, "err", err)
		}
	}
}

// target is the tile value the player is currently chasing, 0 for none.
func (g *Game) target() int {
	if g.mode == ModeCampaign {
		if st, ok := StageAt(g.stage); ok {
			return st.Target
		}
		return 0
	}
	return g.eng.Rules().Target
}

func (g *Game) over() bool {
	return g.campaignDone || g.eng.Status().Terminal()
}

func (g *Game) won() bool {
	return g.campaignDone || g.eng.Status() == engine.StatusWon
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.eng.Score(),
		HighTile: g.eng.Board().MaxTile(),
		GameOver: g.over(),
		Won:      g.won(),
		Paused:   g.paused || g.tooSmall || g.stageCleared,
	}
}

// Outcome returns the final record once the game is over.
func (g *Game) Outcome() (core.Outcome, bool) {
	if g.campaignDone {
		return core.Outcome{
			Score:   g.eng.Score(),
			MaxTile: g.eng.Board().MaxTile(),
			Moves:   g.eng.Moves(),
			Status:  engine.StatusWon.String(),
			EndedAt: g.finishedAt,
		}, true
	}
	res, ok := g.eng.Result()
	if !ok {
		return core.Outcome{}, false
	}
	return core.Outcome{
		Score:   res.Score,
		MaxTile: res.MaxTile,
		Moves:   res.Moves,
		Status:  res.Status.String(),
		EndedAt: res.EndedAt,
	}, true
}

// Engine exposes the underlying engine for read access.
func (g *Game) Engine() *engine.Engine {
	return g.eng
}
