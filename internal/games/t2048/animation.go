package t2048

import "github.com/vovakirdan/tile2048/internal/games/t2048/engine"

const (
	slideTicks = 8 // ~133ms at 60 ticks/s
	popTicks   = 6 // ~100ms at 60 ticks/s
)

type animPhase int

const (
	phaseIdle animPhase = iota
	phaseSlide
	phasePop
)

// animator replays the tile movements of the last applied move. Tiles are
// tracked by engine id so merges and spawns can be drawn separately.
type animator struct {
	phase animPhase
	ticks int
	moves []engine.TileMove
	// fresh holds tiles that appear after the slide: merge results and the spawn.
	fresh map[engine.TileID]bool
	// moving holds surviving tiles drawn from moves during the slide.
	moving map[engine.TileID]bool
}

func (a *animator) start(res engine.MoveResult) {
	a.phase = phaseSlide
	a.ticks = 0
	a.moves = res.Moves
	a.fresh = make(map[engine.TileID]bool, len(res.Merges)+1)
	a.moving = make(map[engine.TileID]bool, len(res.Moves))
	for _, m := range res.Merges {
		a.fresh[m.Result.ID] = true
	}
	if res.Spawned != nil {
		a.fresh[res.Spawned.ID] = true
	}
	for _, m := range res.Moves {
		if m.MergedInto == 0 {
			a.moving[m.ID] = true
		}
	}
	if len(a.moves) == 0 {
		a.phase = phasePop
	}
}

func (a *animator) stop() {
	a.phase = phaseIdle
	a.ticks = 0
	a.moves = nil
	a.fresh = nil
	a.moving = nil
}

func (a *animator) advance() {
	if a.phase == phaseIdle {
		return
	}
	a.ticks++
	switch a.phase {
	case phaseSlide:
		if a.ticks >= slideTicks {
			a.phase = phasePop
			a.ticks = 0
		}
	case phasePop:
		if a.ticks >= popTicks {
			a.stop()
		}
	}
}

// progress is the eased completion of the current phase in [0, 1].
func (a *animator) progress() float64 {
	var d int
	switch a.phase {
	case phaseSlide:
		d = slideTicks
	case phasePop:
		d = popTicks
	default:
		return 1
	}
	return easeOutQuad(min(float64(a.ticks)/float64(d), 1))
}

// hidden reports whether the board's copy of tile id must not be drawn yet.
func (a *animator) hidden(id engine.TileID) bool {
	return a.phase == phaseSlide && (a.fresh[id] || a.moving[id])
}

// popping reports whether id is a tile that just appeared.
func (a *animator) popping(id engine.TileID) bool {
	return a.phase == phasePop && a.fresh[id]
}

func easeOutQuad(t float64) float64 {
	return t * (2 - t)
}
