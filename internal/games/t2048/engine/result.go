package engine

import (
	"fmt"
	"time"
)

// Result is the final record of a finished game.
type Result struct {
	Score   int       `json:"score"`
	MaxTile int       `json:"max_tile"`
	Moves   int       `json:"moves"`
	Status  Status    `json:"status"`
	EndedAt time.Time `json:"ended_at"`
}

// EndedUnix returns the end timestamp in unix seconds.
func (r Result) EndedUnix() int64 {
	return r.EndedAt.Unix()
}

// Result returns the final record once the game is won or lost.
func (e *Engine) Result() (Result, bool) {
	if !e.status.Terminal() {
		return Result{}, false
	}
	return Result{
		Score:   e.score,
		MaxTile: e.board.MaxTile(),
		Moves:   e.moves,
		Status:  e.status,
		EndedAt: e.endedAt,
	}, true
}

// Replay rebuilds a game from a seed and the applied move history. Every
// direction must still change the board when replayed.
func Replay(rules Rules, seed int64, dirs []Direction) (*Engine, error) {
	e, err := New(rules, WithSeed(seed))
	if err != nil {
		return nil, err
	}
	for i, d := range dirs {
		res, err := e.ApplyMove(d)
		if err != nil {
			return nil, fmt.Errorf("engine: replay move %d: %w", i, err)
		}
		if res.Outcome != MoveApplied {
			return nil, fmt.Errorf("engine: replay move %d (%s): %s", i, d, res.Outcome)
		}
	}
	return e, nil
}
