package engine

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"
)

// Rand is the random source the engine draws spawns from. *rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Status is the lifecycle state of a game.
type Status uint8

const (
	StatusOngoing Status = iota
	StatusWon
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "ongoing"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MoveOutcome classifies what ApplyMove did.
type MoveOutcome uint8

const (
	// MoveApplied means the board changed and a tile was spawned.
	MoveApplied MoveOutcome = iota
	// MoveUnchanged means no tile could move in that direction.
	MoveUnchanged
	// MoveNotApplicable means the game is already over.
	MoveNotApplicable
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveApplied:
		return "applied"
	case MoveUnchanged:
		return "unchanged"
	case MoveNotApplicable:
		return "not_applicable"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o MoveOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MoveResult describes a single ApplyMove call.
type MoveResult struct {
	Outcome     MoveOutcome
	Direction   Direction
	ScoreGained int
	Moves       []TileMove
	Merges      []Merge
	Spawned     *Tile
	Status      Status
}

// Changed reports whether the board was mutated.
func (r MoveResult) Changed() bool {
	return r.Outcome == MoveApplied
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source. Such a game has no seed and cannot be
// replayed.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		e.rng = r
		e.seed = 0
		e.seeded = false
	}
}

// WithSeed seeds a private math/rand source.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.reseed(seed) }
}

// WithClock replaces time.Now for end timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBoard starts the game from b instead of spawning initial tiles.
func WithBoard(b Board) Option {
	return func(e *Engine) { e.start = &b }
}

// Engine owns one game's board, score and status. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	rules  Rules
	rng    Rand
	seed   int64
	seeded bool // rng was built from seed
	dealt  bool // the first board has been dealt
	now    func() time.Time
	start  *Board

	board   Board
	score   int
	status  Status
	moves   int
	history []Direction
	endedAt time.Time
}

// New validates rules and returns an engine with the initial tiles placed.
func New(rules Rules, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		rules: rules,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.reseed(time.Now().UnixNano())
	}

	if e.start != nil {
		if e.start.size != rules.Size {
			return nil, &ConfigError{Field: "size", Reason: fmt.Sprintf("board is %dx%d", e.start.size, e.start.size)}
		}
		e.board = *e.start
		e.start = nil
		e.dealt = true
		e.EvaluateStatus()
		return e, nil
	}

	e.Reset()
	return e, nil
}

func (e *Engine) reseed(seed int64) {
	e.seed = seed
	e.seeded = true
	e.rng = rand.New(rand.NewSource(seed))
}

// Reset clears the board and score and spawns the initial tiles. A seeded
// engine draws a fresh seed from its source first, so Seed and History
// always describe the current game.
func (e *Engine) Reset() {
	if e.seeded && e.dealt {
		e.reseed(int64(e.rng.Intn(math.MaxInt32)) + 1)
	}
	e.dealt = true

	e.board = NewBoard(e.rules.Size)
	e.score = 0
	e.status = StatusOngoing
	e.moves = 0
	e.history = e.history[:0]
	e.endedAt = time.Time{}
	for range e.rules.InitialTiles {
		if _, err := e.SpawnTile(); err != nil {
			break
		}
	}
}

// ApplyMove slides the board toward dir. A changed board gets one spawned
// tile and a status re-evaluation. Moves on a finished game are no-ops.
func (e *Engine) ApplyMove(dir Direction) (MoveResult, error) {
	res := MoveResult{Outcome: MoveNotApplicable, Direction: dir, Status: e.status}
	if !dir.Valid() {
		return res, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(dir))
	}
	if e.status.Terminal() {
		return res, nil
	}

	s := SlideBoard(e.board, dir)
	if !s.Changed {
		res.Outcome = MoveUnchanged
		return res, nil
	}

	e.board = s.Board
	e.score += s.ScoreGained
	e.moves++
	e.history = append(e.history, dir)

	res.Outcome = MoveApplied
	res.ScoreGained = s.ScoreGained
	res.Moves = s.Moves
	res.Merges = s.Merges

	// A changed board always has room: something moved or merged.
	if e.board.EmptyCount() > 0 {
		t, err := e.SpawnTile()
		if err != nil {
			return res, fmt.Errorf("engine: spawn after %s: %w", dir, err)
		}
		res.Spawned = &t
	}

	res.Status = e.EvaluateStatus()
	return res, nil
}

// SpawnTile places a 2 (or a 4 with Spawn4Probability) on a uniformly chosen
// empty cell.
func (e *Engine) SpawnTile() (Tile, error) {
	empty := e.board.EmptyCells()
	if len(empty) == 0 {
		return Tile{}, ErrBoardFull
	}
	pos := empty[e.rng.Intn(len(empty))]
	board, t := e.board.place(pos, e.rollValue())
	e.board = board
	return t, nil
}

func (e *Engine) rollValue() int {
	if e.rng.Float64() < e.rules.Spawn4Probability {
		return 4
	}
	return 2
}

// EvaluateStatus checks for a win or a loss. Won takes priority; once the
// game is over the status never changes until Reset.
func (e *Engine) EvaluateStatus() Status {
	if e.status.Terminal() {
		return e.status
	}
	switch {
	case e.rules.Target > 0 && e.board.MaxTile() >= e.rules.Target:
		e.finish(StatusWon)
	case !e.board.CanMove():
		e.finish(StatusLost)
	}
	return e.status
}

func (e *Engine) finish(s Status) {
	e.status = s
	e.endedAt = e.now()
}

// SetSpawn4Probability retunes spawning mid-game.
func (e *Engine) SetSpawn4Probability(p float64) error {
	r := e.rules
	r.Spawn4Probability = p
	if err := r.Validate(); err != nil {
		return err
	}
	e.rules = r
	return nil
}

func (e *Engine) Rules() Rules   { return e.rules }
func (e *Engine) Board() Board   { return e.board }
func (e *Engine) Score() int     { return e.score }
func (e *Engine) Status() Status { return e.status }
func (e *Engine) Moves() int     { return e.moves }

// Seed returns the seed of the current game, or 0 when WithRand was used.
func (e *Engine) Seed() int64 { return e.seed }

// History returns the directions of all applied moves since the last Reset.
func (e *Engine) History() []Direction {
	return slices.Clone(e.history)
}

// Snapshot is a read-only view for presentation layers.
type Snapshot struct {
	Size    int     `json:"size"`
	Tiles   []Tile  `json:"tiles"`
	Cells   [][]int `json:"cells"`
	Score   int     `json:"score"`
	Status  Status  `json:"status"`
	Moves   int     `json:"moves"`
	MaxTile int     `json:"max_tile"`
	Target  int     `json:"target"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Size:    e.board.size,
		Tiles:   e.board.Tiles(),
		Cells:   e.board.Values(),
		Score:   e.score,
		Status:  e.status,
		Moves:   e.moves,
		MaxTile: e.board.MaxTile(),
		Target:  e.rules.Target,
	}
}
