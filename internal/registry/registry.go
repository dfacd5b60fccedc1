// Package registry lets game modes register themselves from init() so the
// platforms can list and create them by id.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tile2048/internal/core"
)

// ErrUnknownGame is returned by Create for ids nobody registered.
var ErrUnknownGame = errors.New("registry: unknown game")

// Game is a tick-driven game the platforms can host. Implementations hold
// pure logic; the platform owns input mapping, timing and terminal output.
type Game interface {
	// ID is the stable identifier used by the CLI and score storage.
	ID() string

	// Title is the human-readable name.
	Title() string

	// Reset starts a fresh game. Called at start and on restart.
	Reset(cfg core.RuntimeConfig)

	// Step advances the simulation by one tick.
	Step(in core.InputFrame) core.StepResult

	// Render draws into dst, which is cleared beforehand.
	Render(dst *core.Screen)

	// State returns score and lifecycle flags.
	State() core.GameState
}

// Describer is implemented by games with a one-line description.
type Describer interface {
	Description() string
}

// Reporter is implemented by games that produce a final record when they end.
type Reporter interface {
	Outcome() (core.Outcome, bool)
}

// Resizer is implemented by games that keep their state across a terminal
// resize. Games without it are reset by the platform.
type Resizer interface {
	Resize(width, height int)
}

// GameInfo contains metadata about a registered game.
type GameInfo struct {
	ID          string
	Title       string
	Description string
}

// Factory creates a new game instance.
type Factory func() Game

var (
	mu    sync.RWMutex
	games = make(map[string]entry)
)

type entry struct {
	factory Factory
	info    GameInfo
}

// Register adds a factory. It panics on duplicate ids.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := games[id]; exists {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}

	g := f()
	info := GameInfo{ID: id, Title: g.Title()}
	if d, ok := g.(Describer); ok {
		info.Description = d.Description()
	}
	games[id] = entry{factory: f, info: info}
}

// List returns all registered games sorted by id.
func List() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GameInfo, 0, len(games))
	for _, e := range games {
		result = append(result, e.info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Create instantiates a game by id.
func Create(id string) (Game, error) {
	mu.RLock()
	e, ok := games[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownGame, id)
	}
	return e.factory(), nil
}

// Exists checks whether id is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := games[id]
	return ok
}

// Info returns the metadata of a registered game.
func Info(id string) (GameInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := games[id]
	return e.info, ok
}
