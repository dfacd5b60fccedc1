package core

import "time"

// RuntimeConfig is passed to games on Reset.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Simulation ticks per second
	Seed     int64 // RNG seed; 0 means derive from the clock
}

// DefaultConfig returns a RuntimeConfig for an 80x24 terminal at 60 ticks/s.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
	}
}

// GameState is what the platform needs to know about a running game.
type GameState struct {
	Score    int
	HighTile int
	GameOver bool
	Won      bool
	Paused   bool
}

// StepResult is returned by Game.Step after each tick.
type StepResult struct {
	State GameState
	// Moved is true when the tick applied at least one board-changing move.
	Moved bool
}

// Outcome is the final record of a finished game.
type Outcome struct {
	Score   int
	MaxTile int
	Moves   int
	Status  string
	EndedAt time.Time
}
