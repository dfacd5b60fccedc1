package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDirection is returned for direction values outside the four moves.
	ErrInvalidDirection = errors.New("engine: invalid direction")
	// ErrBoardFull is returned by SpawnTile when no cell is empty.
	ErrBoardFull = errors.New("engine: board is full")
	// ErrInvalidBoard is returned when a board literal is malformed.
	ErrInvalidBoard = errors.New("engine: invalid board")
)

// ConfigError describes a rejected Rules field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: invalid rules: %s %s", e.Field, e.Reason)
}
