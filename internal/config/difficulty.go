package config

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty accepts a preset name; empty means normal.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return p, nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, normal or hard)", s)
}

// ApplyDifficulty scales the chance of spawning a 4. Normal keeps the
// configured value.
func ApplyDifficulty(r engine.Rules, preset DifficultyPreset) engine.Rules {
	switch preset {
	case DifficultyEasy:
		r.Spawn4Probability /= 2
	case DifficultyHard:
		r.Spawn4Probability = min(r.Spawn4Probability*2, 1)
	}
	return r
}
