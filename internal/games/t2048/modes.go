// Package t2048 hosts the 2048 board engine as a tick-driven game with
// campaign, classic and endless modes.
package t2048

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
)

// Mode selects how a game is won.
type Mode string

const (
	// ModeCampaign plays through the stage ladder on one board.
	ModeCampaign Mode = "campaign"
	// ModeClassic ends when the configured target tile appears.
	ModeClassic Mode = "classic"
	// ModeEndless never wins; play continues until no move is left.
	ModeEndless Mode = "endless"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("t2048: unknown mode")

// Modes lists all modes in menu order.
func Modes() []Mode {
	return []Mode{ModeCampaign, ModeClassic, ModeEndless}
}

// ParseMode accepts a mode name or a registry game id.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if s == string(m) || s == m.GameID() {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// GameID is the registry id of the mode.
func (m Mode) GameID() string {
	switch m {
	case ModeClassic:
		return "2048_classic"
	case ModeEndless:
		return "2048_endless"
	default:
		return "2048"
	}
}

// Title is the display name of the mode.
func (m Mode) Title() string {
	switch m {
	case ModeClassic:
		return "2048 (Classic)"
	case ModeEndless:
		return "2048 (Endless)"
	default:
		return "2048"
	}
}

var (
	rulesMu   sync.RWMutex
	baseRules = engine.DefaultRules()
)

// Configure sets the rules new games start from. Campaign and endless
// games override the target.
func Configure(r engine.Rules) error {
	if err := r.Validate(); err != nil {
		return err
	}
	rulesMu.Lock()
	baseRules = r
	rulesMu.Unlock()
	return nil
}

// BaseRules returns the configured rules.
func BaseRules() engine.Rules {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return baseRules
}

// RulesFor derives the engine rules of a mode from the configured ones.
func RulesFor(m Mode) engine.Rules {
	r := BaseRules()
	switch m {
	case ModeEndless:
		r.Target = 0
	case ModeCampaign:
		// stage targets are tracked by the game, not the engine
		r.Target = 0
		if st, ok := StageAt(0); ok {
			r.Spawn4Probability = st.Spawn4
		}
	}
	return r
}
