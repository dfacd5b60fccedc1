// Package config loads the YAML configuration shared by the terminal, SSH
// and HTTP front ends.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
)

// Config is the whole tile2048.yaml document.
type Config struct {
	Rules      engine.Rules     `yaml:"rules"`
	Difficulty DifficultyPreset `yaml:"difficulty"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Reward     RewardConfig     `yaml:"reward"`
}

// ServerConfig holds the network front ends' settings.
type ServerConfig struct {
	SSHAddr            string        `yaml:"ssh_addr"`
	HTTPAddr           string        `yaml:"http_addr"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`         // SSH connection idle timeout
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"` // API game sessions
	RequireSignature   bool          `yaml:"require_signature"`
	SignatureWindow    time.Duration `yaml:"signature_window"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// RewardConfig controls reward claims for finished games.
type RewardConfig struct {
	Enabled  bool `yaml:"enabled"`
	MinScore int  `yaml:"min_score"`
}

// Error reports an invalid configuration value.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return &Error{Field: "rules", Err: err}
	}
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return &Error{Field: "difficulty", Err: err}
	}
	if c.Server.SessionIdleTimeout < 0 || c.Server.IdleTimeout < 0 {
		return &Error{Field: "server", Err: fmt.Errorf("timeouts must not be negative")}
	}
	if c.Server.RequireSignature && c.Server.SignatureWindow <= 0 {
		return &Error{Field: "server.signature_window", Err: fmt.Errorf("must be positive when signatures are required")}
	}
	if c.Storage.Path == "" {
		return &Error{Field: "storage.path", Err: fmt.Errorf("must not be empty")}
	}
	if c.Reward.MinScore < 0 {
		return &Error{Field: "reward.min_score", Err: fmt.Errorf("must not be negative")}
	}
	return nil
}

// EffectiveRules returns the rules with the difficulty preset applied.
func (c Config) EffectiveRules() engine.Rules {
	return ApplyDifficulty(c.Rules, c.Difficulty)
}
