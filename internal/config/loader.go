package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/tile2048.yaml
var defaultYAML []byte

const fileName = "tile2048.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TILE2048_"

// Default returns the embedded configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded default is invalid: %v", err))
	}
	return cfg
}

// DefaultYAML returns the embedded default document.
func DefaultYAML() []byte {
	return defaultYAML
}

// Load reads the configuration, applies environment overrides and validates
// the result. Files are layered over the embedded default, so a file only
// needs the keys it changes.
// Search order: customPath -> ~/.tile2048/configs/tile2048.yaml -> ./configs/tile2048.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
	} else {
		for _, path := range []string{userConfigPath(), filepath.Join("configs", fileName)} {
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
			break
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// userConfigPath returns ~/.tile2048/configs/tile2048.yaml, or empty if home is unavailable.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tile2048", "configs", fileName)
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: failed to load %s: %w", p, err)
		}
	}
	return nil
}

type envSetter func(cfg *Config, v string) error

var envOverrides = map[string]envSetter{
	"SIZE": func(c *Config, v string) error { return setInt(&c.Rules.Size, v) },
	"TARGET": func(c *Config, v string) error { return setInt(&c.Rules.Target, v) },
	"SPAWN4_PROBABILITY": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Rules.Spawn4Probability = f
		return nil
	},
	"DIFFICULTY": func(c *Config, v string) error {
		p, err := ParseDifficulty(v)
		c.Difficulty = p
		return err
	},
	"SSH_ADDR":             func(c *Config, v string) error { c.Server.SSHAddr = v; return nil },
	"HTTP_ADDR":            func(c *Config, v string) error { c.Server.HTTPAddr = v; return nil },
	"SESSION_IDLE_TIMEOUT": func(c *Config, v string) error { return setDuration(&c.Server.SessionIdleTimeout, v) },
	"REQUIRE_SIGNATURE":    func(c *Config, v string) error { return setBool(&c.Server.RequireSignature, v) },
	"SIGNATURE_WINDOW":     func(c *Config, v string) error { return setDuration(&c.Server.SignatureWindow, v) },
	"DB":                   func(c *Config, v string) error { c.Storage.Path = v; return nil },
	"REWARD_ENABLED":       func(c *Config, v string) error { return setBool(&c.Reward.Enabled, v) },
	"REWARD_MIN_SCORE":     func(c *Config, v string) error { return setInt(&c.Reward.MinScore, v) },
}

// ApplyEnv overrides cfg from TILE2048_* environment variables.
func ApplyEnv(cfg *Config) error {
	for key, set := range envOverrides {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return &Error{Field: EnvPrefix + key, Err: err}
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
