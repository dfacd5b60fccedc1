package engine

// Rules are the fixed parameters of one game.
type Rules struct {
	// Size is the board edge length.
	Size int `yaml:"size" json:"size"`
	// Target is the tile value that wins the game. Zero disables winning.
	Target int `yaml:"target" json:"target"`
	// Spawn4Probability is the chance a spawned tile is a 4 instead of a 2.
	Spawn4Probability float64 `yaml:"spawn4_probability" json:"spawn4_probability"`
	// InitialTiles is how many tiles Reset places.
	InitialTiles int `yaml:"initial_tiles" json:"initial_tiles"`
}

const (
	MinSize = 2
	MaxSize = 8
)

// DefaultRules returns the classic 4x4 game to 2048.
func DefaultRules() Rules {
	return Rules{
		Size:              4,
		Target:            2048,
		Spawn4Probability: 0.1,
		InitialTiles:      2,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (r Rules) Validate() error {
	switch {
	case r.Size < MinSize || r.Size > MaxSize:
		return &ConfigError{Field: "size", Reason: "must be between 2 and 8"}
	case r.Target < 0:
		return &ConfigError{Field: "target", Reason: "must not be negative"}
	case r.Target > 0 && (r.Target < 4 || !isPowerOfTwo(r.Target)):
		return &ConfigError{Field: "target", Reason: "must be a power of two >= 4"}
	case r.Spawn4Probability < 0 || r.Spawn4Probability > 1:
		return &ConfigError{Field: "spawn4_probability", Reason: "must be within [0, 1]"}
	case r.InitialTiles < 0 || r.InitialTiles > r.Size*r.Size:
		return &ConfigError{Field: "initial_tiles", Reason: "must fit on the board"}
	}
	return nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}
