package t2048

import "fmt"

// Stage is one step of the campaign ladder.
type Stage struct {
	Name   string
	Target int     // tile value that clears the stage
	Spawn4 float64 // chance a spawned tile is a 4
}

// Label is the menu text of the stage.
func (s Stage) Label() string {
	return fmt.Sprintf("%s (target %d)", s.Name, s.Target)
}

// Targets double from stage to stage, so clearing one never clears the next.
var stages = []Stage{
	{Name: "First Steps", Target: 64, Spawn4: 0.05},
	{Name: "Warm-up", Target: 128, Spawn4: 0.10},
	{Name: "Getting Started", Target: 256, Spawn4: 0.10},
	{Name: "Building Momentum", Target: 512, Spawn4: 0.10},
	{Name: "The Climb", Target: 1024, Spawn4: 0.12},
	{Name: "Classic", Target: 2048, Spawn4: 0.12},
	{Name: "Beyond Limits", Target: 4096, Spawn4: 0.15},
	{Name: "Champion", Target: 8192, Spawn4: 0.20},
}

// StageCount returns the number of campaign stages.
func StageCount() int {
	return len(stages)
}

// StageAt returns stage i (0-based).
func StageAt(i int) (Stage, bool) {
	if i < 0 || i >= len(stages) {
		return Stage{}, false
	}
	return stages[i], true
}

// Stages returns a copy of the ladder.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}
