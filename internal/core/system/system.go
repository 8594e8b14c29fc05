package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseDispatch   Phase = iota // 0: swap event buffers, deliver last tick's events
	PhaseUpdate                  // 1: game logic (AI, combat resolution)
	PhasePostUpdate              // 2: respawn, regen
	PhaseOutput                  // 3: flush network-dirty state
	PhasePersist                 // 4: batch snapshot saves
	PhaseCleanup                 // 5: destroy queued entities
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
