package system

import (
	"time"

	"github.com/runevale/server/internal/core/ecs"
	coresys "github.com/runevale/server/internal/core/system"
)

// CleanupSystem destroys entities queued for removal during the tick.
// Runs last so every other system sees a stable entity set.
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(w *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: w}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
