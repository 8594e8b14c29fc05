package system

import (
	"time"

	coresys "github.com/runevale/server/internal/core/system"
)

// MobRespawnSystem fires due entries in the respawn schedule. It runs in
// PostUpdate so respawns always land after the tick's AI evaluations.
type MobRespawnSystem struct {
	svc *MobService
}

func NewMobRespawnSystem(svc *MobService) *MobRespawnSystem {
	return &MobRespawnSystem{svc: svc}
}

func (s *MobRespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *MobRespawnSystem) Update(_ time.Duration) {
	s.svc.ProcessRespawns()
}
