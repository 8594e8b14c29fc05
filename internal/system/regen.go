package system

import (
	"time"

	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/world"
)

// RegenSystem slowly restores health to live mobs that are out of combat.
type RegenSystem struct {
	svc      *MobService
	interval time.Duration
	elapsed  time.Duration
}

func NewRegenSystem(svc *MobService, interval time.Duration) *RegenSystem {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &RegenSystem{svc: svc, interval: interval}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed -= s.interval

	s.svc.State().EachMob(func(mob *world.MobInstance) {
		if !mob.Alive || mob.Health >= mob.MaxHealth {
			return
		}
		// Mobs with an active target are in combat and do not regenerate.
		if mob.TargetID != 0 {
			return
		}
		mob.Health++
		if mob.Health > mob.MaxHealth {
			mob.Health = mob.MaxHealth
		}
		mob.PersistDirty = true
	})
}
