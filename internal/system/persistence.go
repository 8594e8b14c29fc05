package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/persist"
	"github.com/runevale/server/internal/world"
)

// SnapshotStore saves mob state batches. Backed by postgres in production.
type SnapshotStore interface {
	SaveMobs(ctx context.Context, snaps []persist.MobSnapshot) error
}

// PersistenceSystem batches dirty mob snapshots and writes them on an
// interval, plus once more on shutdown via Flush.
type PersistenceSystem struct {
	svc      *MobService
	store    SnapshotStore
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration
}

func NewPersistenceSystem(svc *MobService, store SnapshotStore, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PersistenceSystem{svc: svc, store: store, log: log, interval: interval}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed -= s.interval
	s.Flush()
}

// Flush writes every dirty mob immediately. Called on the persist interval
// and during graceful shutdown.
func (s *PersistenceSystem) Flush() {
	if s.store == nil {
		return
	}
	var snaps []persist.MobSnapshot
	var dirty []*world.MobInstance
	s.svc.State().EachMob(func(mob *world.MobInstance) {
		if !mob.PersistDirty {
			return
		}
		snaps = append(snaps, persist.MobSnapshot{
			MobID:     int64(mob.ID),
			Archetype: mob.Archetype,
			X:         mob.Position.X,
			Y:         mob.Position.Y,
			Z:         mob.Position.Z,
			Health:    mob.Health,
			Alive:     mob.Alive,
			State:     mob.State.String(),
			SavedAt:   time.Now(),
		})
		dirty = append(dirty, mob)
	})
	if len(snaps) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.SaveMobs(ctx, snaps); err != nil {
		s.log.Error("mob snapshot save failed", zap.Int("count", len(snaps)), zap.Error(err))
		return
	}
	for _, mob := range dirty {
		mob.PersistDirty = false
	}
	s.log.Debug("saved mob snapshots", zap.Int("count", len(snaps)))
}
