package system

import (
	"math/rand"
	"time"

	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/entity"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// LootSystem is the on-death hand-off pipeline: it rolls the dead mob's
// loot table and asks the entity layer to materialize ground items at the
// death position. Forced kills never reach it — no MobDied, no loot.
type LootSystem struct {
	svc      *MobService
	entities *entity.Manager
	loot     *data.LootTable
	dropRate float64
	rng      *rand.Rand
	log      *zap.Logger

	deaths []world.MobDied
}

func NewLootSystem(svc *MobService, entities *entity.Manager, loot *data.LootTable, dropRate float64, log *zap.Logger) *LootSystem {
	s := &LootSystem{
		svc:      svc,
		entities: entities,
		loot:     loot,
		dropRate: dropRate,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
	event.Subscribe(svc.Bus(), func(ev world.MobDied) {
		s.deaths = append(s.deaths, ev)
	})
	return s
}

// SetSeed makes drop rolls reproducible.
func (s *LootSystem) SetSeed(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }

func (s *LootSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *LootSystem) Update(_ time.Duration) {
	for _, death := range s.deaths {
		s.rollDrops(death)
	}
	s.deaths = s.deaths[:0]
}

func (s *LootSystem) rollDrops(death world.MobDied) {
	mob := s.svc.GetMob(death.MobID)
	if mob == nil || mob.LootTable == "" {
		return
	}
	drops := s.loot.Get(mob.LootTable)
	if len(drops) == 0 {
		return
	}

	for _, drop := range drops {
		threshold := float64(drop.Chance) * s.dropRate
		if float64(s.rng.Intn(1_000_000)) >= threshold {
			continue
		}
		qty := drop.Min
		if drop.Max > drop.Min {
			qty += s.rng.Intn(drop.Max - drop.Min + 1)
		}

		_, err := s.entities.SpawnEntity(entity.Config{
			Kind:     entity.KindItem,
			Name:     drop.Name,
			Position: death.Position,
			Quantity: qty,
		})
		if err != nil {
			// Death position came from the mob itself; a rejection here
			// means corrupted spatial data upstream. Drop the item, keep
			// the loop.
			s.log.Warn("loot drop rejected",
				zap.Int64("mob", int64(death.MobID)),
				zap.String("item", drop.Name),
				zap.Error(err))
			continue
		}
		s.log.Debug("loot dropped",
			zap.Int64("mob", int64(death.MobID)),
			zap.String("item", drop.Name),
			zap.Int("qty", qty),
			zap.Uint64("killer", uint64(death.KilledBy)))
	}
}
