package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/runevale/server/internal/core/ecs"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/entity"
	"github.com/runevale/server/internal/world"
)

// PositionSink receives entity movement broadcasts. The network layer
// provides the real implementation; tests supply a recorder.
type PositionSink interface {
	EntityMoved(id ecs.EntityID, kind entity.Kind, pos world.Vec3)
}

// NetSyncSystem flushes dirty transforms to the position sink once per tick.
type NetSyncSystem struct {
	entities *entity.Manager
	sink     PositionSink
	log      *zap.Logger
}

func NewNetSyncSystem(entities *entity.Manager, sink PositionSink, log *zap.Logger) *NetSyncSystem {
	return &NetSyncSystem{entities: entities, sink: sink, log: log}
}

func (s *NetSyncSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *NetSyncSystem) Update(_ time.Duration) {
	if s.sink == nil {
		s.entities.FlushDirty(func(ecs.EntityID, entity.Kind, world.Vec3) {})
		return
	}
	n := s.entities.FlushDirty(s.sink.EntityMoved)
	if n > 0 {
		s.log.Debug("flushed entity positions", zap.Int("count", n))
	}
}
