package entity

import (
	"fmt"

	"github.com/runevale/server/internal/core/ecs"
	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// Kind is the closed set of world entity kinds.
type Kind int

const (
	KindItem Kind = iota
	KindMob
	KindResource
	KindNpc
	KindHeadstone
	kindEnd // sentinel for validation
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindMob:
		return "mob"
	case KindResource:
		return "resource"
	case KindNpc:
		return "npc"
	case KindHeadstone:
		return "headstone"
	}
	return "unknown"
}

// World vertical bounds for spawn validation. Anything outside is a caller
// bug, not a runtime race.
const (
	WorldFloorY   = -100.0
	WorldCeilingY = 5000.0
)

// Transform is the spatially-synced component of an entity. NetDirty flips
// when the position changes and is cleared exactly once by the output flush.
type Transform struct {
	Position world.Vec3
	NetDirty bool
}

// Descriptor is the identity component of an entity.
type Descriptor struct {
	Kind     Kind
	Name     string
	MobID    world.MobID // zero for non-mob entities
	Quantity int         // stack size for ground items, zero elsewhere
}

// Config describes an entity spawn request.
type Config struct {
	Kind     Kind
	Name     string
	Position world.Vec3
	MobID    world.MobID
	Quantity int
}

// Manager owns creation and destruction of render/network-facing entities.
// It keeps its own registry parallel to the mob subsystem's; the two stay
// eventually consistent through events only, never direct calls.
type Manager struct {
	ecs         *ecs.World
	transforms  *ecs.Store[Transform]
	descriptors *ecs.Store[Descriptor]
	byMob       map[world.MobID]ecs.EntityID
	log         *zap.Logger
}

func NewManager(w *ecs.World, log *zap.Logger) *Manager {
	m := &Manager{
		ecs:         w,
		transforms:  ecs.NewStore[Transform](),
		descriptors: ecs.NewStore[Descriptor](),
		byMob:       make(map[world.MobID]ecs.EntityID, 1024),
		log:         log,
	}
	w.Registry().Register(m.transforms)
	w.Registry().Register(m.descriptors)
	return m
}

// Attach subscribes the manager to the mob subsystem's lifecycle events.
// Spawn requests answer with MobSpawned so the AI layer knows the entity is
// combat-ready; a malformed request is logged and dropped, never fatal.
func (m *Manager) Attach(bus *event.Bus) {
	event.Subscribe(bus, func(ev world.MobSpawnRequest) {
		id, err := m.SpawnEntity(Config{
			Kind:     KindMob,
			Name:     ev.Archetype,
			Position: ev.Position,
			MobID:    ev.MobID,
		})
		if err != nil {
			m.log.Warn("mob spawn request dropped",
				zap.Int64("mob", int64(ev.MobID)),
				zap.String("archetype", ev.Archetype),
				zap.Error(err))
			return
		}
		event.Emit(bus, world.MobSpawned{
			MobID:    ev.MobID,
			EntityID: id,
			Position: ev.Position,
		})
	})

	event.Subscribe(bus, func(ev world.MobPositionUpdated) {
		id, ok := m.byMob[ev.MobID]
		if !ok {
			return
		}
		if tr, ok := m.transforms.Get(id); ok {
			tr.Position = ev.Position
			tr.NetDirty = true
		}
	})

	event.Subscribe(bus, func(ev world.MobDespawn) {
		if id, ok := m.byMob[ev.MobID]; ok {
			m.DestroyEntity(id)
		}
	})
}

// SpawnEntity validates the config, creates the entity, and registers its
// components. Invalid config is a hard error at the call boundary.
func (m *Manager) SpawnEntity(cfg Config) (ecs.EntityID, error) {
	if cfg.Kind < 0 || cfg.Kind >= kindEnd {
		return 0, fmt.Errorf("spawn entity: invalid kind %d", cfg.Kind)
	}
	if !cfg.Position.IsFinite() {
		return 0, fmt.Errorf("spawn entity %s: non-finite position", cfg.Kind)
	}
	if cfg.Position.Y < WorldFloorY || cfg.Position.Y > WorldCeilingY {
		return 0, fmt.Errorf("spawn entity %s: y=%.1f outside world bounds", cfg.Kind, cfg.Position.Y)
	}

	id := m.ecs.CreateEntity()
	m.transforms.Set(id, &Transform{Position: cfg.Position})
	m.descriptors.Set(id, &Descriptor{Kind: cfg.Kind, Name: cfg.Name, MobID: cfg.MobID, Quantity: cfg.Quantity})
	if cfg.Kind == KindMob && cfg.MobID != 0 {
		m.byMob[cfg.MobID] = id
	}
	return id, nil
}

// DestroyEntity queues an entity for end-of-tick destruction. Idempotent:
// unknown or already-destroyed ids return false.
func (m *Manager) DestroyEntity(id ecs.EntityID) bool {
	if !m.ecs.Alive(id) {
		return false
	}
	if d, ok := m.descriptors.Get(id); ok && d.MobID != 0 {
		if m.byMob[d.MobID] == id {
			delete(m.byMob, d.MobID)
		}
	}
	m.ecs.MarkForDestruction(id)
	return true
}

// Transform returns the transform component for an entity, if alive.
func (m *Manager) Transform(id ecs.EntityID) (*Transform, bool) {
	if !m.ecs.Alive(id) {
		return nil, false
	}
	return m.transforms.Get(id)
}

// Descriptor returns the descriptor component for an entity, if alive.
func (m *Manager) Descriptor(id ecs.EntityID) (*Descriptor, bool) {
	if !m.ecs.Alive(id) {
		return nil, false
	}
	return m.descriptors.Get(id)
}

// EntityForMob returns the live entity registered for a mob id.
func (m *Manager) EntityForMob(id world.MobID) (ecs.EntityID, bool) {
	e, ok := m.byMob[id]
	return e, ok
}

// Count returns the number of entities with components registered here.
func (m *Manager) Count() int {
	return m.descriptors.Len()
}

// EachOfKind visits every entity of one kind. Hosts use it to enumerate
// ground items or headstones in an area.
func (m *Manager) EachOfKind(kind Kind, fn func(ecs.EntityID, *Descriptor, world.Vec3)) {
	ecs.Each2(m.transforms, m.descriptors, func(id ecs.EntityID, tr *Transform, d *Descriptor) {
		if d.Kind == kind {
			fn(id, d, tr.Position)
		}
	})
}

// FlushDirty visits every network-dirty transform once, then clears the
// flag. The host's sync layer drains this once per tick, which is what
// makes "dirty exactly once per changed tick" hold.
func (m *Manager) FlushDirty(fn func(ecs.EntityID, Kind, world.Vec3)) int {
	n := 0
	ecs.Each2(m.transforms, m.descriptors, func(id ecs.EntityID, tr *Transform, d *Descriptor) {
		if !tr.NetDirty {
			return
		}
		tr.NetDirty = false
		n++
		if fn != nil {
			fn(id, d.Kind, tr.Position)
		}
	})
	return n
}
