package system

import (
	"fmt"
	"time"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// MobService owns the authoritative mob registry and the respawn schedule.
// It is the only writer of MobInstance fields; other systems reach mobs
// through its API or through events. All methods run on the game loop
// goroutine.
type MobService struct {
	state *world.State
	table *data.MobTable
	bus   *event.Bus
	log   *zap.Logger

	defaultRespawn time.Duration
	confirmTimeout time.Duration

	// respawns is the time-keyed respawn schedule: mobID → due time.
	respawns map[world.MobID]time.Time

	now func() time.Time
}

func NewMobService(state *world.State, table *data.MobTable, bus *event.Bus, cfg config.GameConfig, log *zap.Logger) *MobService {
	s := &MobService{
		state:          state,
		table:          table,
		bus:            bus,
		log:            log,
		defaultRespawn: cfg.RespawnDelay,
		confirmTimeout: cfg.SpawnConfirmTimeout,
		respawns:       make(map[world.MobID]time.Time),
		now:            time.Now,
	}

	event.Subscribe(bus, s.onMobSpawned)
	event.Subscribe(bus, func(ev world.MobDamaged) {
		s.ApplyDamage(ev.MobID, ev.Damage, ev.Source)
	})
	event.Subscribe(bus, func(ev world.PlayerDisconnected) {
		s.handlePlayerGone(ev.PlayerID)
	})

	return s
}

// SetClock overrides the service's time source.
func (s *MobService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MobService) State() *world.State { return s.state }
func (s *MobService) Bus() *event.Bus     { return s.bus }

// ---------- Spawning ----------

// SpawnMob creates a mob of the given archetype at a position and requests
// its entity registration. An unknown archetype or a broken position is a
// caller error, returned rather than half-spawned.
func (s *MobService) SpawnMob(archetype string, pos world.Vec3) (world.MobID, error) {
	return s.spawnMob(archetype, pos, 0)
}

func (s *MobService) spawnMob(archetype string, pos world.Vec3, respawnOverride time.Duration) (world.MobID, error) {
	tmpl := s.table.Get(archetype)
	if tmpl == nil {
		return 0, fmt.Errorf("spawn mob: unknown archetype %q", archetype)
	}
	if !pos.IsFinite() {
		return 0, fmt.Errorf("spawn mob %q: non-finite position", archetype)
	}

	respawn := s.defaultRespawn
	if tmpl.RespawnSecs > 0 {
		respawn = time.Duration(tmpl.RespawnSecs) * time.Second
	}
	if respawnOverride > 0 {
		respawn = respawnOverride
	}

	weapon := world.WeaponMelee
	if tmpl.Weapon == "ranged" {
		weapon = world.WeaponRanged
	}

	now := s.now()
	mob := &world.MobInstance{
		ID:            world.NextMobID(),
		Archetype:     tmpl.Key,
		Name:          tmpl.Name,
		Level:         tmpl.Level,
		Position:      pos,
		Home:          pos,
		SpawnLocation: pos,
		AggroRange:    tmpl.AggroRange,
		WanderRadius:  tmpl.WanderRadius,
		MoveSpeed:     tmpl.MoveSpeed,
		MaxHealth:     tmpl.Constitution * 10,
		Health:        tmpl.Constitution * 10,
		Alive:         true,
		Aggressive:    tmpl.Aggressive,
		AlwaysAggro:   tmpl.AlwaysAggro,
		ChaseRange:    tmpl.ChaseRange,
		State:         world.StateIdle,
		Weapon:        weapon,
		LootTable:     tmpl.LootTable,
		RespawnDelay:  respawn,
		Stats: world.Stats{
			Attack:       tmpl.Attack,
			Strength:     tmpl.Strength,
			Defense:      tmpl.Defense,
			Constitution: tmpl.Constitution,
			Ranged:       tmpl.Ranged,
		},
		Pending:         true,
		PendingDeadline: now.Add(s.confirmTimeout),
		PersistDirty:    true,
	}

	s.state.AddMob(mob)
	event.Emit(s.bus, world.MobSpawnRequest{
		MobID:     mob.ID,
		Archetype: mob.Archetype,
		Level:     mob.Level,
		Position:  mob.Position,
	})
	return mob.ID, nil
}

// PopulateSpawnPoints seeds the world from generated spawn points. Unknown
// archetypes are logged and skipped, never fatal to the rest of the load.
func (s *MobService) PopulateSpawnPoints(points []data.SpawnPoint) int {
	total := 0
	for _, p := range points {
		override := time.Duration(p.RespawnSecs) * time.Second
		pos := world.Vec3{X: p.X, Y: p.Y, Z: p.Z}
		if _, err := s.spawnMob(p.Archetype, pos, override); err != nil {
			s.log.Warn("spawn point skipped", zap.String("archetype", p.Archetype), zap.Error(err))
			continue
		}
		total++
	}
	return total
}

// onMobSpawned confirms entity registration. A confirmation for a mob that
// was despawned while pending destroys the orphan entity.
func (s *MobService) onMobSpawned(ev world.MobSpawned) {
	mob := s.state.Mob(ev.MobID)
	if mob == nil {
		event.Emit(s.bus, world.MobDespawn{MobID: ev.MobID, EntityID: ev.EntityID, Position: ev.Position})
		return
	}
	mob.EntityID = ev.EntityID
	mob.Pending = false
}

// ---------- Queries ----------

func (s *MobService) GetMob(id world.MobID) *world.MobInstance {
	return s.state.Mob(id)
}

func (s *MobService) GetAllMobs() []*world.MobInstance {
	return s.state.MobList()
}

func (s *MobService) GetMobsInArea(center world.Vec3, radius float64) []*world.MobInstance {
	return s.state.MobsInArea(center, radius)
}

// ---------- Damage and death ----------

// ApplyDamage mutates mob health. Damage against an already-dead mob is a
// no-op: death fires exactly once. Health never leaves [0, MaxHealth].
func (s *MobService) ApplyDamage(id world.MobID, damage int, source world.PlayerID) {
	mob := s.state.Mob(id)
	if mob == nil || !mob.Alive {
		return
	}
	if damage < 0 {
		damage = 0
	}

	mob.Health -= damage
	if mob.Health < 0 {
		mob.Health = 0
	}
	mob.PersistDirty = true
	AddThreat(mob, source, damage)

	if mob.Health == 0 {
		s.die(mob, source, true)
	}
}

// KillMob forces a mob's death without loot. Returns false for unknown or
// already-dead mobs.
func (s *MobService) KillMob(id world.MobID) bool {
	mob := s.state.Mob(id)
	if mob == nil || !mob.Alive {
		return false
	}
	s.die(mob, 0, false)
	return true
}

// die is the single death path. dropLoot false (forced kills) skips the
// MobDied hand-off to the loot pipeline; everything else is identical.
func (s *MobService) die(mob *world.MobInstance, killer world.PlayerID, dropLoot bool) {
	mob.Alive = false
	mob.Health = 0
	mob.State = world.StateDead
	mob.TargetID = 0
	mob.HasPatrol = false
	mob.PersistDirty = true
	ClearThreat(mob)

	s.respawns[mob.ID] = s.now().Add(mob.RespawnDelay)

	event.Emit(s.bus, world.MobDespawn{MobID: mob.ID, EntityID: mob.EntityID, Position: mob.Position})
	if dropLoot {
		event.Emit(s.bus, world.MobDied{MobID: mob.ID, KilledBy: killer, Position: mob.Position})
	}

	s.log.Debug("mob died",
		zap.Int64("mob", int64(mob.ID)),
		zap.String("archetype", mob.Archetype),
		zap.Uint64("killer", uint64(killer)))
}

// ---------- Despawn ----------

// DespawnMob removes a live mob immediately, bypassing loot and respawn.
// Dead mobs return false: their record is already owned by the respawn
// schedule and a second removal must not cancel it by accident.
func (s *MobService) DespawnMob(id world.MobID) bool {
	mob := s.state.Mob(id)
	if mob == nil || !mob.Alive {
		return false
	}
	delete(s.respawns, id)
	s.state.RemoveMob(id)
	event.Emit(s.bus, world.MobDespawn{MobID: mob.ID, EntityID: mob.EntityID, Position: mob.Position})
	return true
}

// DespawnAllMobs clears the whole mob population, live and dead, cancelling
// every pending respawn. Returns the number of records removed.
func (s *MobService) DespawnAllMobs() int {
	count := 0
	for _, mob := range s.state.MobList() {
		delete(s.respawns, mob.ID)
		s.state.RemoveMob(mob.ID)
		if mob.Alive {
			event.Emit(s.bus, world.MobDespawn{MobID: mob.ID, EntityID: mob.EntityID, Position: mob.Position})
		}
		count++
	}
	return count
}

// ---------- Respawn ----------

// ProcessRespawns fires every due entry in the schedule. Runs after AI
// updates within the same tick (PostUpdate phase).
func (s *MobService) ProcessRespawns() {
	now := s.now()
	for id, due := range s.respawns {
		if now.Before(due) {
			continue
		}
		delete(s.respawns, id)
		mob := s.state.Mob(id)
		if mob == nil {
			continue // despawned while waiting
		}
		s.respawn(mob, now)
	}
}

// respawn resets a mob to spawn-state: full health, idle, at its original
// spawn location, with a fresh entity registration request.
func (s *MobService) respawn(mob *world.MobInstance, now time.Time) {
	mob.Alive = true
	mob.Health = mob.MaxHealth
	mob.Position = mob.SpawnLocation
	mob.State = world.StateIdle
	mob.TargetID = 0
	mob.EntityID = 0
	mob.HasPatrol = false
	mob.LastAI = time.Time{}
	mob.Pending = true
	mob.PendingDeadline = now.Add(s.confirmTimeout)
	mob.PersistDirty = true
	ClearThreat(mob)

	event.Emit(s.bus, world.MobSpawnRequest{
		MobID:     mob.ID,
		Archetype: mob.Archetype,
		Level:     mob.Level,
		Position:  mob.Position,
	})

	s.log.Debug("mob respawned",
		zap.Int64("mob", int64(mob.ID)),
		zap.String("archetype", mob.Archetype))
}

// RespawnDue reports whether a respawn is scheduled for the mob.
func (s *MobService) RespawnDue(id world.MobID) (time.Time, bool) {
	due, ok := s.respawns[id]
	return due, ok
}

// ---------- Disconnects ----------

// handlePlayerGone clears targets and threat referencing a departed player.
// Mobs left mid-chase notice next AI tick and head home.
func (s *MobService) handlePlayerGone(player world.PlayerID) {
	s.state.RemovePlayer(player)
	s.state.EachMob(func(mob *world.MobInstance) {
		RemoveThreat(mob, player)
		if mob.TargetID == player {
			mob.TargetID = 0
		}
	})
}
