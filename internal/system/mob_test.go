package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/ecs"
	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/entity"
	"github.com/runevale/server/internal/world"
)

// fixture wires the mob service to a real entity manager over a real bus,
// with a controllable clock.
type fixture struct {
	state    *world.State
	bus      *event.Bus
	svc      *MobService
	entities *entity.Manager
	now      time.Time
}

func testArchetypes() []data.MobArchetype {
	return []data.MobArchetype{
		{
			Key: "goblin", Name: "Goblin", Level: 2,
			Attack: 3, Strength: 4, Defense: 2, Constitution: 5, Ranged: 1,
			WanderRadius: 6, MoveSpeed: 2.5, Weapon: "melee",
			LootTable: "goblin_common",
		},
		{
			Key: "highwayman", Name: "Highwayman", Level: 5,
			Attack: 8, Strength: 7, Defense: 5, Constitution: 8, Ranged: 2,
			Aggressive: true, AggroRange: 10, MoveSpeed: 3.0, Weapon: "melee",
			LootTable: "highwayman",
		},
		{
			Key: "skeleton_archer", Name: "Skeleton Archer", Level: 12,
			Attack: 10, Strength: 9, Defense: 8, Constitution: 13, Ranged: 14,
			Aggressive: true, AggroRange: 12, MoveSpeed: 2.8, Weapon: "ranged",
			LootTable: "skeleton",
		},
		{
			Key: "revenant_knight", Name: "Revenant Knight", Level: 14,
			Attack: 16, Strength: 15, Defense: 14, Constitution: 16, Ranged: 1,
			Aggressive: true, AlwaysAggro: true, AggroRange: 14, ChaseRange: 40,
			MoveSpeed: 3.5, Weapon: "melee", LootTable: "revenant",
			RespawnSecs: 600,
		},
	}
}

func testGameConfig() config.GameConfig {
	cfg := config.Defaults().Game
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		state: world.NewState(),
		bus:   event.NewBus(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.entities = entity.NewManager(ecs.NewWorld(), zap.NewNop())
	f.entities.Attach(f.bus)
	f.svc = NewMobService(f.state, data.NewMobTable(testArchetypes()), f.bus, testGameConfig(), zap.NewNop())
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

// pump makes last tick's events readable and delivers them, like the
// dispatch phase does at the top of a tick.
func (f *fixture) pump() {
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// spawnConfirmed spawns a mob and pumps the bus until the entity layer has
// confirmed it.
func (f *fixture) spawnConfirmed(t *testing.T, archetype string, pos world.Vec3) *world.MobInstance {
	t.Helper()
	id, err := f.svc.SpawnMob(archetype, pos)
	require.NoError(t, err)
	f.pump() // request → entity manager
	f.pump() // confirmation → mob service
	mob := f.svc.GetMob(id)
	require.NotNil(t, mob)
	require.False(t, mob.Pending)
	require.NotZero(t, mob.EntityID)
	return mob
}

func (f *fixture) addPlayer(id world.PlayerID, level int, pos world.Vec3) *world.PlayerInfo {
	p := &world.PlayerInfo{
		ID:          id,
		Name:        "tester",
		CombatLevel: level,
		Attack:      level,
		Strength:    level,
		Defense:     level,
		Position:    pos,
		Health:      100,
		MaxHealth:   100,
		Connected:   true,
	}
	f.state.AddPlayer(p)
	return p
}

func TestSpawnMobUnknownArchetype(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SpawnMob("dragon", world.Vec3{})
	require.Error(t, err)
	require.Zero(t, f.state.MobCount())
}

func TestSpawnMobDerivedStats(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{X: 10, Z: 20})

	require.Equal(t, 80, mob.MaxHealth, "constitution 8 gives 80 max health")
	require.Equal(t, mob.MaxHealth, mob.Health)
	require.Equal(t, world.StateIdle, mob.State)
	require.True(t, mob.Alive)
	require.Equal(t, mob.Position, mob.Home)
	require.Equal(t, mob.Position, mob.SpawnLocation)
	require.Equal(t, world.WeaponMelee, mob.Weapon)
}

func TestSpawnMobPendingUntilConfirmed(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.SpawnMob("goblin", world.Vec3{X: 1})
	require.NoError(t, err)

	mob := f.svc.GetMob(id)
	require.True(t, mob.Pending)
	require.Zero(t, mob.EntityID)

	f.pump()
	f.pump()
	require.False(t, mob.Pending)
	require.NotZero(t, mob.EntityID)

	_, ok := f.entities.EntityForMob(id)
	require.True(t, ok)
}

func TestSpawnConfirmForDespawnedMobDestroysOrphan(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.SpawnMob("goblin", world.Vec3{X: 1})
	require.NoError(t, err)

	f.pump() // entity created
	require.True(t, f.svc.DespawnMob(id))
	f.pump() // confirmation arrives for a mob that is gone
	f.pump() // resulting despawn reaches the entity layer

	_, ok := f.entities.EntityForMob(id)
	require.False(t, ok)
}

func TestApplyDamageClampsHealth(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})

	f.svc.ApplyDamage(mob.ID, -5, 1)
	require.Equal(t, mob.MaxHealth, mob.Health, "negative damage heals nothing")

	f.svc.ApplyDamage(mob.ID, 30, 1)
	require.Equal(t, 50, mob.Health)

	f.svc.ApplyDamage(mob.ID, 9999, 1)
	require.Equal(t, 0, mob.Health)
	require.False(t, mob.Alive)
	require.Equal(t, world.StateDead, mob.State)
}

func TestLethalDamageFiresDeathExactlyOnce(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{X: 5})

	var deaths []world.MobDied
	event.Subscribe(f.bus, func(ev world.MobDied) {
		deaths = append(deaths, ev)
	})

	f.svc.ApplyDamage(mob.ID, 9999, 42)
	f.svc.ApplyDamage(mob.ID, 9999, 42) // dead mob: no-op
	f.pump()

	require.Len(t, deaths, 1)
	require.Equal(t, mob.ID, deaths[0].MobID)
	require.Equal(t, world.PlayerID(42), deaths[0].KilledBy)
	require.Equal(t, world.Vec3{X: 5}, deaths[0].Position)
}

func TestKillMobSkipsLoot(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "goblin", world.Vec3{})

	var died, despawned int
	event.Subscribe(f.bus, func(world.MobDied) { died++ })
	event.Subscribe(f.bus, func(world.MobDespawn) { despawned++ })

	require.True(t, f.svc.KillMob(mob.ID))
	require.False(t, f.svc.KillMob(mob.ID), "second forced kill is a no-op")
	f.pump()

	require.Zero(t, died, "forced kills never reach the loot pipeline")
	require.Equal(t, 1, despawned)
	_, scheduled := f.svc.RespawnDue(mob.ID)
	require.True(t, scheduled, "forced kills still respawn")
}

func TestDespawnMob(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "goblin", world.Vec3{})

	require.True(t, f.svc.DespawnMob(mob.ID))
	require.Nil(t, f.svc.GetMob(mob.ID))
	require.False(t, f.svc.DespawnMob(mob.ID))

	_, scheduled := f.svc.RespawnDue(mob.ID)
	require.False(t, scheduled)
}

func TestDespawnDeadMobReturnsFalse(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "goblin", world.Vec3{})

	require.True(t, f.svc.KillMob(mob.ID))
	require.False(t, f.svc.DespawnMob(mob.ID), "dead record belongs to the respawn schedule")
	_, scheduled := f.svc.RespawnDue(mob.ID)
	require.True(t, scheduled, "despawn of a dead mob must not cancel its respawn")
}

func TestDespawnAllMobs(t *testing.T) {
	f := newFixture(t)
	a := f.spawnConfirmed(t, "goblin", world.Vec3{X: 1})
	f.spawnConfirmed(t, "highwayman", world.Vec3{X: 2})
	require.True(t, f.svc.KillMob(a.ID))

	require.Equal(t, 2, f.svc.DespawnAllMobs(), "live and dead records both count")
	require.Zero(t, f.state.MobCount())
	_, scheduled := f.svc.RespawnDue(a.ID)
	require.False(t, scheduled)
}

func TestRespawnRestoresSpawnState(t *testing.T) {
	f := newFixture(t)
	spawnPos := world.Vec3{X: 100, Z: 200}
	mob := f.spawnConfirmed(t, "highwayman", spawnPos)

	// Drag the mob away from home, then kill it.
	mob.Position = world.Vec3{X: 130, Z: 230}
	f.svc.ApplyDamage(mob.ID, 9999, 7)
	require.False(t, mob.Alive)

	f.advance(10 * time.Minute)
	f.svc.ProcessRespawns()
	require.False(t, mob.Alive, "not due yet: default delay is 15 minutes")

	f.advance(6 * time.Minute)
	f.svc.ProcessRespawns()

	require.True(t, mob.Alive)
	require.Equal(t, world.StateIdle, mob.State)
	require.Equal(t, mob.MaxHealth, mob.Health)
	require.Equal(t, spawnPos, mob.Position)
	require.Zero(t, mob.TargetID)
	require.Nil(t, mob.Threat)
	require.True(t, mob.Pending, "respawn re-requests entity registration")

	f.pump()
	f.pump()
	require.False(t, mob.Pending)
	require.NotZero(t, mob.EntityID)
}

func TestArchetypeRespawnOverride(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "revenant_knight", world.Vec3{})

	require.True(t, f.svc.KillMob(mob.ID))
	due, ok := f.svc.RespawnDue(mob.ID)
	require.True(t, ok)
	require.Equal(t, f.now.Add(600*time.Second), due)
}

func TestPopulateSpawnPointsSkipsUnknownArchetypes(t *testing.T) {
	f := newFixture(t)
	points := []data.SpawnPoint{
		{Archetype: "goblin", X: 1, Z: 1},
		{Archetype: "dragon", X: 2, Z: 2},
		{Archetype: "highwayman", X: 3, Z: 3, RespawnSecs: 30},
	}
	require.Equal(t, 2, f.svc.PopulateSpawnPoints(points))
	require.Equal(t, 2, f.state.MobCount())
}

func TestPlayerDisconnectClearsTargetAndThreat(t *testing.T) {
	f := newFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})
	f.addPlayer(9, 5, world.Vec3{X: 1})

	f.svc.ApplyDamage(mob.ID, 10, 9)
	mob.TargetID = 9
	require.Equal(t, 10, mob.Threat[9])

	event.Emit(f.bus, world.PlayerDisconnected{PlayerID: 9})
	f.pump()

	require.Zero(t, mob.TargetID)
	require.NotContains(t, mob.Threat, world.PlayerID(9))
	require.Nil(t, f.state.Player(9))
}
