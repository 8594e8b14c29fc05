package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/scripting"
	"github.com/runevale/server/internal/world"
)

type combatFixture struct {
	*fixture
	combat *CombatSystem
}

func newCombatFixture(t *testing.T) *combatFixture {
	t.Helper()
	base := newFixture(t)
	engine, err := scripting.NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return &combatFixture{
		fixture: base,
		combat:  NewCombatSystem(base.svc, engine, zap.NewNop()),
	}
}

func TestStartCombatGates(t *testing.T) {
	f := newCombatFixture(t)

	require.False(t, f.combat.StartCombat(999, 1), "unknown mob")

	id, err := f.svc.SpawnMob("highwayman", world.Vec3{})
	require.NoError(t, err)
	f.addPlayer(1, 5, world.Vec3{X: 1})
	require.False(t, f.combat.StartCombat(id, 1), "entity registration unconfirmed")

	f.pump()
	f.pump()
	require.True(t, f.combat.StartCombat(id, 1))

	require.False(t, f.combat.StartCombat(id, 2), "unknown player")

	f.state.Player(1).Health = 0
	require.False(t, f.combat.StartCombat(id, 1), "downed player")
	f.state.Player(1).Health = 100

	require.True(t, f.svc.KillMob(id))
	require.False(t, f.combat.StartCombat(id, 1), "dead mob")
}

func TestBufferedIntentResolvesAgainstPlayer(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})
	p := f.addPlayer(1, 5, world.Vec3{X: 1})

	var hits []world.PlayerDamaged
	event.Subscribe(f.bus, func(ev world.PlayerDamaged) {
		hits = append(hits, ev)
	})

	event.Emit(f.bus, world.CombatStartAttack{AttackerID: mob.ID, TargetID: 1})
	f.pump() // intent becomes readable, combat buffers it
	f.combat.Update(200 * time.Millisecond)
	f.pump() // resulting damage event becomes readable

	require.Len(t, hits, 1, "a resolved swing always reports, hit or miss")
	require.Equal(t, world.PlayerID(1), hits[0].PlayerID)
	require.Equal(t, mob.ID, hits[0].Source)
	require.GreaterOrEqual(t, hits[0].Damage, 0)
	require.GreaterOrEqual(t, p.Health, 0)
	require.Equal(t, p.Health, hits[0].Health)
}

func TestIntentBufferDrainsOncePerTick(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})
	f.addPlayer(1, 5, world.Vec3{X: 1})

	var hits int
	event.Subscribe(f.bus, func(world.PlayerDamaged) { hits++ })

	event.Emit(f.bus, world.CombatStartAttack{AttackerID: mob.ID, TargetID: 1})
	f.pump()
	f.combat.Update(200 * time.Millisecond)
	f.combat.Update(200 * time.Millisecond) // buffer already drained
	f.pump()

	require.Equal(t, 1, hits)
}

func TestStaleIntentOutOfRangeIsDropped(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})
	p := f.addPlayer(1, 5, world.Vec3{X: 1})

	event.Emit(f.bus, world.CombatStartAttack{AttackerID: mob.ID, TargetID: 1})
	f.pump()
	// The target slipped away between commit and resolution.
	p.Position = world.Vec3{X: 50}

	var hits int
	event.Subscribe(f.bus, func(world.PlayerDamaged) { hits++ })
	f.combat.Update(200 * time.Millisecond)
	f.pump()

	require.Zero(t, hits)
	require.Equal(t, 100, p.Health)
}

func TestStaleIntentDeadAttackerIsDropped(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "highwayman", world.Vec3{})
	f.addPlayer(1, 5, world.Vec3{X: 1})

	event.Emit(f.bus, world.CombatStartAttack{AttackerID: mob.ID, TargetID: 1})
	f.pump()
	require.True(t, f.svc.KillMob(mob.ID))

	var hits int
	event.Subscribe(f.bus, func(world.PlayerDamaged) { hits++ })
	f.combat.Update(200 * time.Millisecond)
	f.pump()

	require.Zero(t, hits)
}

func TestPlayerHealthNeverNegative(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "revenant_knight", world.Vec3{})
	p := f.addPlayer(1, 3, world.Vec3{X: 1})
	p.Health = 1

	// Swing until something lands; health floors at zero.
	for i := 0; i < 100 && p.Health > 0; i++ {
		event.Emit(f.bus, world.CombatStartAttack{AttackerID: mob.ID, TargetID: 1})
		f.pump()
		f.combat.Update(200 * time.Millisecond)
		require.GreaterOrEqual(t, p.Health, 0)
	}
}

func TestResolvePlayerAttackFeedsDamagePath(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "goblin", world.Vec3{})
	f.addPlayer(1, 40, world.Vec3{X: 1})

	var reports []world.MobDamaged
	event.Subscribe(f.bus, func(ev world.MobDamaged) {
		reports = append(reports, ev)
	})

	require.True(t, f.combat.ResolvePlayerAttack(1, mob.ID))
	f.pump()

	require.Len(t, reports, 1)
	require.Equal(t, mob.ID, reports[0].MobID)
	require.Equal(t, world.PlayerID(1), reports[0].Source)
	// The service consumed the same event: health reflects the roll.
	require.Equal(t, mob.MaxHealth-reports[0].Damage, mob.Health)
}

func TestResolvePlayerAttackRejectsBadParticipants(t *testing.T) {
	f := newCombatFixture(t)
	mob := f.spawnConfirmed(t, "goblin", world.Vec3{})
	f.addPlayer(1, 40, world.Vec3{X: 1})

	require.False(t, f.combat.ResolvePlayerAttack(2, mob.ID), "unknown player")
	require.False(t, f.combat.ResolvePlayerAttack(1, 999), "unknown mob")

	require.True(t, f.svc.KillMob(mob.ID))
	require.False(t, f.combat.ResolvePlayerAttack(1, mob.ID), "dead mob")
}
