package world

import "github.com/runevale/server/internal/core/ecs"

// Typed event payloads for the simulation bus. Each cross-system effect has
// exactly one variant here; string-keyed dispatch is deliberately absent.

// MobSpawnRequest asks the entity layer to create a render/network entity
// for a mob. Emitted on initial spawn and again on every respawn.
type MobSpawnRequest struct {
	MobID     MobID
	Archetype string
	Level     int
	Position  Vec3
}

// MobSpawned confirms the entity layer has registered the mob's entity.
type MobSpawned struct {
	MobID    MobID
	EntityID ecs.EntityID
	Position Vec3
}

// MobDamaged applies damage to a mob. Combat resolution emits it; the mob
// subsystem is its only consumer and the only writer of mob health.
type MobDamaged struct {
	MobID  MobID
	Damage int
	Source PlayerID
}

// MobDied fires exactly once per death and feeds the loot pipeline.
type MobDied struct {
	MobID    MobID
	KilledBy PlayerID
	Position Vec3
}

// MobDespawn tells the entity layer to remove a mob's entity immediately.
// Emitted on every death (natural or forced) and on administrative despawn.
type MobDespawn struct {
	MobID    MobID
	EntityID ecs.EntityID
	Position Vec3
}

// CombatStartAttack is the mob AI's attack intent. The combat system
// resolves hit chance and damage; the AI never computes damage itself.
type CombatStartAttack struct {
	AttackerID MobID
	TargetID   PlayerID
}

// MobPositionUpdated syncs mob movement to the entity/network layer.
// Emitted at most once per tick per mob, only when the position changed.
type MobPositionUpdated struct {
	MobID    MobID
	EntityID ecs.EntityID
	Position Vec3
}

// PlayerDamaged reports combat-resolved damage against a player, for the
// host's network layer to forward.
type PlayerDamaged struct {
	PlayerID PlayerID
	Damage   int
	Source   MobID
	Health   int
}

// PlayerDisconnected lets the mob subsystem clear targets and threat for a
// player that left.
type PlayerDisconnected struct {
	PlayerID PlayerID
}
