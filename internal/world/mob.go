package world

import (
	"sync/atomic"
	"time"

	"github.com/runevale/server/internal/core/ecs"
)

// MobID identifies one mob instance for its whole lifecycle, across deaths
// and respawns. Render entities come and go; the MobID does not.
type MobID int64

// PlayerID identifies a connected player. Mobs hold it as a weak reference
// only — resolved through the State registry every tick, never as a pointer.
type PlayerID uint64

// mobIDCounter generates unique mob instance IDs.
var mobIDCounter atomic.Int64

// NextMobID returns a unique id for a mob instance.
func NextMobID() MobID {
	return MobID(mobIDCounter.Add(1))
}

// AIState is the per-mob behavior machine state.
type AIState int

const (
	StateIdle AIState = iota
	StatePatrolling
	StateChasing
	StateAttacking
	StateReturning
	StateDead
)

func (s AIState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrolling:
		return "patrolling"
	case StateChasing:
		return "chasing"
	case StateAttacking:
		return "attacking"
	case StateReturning:
		return "returning"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// WeaponKind determines a mob's attack range.
type WeaponKind int

const (
	WeaponMelee WeaponKind = iota
	WeaponRanged
)

// Attack ranges by weapon kind, in world units.
const (
	MeleeAttackRange  = 2.0
	RangedAttackRange = 8.0
)

// Stats is the flat integer stat block used by AI and combat formulas.
type Stats struct {
	Attack       int
	Strength     int
	Defense      int
	Constitution int
	Ranged       int
}

// MobInstance holds all runtime data for one mob. Owned exclusively by the
// mob subsystem and accessed only from the game loop goroutine — no locks.
// Other systems affect it through events, never by direct mutation.
type MobInstance struct {
	ID        MobID
	Archetype string
	Name      string
	Level     int

	Position      Vec3
	Home          Vec3 // spawn anchor, never changes after spawn
	SpawnLocation Vec3 // respawn target, never changes after spawn
	AggroRange    float64
	ChaseRange    float64 // leash distance from Home, 0 = system default
	WanderRadius  float64
	MoveSpeed     float64 // world units per second

	Health    int
	MaxHealth int // Constitution × 10
	Alive     bool

	Aggressive   bool
	AlwaysAggro  bool // bypasses the low-level aggro gate entirely
	State        AIState
	TargetID     PlayerID  // 0 = no target
	LastAI       time.Time // last state evaluation

	Weapon       WeaponKind
	LootTable    string
	RespawnDelay time.Duration

	Stats Stats

	// Threat aggregates damage contributions per attacker. The chase target
	// follows the highest accumulated threat.
	Threat map[PlayerID]int

	// EntityID is the render/network entity handle, zero until the entity
	// layer confirms registration.
	EntityID ecs.EntityID

	// Pending marks a mob whose entity registration has been requested but
	// not yet confirmed. Combat is gated on confirmation; after the deadline
	// the mob proceeds degraded instead of hanging.
	Pending         bool
	PendingDeadline time.Time

	// Patrol bookkeeping.
	PatrolTarget   Vec3
	HasPatrol      bool
	LastPatrolPick time.Time

	// PersistDirty marks the snapshot as stale for the persistence batch.
	PersistDirty bool
}

// AttackRange returns the engagement distance for this mob's weapon.
func (m *MobInstance) AttackRange() float64 {
	if m.Weapon == WeaponRanged {
		return RangedAttackRange
	}
	return MeleeAttackRange
}
