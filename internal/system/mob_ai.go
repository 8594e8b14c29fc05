package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// lowLevelAggroCap: mobs below this level ignore players more than twice
// their level, unless the archetype is flagged always-aggressive.
const lowLevelAggroCap = 15

// disengageFactor: an attacking mob gives chase again once the target moves
// beyond this multiple of its attack range.
const disengageFactor = 1.5

// homeArrivalRange: a returning mob counts as home within this distance.
const homeArrivalRange = 1.0

// CombatBridge is the mob AI's handle on the external combat resolver. The
// AI only ever asks to begin an engagement; it never computes damage.
type CombatBridge interface {
	StartCombat(attacker world.MobID, target world.PlayerID) bool
}

// MobAISystem drives the per-mob behavior state machine:
// idle → patrolling → chasing → attacking → returning, with dead set
// externally by the damage path. Each mob is re-evaluated at a fixed
// interval, not every frame, to bound cost with large populations.
// Phase 1 (Update).
type MobAISystem struct {
	svc    *MobService
	combat CombatBridge
	log    *zap.Logger

	interval       time.Duration
	patrolInterval time.Duration
	defaultChase   float64

	rng *rand.Rand
	now func() time.Time
}

func NewMobAISystem(svc *MobService, combat CombatBridge, cfg config.GameConfig, log *zap.Logger) *MobAISystem {
	return &MobAISystem{
		svc:            svc,
		combat:         combat,
		log:            log,
		interval:       cfg.AIInterval,
		patrolInterval: cfg.PatrolInterval,
		defaultChase:   cfg.MaxChaseDistance,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            time.Now,
	}
}

// SetClock overrides the system's time source.
func (s *MobAISystem) SetClock(now func() time.Time) { s.now = now }

// SetSeed makes patrol randomness reproducible.
func (s *MobAISystem) SetSeed(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }

func (s *MobAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MobAISystem) Update(_ time.Duration) {
	now := s.now()
	s.svc.State().EachMob(func(mob *world.MobInstance) {
		if !mob.Alive || mob.State == world.StateDead {
			return
		}

		// Combat-readiness gate: wait for the entity layer to confirm
		// registration, but never forever.
		if mob.Pending {
			if now.Before(mob.PendingDeadline) {
				return
			}
			s.log.Warn("entity registration unconfirmed, mob proceeding degraded",
				zap.Int64("mob", int64(mob.ID)),
				zap.String("archetype", mob.Archetype))
			mob.Pending = false
		}

		if now.Sub(mob.LastAI) < s.interval {
			return
		}
		mob.LastAI = now

		s.evaluate(mob, now)
	})
}

// evaluate runs exactly one state transition step for one mob. Bad spatial
// data skips the mob for this tick instead of taking the loop down.
func (s *MobAISystem) evaluate(mob *world.MobInstance, now time.Time) {
	if !mob.Position.IsFinite() {
		s.log.Warn("mob has invalid position, skipping AI evaluation",
			zap.Int64("mob", int64(mob.ID)),
			zap.String("state", mob.State.String()))
		return
	}

	switch mob.State {
	case world.StateIdle:
		s.tickIdle(mob, now)
	case world.StatePatrolling:
		s.tickPatrol(mob, now)
	case world.StateChasing:
		s.tickChase(mob)
	case world.StateAttacking:
		s.tickAttack(mob)
	case world.StateReturning:
		s.tickReturn(mob)
	}
}

func (s *MobAISystem) tickIdle(mob *world.MobInstance, now time.Time) {
	if mob.Aggressive {
		if target := s.findNearbyPlayer(mob); target != nil {
			s.startChase(mob, target)
			return
		}
	}
	if mob.WanderRadius > 0 {
		s.pickPatrolTarget(mob, now)
		mob.State = world.StatePatrolling
	}
}

func (s *MobAISystem) tickPatrol(mob *world.MobInstance, now time.Time) {
	if mob.Aggressive {
		if target := s.findNearbyPlayer(mob); target != nil {
			s.startChase(mob, target)
			return
		}
	}
	if now.Sub(mob.LastPatrolPick) >= s.patrolInterval {
		s.pickPatrolTarget(mob, now)
	}
	s.moveToward(mob, mob.PatrolTarget)
}

func (s *MobAISystem) tickChase(mob *world.MobInstance) {
	target := s.resolveTarget(mob)
	if target == nil {
		s.startReturn(mob)
		return
	}

	// Leash: home distance wins over target proximity, always.
	if world.Distance(mob.Position, mob.Home) > s.chaseRange(mob) {
		mob.TargetID = 0
		s.startReturn(mob)
		return
	}

	if world.Distance(mob.Position, target.Position) <= mob.AttackRange() {
		mob.State = world.StateAttacking
		s.tryAttack(mob, target)
		return
	}

	s.moveToward(mob, target.Position)
}

func (s *MobAISystem) tickAttack(mob *world.MobInstance) {
	target := s.resolveTarget(mob)
	if target == nil {
		mob.State = world.StateIdle
		return
	}

	if world.Distance(mob.Position, target.Position) > mob.AttackRange()*disengageFactor {
		mob.State = world.StateChasing
		return
	}

	s.tryAttack(mob, target)
}

func (s *MobAISystem) tickReturn(mob *world.MobInstance) {
	if world.Distance(mob.Position, mob.Home) <= homeArrivalRange {
		mob.State = world.StateIdle
		return
	}
	s.moveToward(mob, mob.Home)
}

// ---------- Perception ----------

// findNearbyPlayer scans connected players and returns the nearest
// qualifying target within aggro range. Low-level mobs skip players more
// than twice their level; always-aggressive archetypes skip the gate.
func (s *MobAISystem) findNearbyPlayer(mob *world.MobInstance) *world.PlayerInfo {
	var best *world.PlayerInfo
	bestDist := math.Inf(1)
	s.svc.State().EachPlayer(func(p *world.PlayerInfo) {
		if !p.Targetable() {
			return
		}
		d := world.Distance(mob.Position, p.Position)
		if d > mob.AggroRange || d >= bestDist {
			return
		}
		if s.levelGated(mob, p) {
			return
		}
		best = p
		bestDist = d
	})
	return best
}

func (s *MobAISystem) levelGated(mob *world.MobInstance, p *world.PlayerInfo) bool {
	if mob.AlwaysAggro {
		return false
	}
	return mob.Level < lowLevelAggroCap && p.CombatLevel > mob.Level*2
}

// resolveTarget looks the weak target reference up through the registry.
// A target that stopped resolving (disconnect, death, corrupted position)
// is cleared on the spot.
func (s *MobAISystem) resolveTarget(mob *world.MobInstance) *world.PlayerInfo {
	if mob.TargetID == 0 {
		return nil
	}
	p := s.svc.State().Player(mob.TargetID)
	if !p.Targetable() {
		mob.TargetID = 0
		return nil
	}
	return p
}

// ---------- Transitions ----------

func (s *MobAISystem) startChase(mob *world.MobInstance, target *world.PlayerInfo) {
	mob.TargetID = target.ID
	mob.State = world.StateChasing
	mob.HasPatrol = false
	s.log.Debug("mob aggro",
		zap.Int64("mob", int64(mob.ID)),
		zap.String("archetype", mob.Archetype),
		zap.Uint64("target", uint64(target.ID)))
}

func (s *MobAISystem) startReturn(mob *world.MobInstance) {
	mob.State = world.StateReturning
	mob.HasPatrol = false
}

func (s *MobAISystem) tryAttack(mob *world.MobInstance, target *world.PlayerInfo) {
	if !s.combat.StartCombat(mob.ID, target.ID) {
		return
	}
	event.Emit(s.svc.Bus(), world.CombatStartAttack{
		AttackerID: mob.ID,
		TargetID:   target.ID,
	})
}

func (s *MobAISystem) chaseRange(mob *world.MobInstance) float64 {
	if mob.ChaseRange > 0 {
		return mob.ChaseRange
	}
	return s.defaultChase
}

// ---------- Movement ----------

// pickPatrolTarget chooses a fresh random offset within the wander radius
// around home, uniform over the disc.
func (s *MobAISystem) pickPatrolTarget(mob *world.MobInstance, now time.Time) {
	angle := s.rng.Float64() * 2 * math.Pi
	r := mob.WanderRadius * math.Sqrt(s.rng.Float64())
	mob.PatrolTarget = world.Vec3{
		X: mob.Home.X + r*math.Cos(angle),
		Y: mob.Home.Y,
		Z: mob.Home.Z + r*math.Sin(angle),
	}
	mob.HasPatrol = true
	mob.LastPatrolPick = now
}

// moveToward steps the mob toward dest by at most one interval's worth of
// movement and publishes the new position. The position event fires at most
// once per evaluation, which caps it at once per tick per mob.
func (s *MobAISystem) moveToward(mob *world.MobInstance, dest world.Vec3) {
	if !dest.IsFinite() {
		return
	}
	step := mob.MoveSpeed * s.interval.Seconds()
	if step <= 0 {
		return
	}
	delta := dest.Sub(mob.Position)
	d := delta.Length()
	if d < 1e-9 {
		return
	}
	if d <= step {
		mob.Position = dest
	} else {
		mob.Position = mob.Position.Add(delta.Scale(step / d))
	}
	mob.PersistDirty = true
	event.Emit(s.svc.Bus(), world.MobPositionUpdated{
		MobID:    mob.ID,
		EntityID: mob.EntityID,
		Position: mob.Position,
	})
}
