package system

import (
	"time"

	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/scripting"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// CombatSystem is the external combat resolver the mob AI hands intents to.
// Hit chance and damage come from the Lua formulas; the AI layer never
// touches either. Registered after the AI system within Update phase so an
// intent buffered at dispatch resolves the same tick it becomes readable.
type CombatSystem struct {
	svc    *MobService
	engine *scripting.Engine
	log    *zap.Logger

	intents []world.CombatStartAttack
}

func NewCombatSystem(svc *MobService, engine *scripting.Engine, log *zap.Logger) *CombatSystem {
	s := &CombatSystem{
		svc:    svc,
		engine: engine,
		log:    log,
	}
	event.Subscribe(svc.Bus(), func(ev world.CombatStartAttack) {
		s.intents = append(s.intents, ev)
	})
	return s
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CombatSystem) Update(_ time.Duration) {
	for _, intent := range s.intents {
		s.resolveMobAttack(intent)
	}
	s.intents = s.intents[:0]
}

// StartCombat implements CombatBridge. False when either side is not yet a
// first-class world entity (mob entity unconfirmed, player unresolvable).
func (s *CombatSystem) StartCombat(attacker world.MobID, target world.PlayerID) bool {
	mob := s.svc.GetMob(attacker)
	if mob == nil || !mob.Alive || mob.Pending {
		return false
	}
	return s.svc.State().Player(target).Targetable()
}

// resolveMobAttack resolves one buffered mob→player intent. Intents are a
// tick old by the time they arrive, so every precondition is re-checked.
func (s *CombatSystem) resolveMobAttack(intent world.CombatStartAttack) {
	mob := s.svc.GetMob(intent.AttackerID)
	if mob == nil || !mob.Alive {
		return
	}
	target := s.svc.State().Player(intent.TargetID)
	if !target.Targetable() {
		return
	}
	// Stale intent: the target slipped away since the AI committed.
	if world.Distance(mob.Position, target.Position) > mob.AttackRange()*disengageFactor {
		return
	}

	res := s.engine.ResolveAttack(scripting.AttackContext{
		AttackerLevel:    mob.Level,
		AttackerAttack:   mob.Stats.Attack,
		AttackerStrength: mob.Stats.Strength,
		AttackerRanged:   mob.Stats.Ranged,
		TargetLevel:      target.CombatLevel,
		TargetDefense:    target.Defense,
		Ranged:           mob.Weapon == world.WeaponRanged,
	})

	if res.Damage > 0 {
		target.Health -= res.Damage
		if target.Health < 0 {
			target.Health = 0
		}
	}
	event.Emit(s.svc.Bus(), world.PlayerDamaged{
		PlayerID: target.ID,
		Damage:   res.Damage,
		Source:   mob.ID,
		Health:   target.Health,
	})

	if target.Health == 0 {
		s.log.Info("player downed by mob",
			zap.Uint64("player", uint64(target.ID)),
			zap.Int64("mob", int64(mob.ID)),
			zap.String("archetype", mob.Archetype))
	}
}

// ResolvePlayerAttack is the host-facing entry for a player swing at a mob.
// The scripted formulas decide the outcome and the damage flows back into
// the mob subsystem as an event, same as any other source.
func (s *CombatSystem) ResolvePlayerAttack(playerID world.PlayerID, mobID world.MobID) bool {
	player := s.svc.State().Player(playerID)
	if !player.Targetable() {
		return false
	}
	mob := s.svc.GetMob(mobID)
	if mob == nil || !mob.Alive || mob.Pending {
		return false
	}

	res := s.engine.ResolveAttack(scripting.AttackContext{
		AttackerLevel:    player.CombatLevel,
		AttackerAttack:   player.Attack,
		AttackerStrength: player.Strength,
		TargetLevel:      mob.Level,
		TargetDefense:    mob.Stats.Defense,
	})
	event.Emit(s.svc.Bus(), world.MobDamaged{
		MobID:  mobID,
		Damage: res.Damage,
		Source: playerID,
	})
	return true
}
