package system

import "github.com/runevale/server/internal/world"

// AddThreat accumulates damage-based threat and keeps the mob's target on
// the highest contributor. Only switches an existing target; acquiring a
// target from scratch goes through aggro perception, so the level gate is
// never bypassed by chip damage. Game loop single-threaded, no locks.
func AddThreat(mob *world.MobInstance, player world.PlayerID, damage int) {
	if damage <= 0 || player == 0 {
		return
	}
	if mob.Threat == nil {
		mob.Threat = make(map[world.PlayerID]int)
	}
	mob.Threat[player] += damage

	if mob.TargetID == 0 || mob.TargetID == player {
		return
	}
	if mob.Threat[player] > mob.Threat[mob.TargetID] {
		mob.TargetID = player
	}
}

// MaxThreatTarget returns the player with the highest accumulated threat,
// or 0 if the table is empty. Used for re-selection when the current target
// drops out.
func MaxThreatTarget(mob *world.MobInstance) world.PlayerID {
	var best world.PlayerID
	max := -1
	for pid, threat := range mob.Threat {
		if threat > max {
			max = threat
			best = pid
		}
	}
	return best
}

// RemoveThreat drops one player from the table (disconnect, out of range).
func RemoveThreat(mob *world.MobInstance, player world.PlayerID) {
	if mob.Threat != nil {
		delete(mob.Threat, player)
	}
}

// ClearThreat empties the table (death, respawn, despawn).
func ClearThreat(mob *world.MobInstance) {
	mob.Threat = nil
}
