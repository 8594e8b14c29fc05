package world

// PlayerInfo is the mob subsystem's view of a connected player: just enough
// to drive perception, targeting, and combat resolution. The full player
// record lives with the session/handler layer.
type PlayerInfo struct {
	ID          PlayerID
	Name        string
	CombatLevel int
	Attack      int
	Strength    int
	Defense     int
	Position    Vec3
	Health      int
	MaxHealth   int
	Connected   bool
}

// Targetable reports whether a mob may keep or acquire this player as a
// target: connected, alive, and carrying a sane position.
func (p *PlayerInfo) Targetable() bool {
	return p != nil && p.Connected && p.Health > 0 && p.Position.IsFinite()
}
