package world

// State is the authoritative registry of mobs and players. It is owned by
// the mob subsystem, injected into systems at boot, and accessed only from
// the game loop goroutine — no locks, single-writer per field.
type State struct {
	mobs    map[MobID]*MobInstance
	players map[PlayerID]*PlayerInfo
}

func NewState() *State {
	return &State{
		mobs:    make(map[MobID]*MobInstance, 1024),
		players: make(map[PlayerID]*PlayerInfo, 256),
	}
}

// ---------- Mobs ----------

func (s *State) AddMob(m *MobInstance) {
	s.mobs[m.ID] = m
}

func (s *State) RemoveMob(id MobID) bool {
	if _, ok := s.mobs[id]; !ok {
		return false
	}
	delete(s.mobs, id)
	return true
}

// Mob returns the mob with the given id, or nil.
func (s *State) Mob(id MobID) *MobInstance {
	return s.mobs[id]
}

// MobList returns all registered mobs in map-iteration order. No ordering
// guarantee is made between mobs within a tick.
func (s *State) MobList() []*MobInstance {
	out := make([]*MobInstance, 0, len(s.mobs))
	for _, m := range s.mobs {
		out = append(out, m)
	}
	return out
}

// EachMob iterates all mobs without allocating.
func (s *State) EachMob(fn func(*MobInstance)) {
	for _, m := range s.mobs {
		fn(m)
	}
}

// MobsInArea returns all mobs within radius of center (3D distance).
func (s *State) MobsInArea(center Vec3, radius float64) []*MobInstance {
	var out []*MobInstance
	for _, m := range s.mobs {
		if WithinRange(m.Position, center, radius) {
			out = append(out, m)
		}
	}
	return out
}

func (s *State) MobCount() int {
	return len(s.mobs)
}

// ---------- Players ----------

func (s *State) AddPlayer(p *PlayerInfo) {
	s.players[p.ID] = p
}

func (s *State) RemovePlayer(id PlayerID) {
	delete(s.players, id)
}

// Player returns the player with the given id, or nil. Mobs resolve their
// target through this lookup each tick; a disconnected player simply stops
// resolving, so no dangling reference can survive.
func (s *State) Player(id PlayerID) *PlayerInfo {
	return s.players[id]
}

func (s *State) EachPlayer(fn func(*PlayerInfo)) {
	for _, p := range s.players {
		fn(p)
	}
}

func (s *State) PlayerCount() int {
	return len(s.players)
}
