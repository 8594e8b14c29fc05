package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MobArchetype holds static data for a mob type loaded from YAML.
type MobArchetype struct {
	Key          string  `yaml:"key"`
	Name         string  `yaml:"name"`
	Level        int     `yaml:"level"`
	Attack       int     `yaml:"attack"`
	Strength     int     `yaml:"strength"`
	Defense      int     `yaml:"defense"`
	Constitution int     `yaml:"constitution"`
	Ranged       int     `yaml:"ranged"`
	Aggressive   bool    `yaml:"aggressive"`
	AlwaysAggro  bool    `yaml:"always_aggro"` // elite types: ignore the level gate
	AggroRange   float64 `yaml:"aggro_range"`
	ChaseRange   float64 `yaml:"chase_range"` // leash distance, 0 = global default
	WanderRadius float64 `yaml:"wander_radius"`
	MoveSpeed    float64 `yaml:"move_speed"` // world units per second
	Weapon       string  `yaml:"weapon"`     // "melee" or "ranged"
	LootTable    string  `yaml:"loot_table"`
	RespawnSecs  int     `yaml:"respawn_secs"` // 0 = global default
}

type mobListFile struct {
	Mobs []MobArchetype `yaml:"mobs"`
}

// MobTable holds all mob archetypes indexed by key.
type MobTable struct {
	archetypes map[string]*MobArchetype
}

// LoadMobTable loads mob archetypes from a YAML file.
func LoadMobTable(path string) (*MobTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mob_list: %w", err)
	}
	var f mobListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse mob_list: %w", err)
	}
	t := &MobTable{archetypes: make(map[string]*MobArchetype, len(f.Mobs))}
	for i := range f.Mobs {
		a := &f.Mobs[i]
		if a.Key == "" {
			return nil, fmt.Errorf("mob_list: archetype %d has no key", i)
		}
		t.archetypes[a.Key] = a
	}
	return t, nil
}

// NewMobTable builds a table from in-memory archetypes. Used by tests and
// embedded hosts that bypass YAML loading.
func NewMobTable(archetypes []MobArchetype) *MobTable {
	t := &MobTable{archetypes: make(map[string]*MobArchetype, len(archetypes))}
	for i := range archetypes {
		t.archetypes[archetypes[i].Key] = &archetypes[i]
	}
	return t
}

// Get returns a mob archetype by key, or nil if not found.
func (t *MobTable) Get(key string) *MobArchetype {
	return t.archetypes[key]
}

// Count returns the number of loaded archetypes.
func (t *MobTable) Count() int {
	return len(t.archetypes)
}
