package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LootDrop represents a single possible drop from a loot table.
type LootDrop struct {
	ItemID int32  `yaml:"item_id"`
	Name   string `yaml:"name"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
	Chance int    `yaml:"chance"` // out of 1,000,000 (100% = 1000000)
}

type lootTableEntry struct {
	Table string     `yaml:"table"`
	Items []LootDrop `yaml:"items"`
}

type lootListFile struct {
	Tables []lootTableEntry `yaml:"tables"`
}

// LootTable holds all drop lists indexed by loot table key.
type LootTable struct {
	tables map[string][]LootDrop
}

// LoadLootTable loads loot data from a YAML file.
func LoadLootTable(path string) (*LootTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot_list: %w", err)
	}
	var f lootListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot_list: %w", err)
	}
	t := &LootTable{tables: make(map[string][]LootDrop, len(f.Tables))}
	for _, entry := range f.Tables {
		t.tables[entry.Table] = entry.Items
	}
	return t, nil
}

// NewLootTable builds a table from in-memory drop lists. Used by tests.
func NewLootTable(tables map[string][]LootDrop) *LootTable {
	return &LootTable{tables: tables}
}

// Get returns the drop list for a loot table key, or nil if none defined.
func (t *LootTable) Get(key string) []LootDrop {
	return t.tables[key]
}

// Count returns the number of loot tables.
func (t *LootTable) Count() int {
	return len(t.tables)
}
