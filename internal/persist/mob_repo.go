package persist

import (
	"context"
	"fmt"
	"time"
)

// MobSnapshot is one row of persisted mob state.
type MobSnapshot struct {
	MobID     int64
	Archetype string
	X         float64
	Y         float64
	Z         float64
	Health    int
	Alive     bool
	State     string
	SavedAt   time.Time
}

type MobRepo struct {
	db *DB
}

func NewMobRepo(db *DB) *MobRepo {
	return &MobRepo{db: db}
}

// SaveMobs upserts a batch of snapshots in a single transaction.
func (r *MobRepo) SaveMobs(ctx context.Context, snaps []MobSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range snaps {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mob_snapshots (mob_id, archetype, x, y, z, health, alive, state, saved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (mob_id) DO UPDATE SET
			   archetype = EXCLUDED.archetype,
			   x = EXCLUDED.x, y = EXCLUDED.y, z = EXCLUDED.z,
			   health = EXCLUDED.health, alive = EXCLUDED.alive,
			   state = EXCLUDED.state, saved_at = EXCLUDED.saved_at`,
			s.MobID, s.Archetype, s.X, s.Y, s.Z, s.Health, s.Alive, s.State, s.SavedAt,
		); err != nil {
			return fmt.Errorf("snapshot insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadAll returns every saved snapshot, newest first.
func (r *MobRepo) LoadAll(ctx context.Context) ([]MobSnapshot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT mob_id, archetype, x, y, z, health, alive, state, saved_at
		 FROM mob_snapshots
		 ORDER BY saved_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MobSnapshot
	for rows.Next() {
		var s MobSnapshot
		if err := rows.Scan(&s.MobID, &s.Archetype, &s.X, &s.Y, &s.Z,
			&s.Health, &s.Alive, &s.State, &s.SavedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Prune deletes snapshots older than the cutoff.
func (r *MobRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM mob_snapshots WHERE saved_at < $1`, before,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
