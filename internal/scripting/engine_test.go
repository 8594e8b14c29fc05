package scripting

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestResolveAttackDamageNeverNegative(t *testing.T) {
	e := newTestEngine(t)

	ctx := AttackContext{
		AttackerLevel:    5,
		AttackerAttack:   4,
		AttackerStrength: 6,
		TargetLevel:      3,
		TargetDefense:    2,
	}
	for i := 0; i < 200; i++ {
		res := e.ResolveAttack(ctx)
		require.GreaterOrEqual(t, res.Damage, 0)
		if !res.Hit {
			require.Zero(t, res.Damage, "a miss deals no damage")
		}
	}
}

func TestResolveAttackOverwhelmingAttackerHits(t *testing.T) {
	e := newTestEngine(t)

	// Accuracy far above evasion clamps hit chance at 95%; over many rolls
	// at least one must land and max damage scales with strength.
	ctx := AttackContext{
		AttackerLevel:    99,
		AttackerAttack:   99,
		AttackerStrength: 99,
		TargetLevel:      1,
		TargetDefense:    1,
	}
	hits := 0
	for i := 0; i < 100; i++ {
		if e.ResolveAttack(ctx).Hit {
			hits++
		}
	}
	require.Greater(t, hits, 50)
}

func TestResolveAttackMissingScriptIsAMiss(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	res := e.ResolveAttack(AttackContext{AttackerLevel: 10})
	require.False(t, res.Hit)
	require.Zero(t, res.Damage)
}
