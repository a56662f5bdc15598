package backup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/live-labs/confbak/internal/store"
)

func TestBuildPlanClassifiesEntries(t *testing.T) {
	fake := store.NewFake()
	fake.Seed(
		store.Entry{Key: "same", Value: map[string]any{"a": float64(1)}, Environment: "production"},
		store.Entry{Key: "changed", Value: map[string]any{"host": "old"}, Environment: "production"},
	)

	env := testEnvelope(
		store.Entry{Key: "same", Value: map[string]any{"a": float64(1)}, Environment: "production"},
		store.Entry{Key: "changed", Value: map[string]any{"host": "new"}, Environment: "production"},
		store.Entry{Key: "fresh", Value: "v", Environment: "production"},
	)

	plan, err := BuildPlan(context.Background(), fake, env)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Unchanged)
	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "fresh", plan.ToCreate[0].Key)
	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, "changed", plan.ToUpdate[0].Key)
	assert.Empty(t, plan.Errors)

	diff := plan.ToUpdate[0].Diff
	assert.Contains(t, diff, "--- live/changed")
	assert.Contains(t, diff, "+++ backup/changed")
	assert.NotEmpty(t, diff)
}

func TestBuildPlanSameKeyDifferentEnvironments(t *testing.T) {
	fake := store.NewFake()
	fake.Seed(store.Entry{Key: "db", Value: "v", Environment: "production"})

	env := testEnvelope(
		store.Entry{Key: "db", Value: "v", Environment: "production"},
		store.Entry{Key: "db", Value: "v", Environment: "staging"},
	)

	plan, err := BuildPlan(context.Background(), fake, env)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Unchanged)
	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "staging", plan.ToCreate[0].Environment)
}

func TestValueDiffEqualValues(t *testing.T) {
	diff, err := valueDiff("k", map[string]any{"a": 1}, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Empty(t, diff)
}
