package registry

import (
	"testing"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(logger.New(logger.Config{Level: "error"}))
}

func TestResolveSpecificityScoring(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(domain.RegisteredParameter{
		Key:  "craftingCostGold",
		Type: "cost",
		Scope: &domain.Scope{
			System:   "crafting",
			Currency: "gold",
		},
	}))
	require.NoError(t, r.Register(domain.RegisteredParameter{
		Key:  "craftingEntryCostGold",
		Type: "cost",
		Scope: &domain.Scope{
			System:   "crafting",
			Currency: "gold",
			Tags:     []string{"entry"},
		},
	}))

	// Tagged query: the tagged candidate scores 10+5+3=18 vs 15.
	got := r.Resolve("cost", &domain.Scope{
		System:   "crafting",
		Currency: "gold",
		Tags:     []string{"entry"},
	})
	require.NotNil(t, got)
	assert.Equal(t, "craftingEntryCostGold", got.Key)

	// Untagged query: both score 15 (tag fields ignored when one side has
	// none), registration order breaks the tie.
	got = r.Resolve("cost", &domain.Scope{System: "crafting", Currency: "gold"})
	require.NotNil(t, got)
	assert.Equal(t, "craftingCostGold", got.Key)
}

func TestResolveDisqualifiesContradictions(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(domain.RegisteredParameter{
		Key:   "gemSinkRate",
		Type:  "cost",
		Scope: &domain.Scope{Currency: "gems"},
	}))

	assert.Nil(t, r.Resolve("cost", &domain.Scope{Currency: "gold"}))
	assert.Nil(t, r.Resolve("reward", &domain.Scope{Currency: "gems"}))

	got := r.Resolve("cost", &domain.Scope{Currency: "gems"})
	require.NotNil(t, got)
	assert.Equal(t, "gemSinkRate", got.Key)
}

func TestResolvePriorityTiebreak(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "a", Type: "reward"}))
	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "b", Type: "reward", Priority: 5}))

	got := r.Resolve("reward", nil)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.Key)
}

func TestResolveDeterministic(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "first", Type: "fee"}))

	for i := 0; i < 50; i++ {
		got := r.Resolve("fee", nil)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Key)
	}
}

func TestCurrentValueTracking(t *testing.T) {
	r := newTestRegistry(t)
	v := 100.0
	require.NoError(t, r.Register(domain.RegisteredParameter{
		Key:          "craftingCost",
		Type:         "cost",
		FlowImpact:   domain.FlowSink,
		CurrentValue: &v,
	}))

	got, ok := r.CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 100.0, got)

	r.SetCurrentValue("craftingCost", 115.0)
	got, ok = r.CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 115.0, got)

	_, ok = r.CurrentValue("unknown")
	assert.False(t, ok)
}

func TestValidateReportsAmbiguityAndMissingFlowImpact(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "a", Type: "cost", FlowImpact: domain.FlowSink}))
	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "b", Type: "cost"}))

	report := r.Validate()
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "unscoped")
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "flowImpact")
}

func TestGetFlowImpact(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.RegisteredParameter{Key: "dailyReward", Type: "reward", FlowImpact: domain.FlowFaucet}))

	impact, ok := r.GetFlowImpact("dailyReward")
	assert.True(t, ok)
	assert.Equal(t, domain.FlowFaucet, impact)

	_, ok = r.GetFlowImpact("missing")
	assert.False(t, ok)
}
