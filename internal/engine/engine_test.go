package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func newTestEngine(t *testing.T, mode domain.EngineMode) *Engine {
	t.Helper()
	return New(Config{
		Mode:           mode,
		SimulationSeed: 42,
	}, logger.New(logger.Config{Level: "error"}))
}

func registerCraftingCost(t *testing.T, e *Engine) {
	t.Helper()
	current := 100.0
	require.NoError(t, e.Registry().Register(domain.RegisteredParameter{
		Key:          "craftingCost",
		Type:         "cost",
		FlowImpact:   domain.FlowSink,
		CurrentValue: &current,
	}))
}

// economyState builds a 20-agent single-currency snapshot.
func economyState(tick int, satisfaction float64) *domain.EconomyState {
	balances := make(map[string]map[string]float64, 20)
	roles := make(map[string]string, 20)
	sats := make(map[string]float64, 20)
	roleNames := []string{"gatherer", "crafter", "trader"}
	for i := 0; i < 20; i++ {
		agent := fmt.Sprintf("a%02d", i+1)
		balances[agent] = map[string]float64{"gold": 45 + float64(i)*0.5}
		roles[agent] = roleNames[i%3]
		sats[agent] = satisfaction
	}

	return &domain.EconomyState{
		Tick:              tick,
		Currencies:        []string{"gold"},
		Roles:             roleNames,
		AgentBalances:     balances,
		AgentRoles:        roles,
		AgentSatisfaction: sats,
		MarketPrices:      map[string]map[string]float64{"gold": {"wheat": 2}},
	}
}

// economyEvents books burn 35 and consume 30 as sinks, so mint 70 yields
// a mild net flow of 5 and mint 80 an inflationary 15.
func economyEvents(mintAmount float64) []domain.EconomicEvent {
	return []domain.EconomicEvent{
		{Type: domain.EventMint, Actor: "a03", Currency: "gold", Amount: mintAmount},
		{Type: domain.EventBurn, Actor: "a04", Currency: "gold", Amount: 35},
		{Type: domain.EventConsume, Actor: "a05", Currency: "gold", Amount: 30},
		{Type: domain.EventProduce, Actor: "a06", Resource: "wheat", Amount: 30},
		{Type: domain.EventTrade, Actor: "a07", Currency: "gold", Amount: 50},
		{Type: domain.EventTrade, Actor: "a08", Currency: "gold", Amount: 50},
	}
}

func latestEntry(t *testing.T, e *Engine) *domain.DecisionEntry {
	t.Helper()
	entries := e.Decisions().Latest(1)
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestHealthyTickStaysQuiet(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	result, err := e.ProcessTick(economyState(100, 80), economyEvents(70))
	require.NoError(t, err)

	assert.Equal(t, 100, result.Tick)
	assert.Empty(t, result.Alerts)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, 100.0, result.Health)
	assert.Equal(t, 0, e.Decisions().Len())
}

func TestInflationTriggersCostIncrease(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	result, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)

	require.NotEmpty(t, result.Alerts)
	assert.Equal(t, "P12", result.Alerts[0].PrincipleID)

	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, "craftingCost", result.Adjustments[0].Key)
	assert.InDelta(t, 115, result.Adjustments[0].Value, 1e-9)

	entry := latestEntry(t, e)
	assert.Equal(t, domain.ResultApplied, entry.Result)
	require.NotNil(t, entry.Plan)
	assert.Equal(t, 115.0, entry.Plan.TargetValue)
	require.NotNil(t, entry.Diagnosis)
	assert.Equal(t, "P12", entry.Diagnosis.Principle.ID)

	value, ok := e.Registry().CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 115.0, value)
	assert.Equal(t, 1, e.Status().ActivePlans)
}

func TestGracePeriodSuppressesAction(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	result, err := e.ProcessTick(economyState(10, 80), economyEvents(80))
	require.NoError(t, err)

	require.NotEmpty(t, result.Alerts)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, domain.ResultSkippedGracePeriod, latestEntry(t, e).Result)
}

func TestCooldownSuppressesRepeatAdjustment(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	first, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)
	require.Len(t, first.Adjustments, 1)

	second, err := e.ProcessTick(economyState(105, 80), economyEvents(80))
	require.NoError(t, err)

	assert.Empty(t, second.Adjustments)
	assert.Equal(t, domain.ResultSkippedCooldown, latestEntry(t, e).Result)
}

func TestRollbackRestoresOriginalValue(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	_, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)
	require.Equal(t, 1, e.Status().ActivePlans)

	// Satisfaction collapses below the floor by the rollback checkpoint
	// (applied at 100, estimated lag 10).
	result, err := e.ProcessTick(economyState(110, 40), economyEvents(80))
	require.NoError(t, err)

	var restored *domain.Adjustment
	for i := range result.Adjustments {
		if result.Adjustments[i].Key == "craftingCost" && result.Adjustments[i].Value == 100 {
			restored = &result.Adjustments[i]
		}
	}
	require.NotNil(t, restored, "expected a restoring adjustment for craftingCost")

	var rolledBack *domain.DecisionEntry
	for _, entry := range e.Decisions().Latest(5) {
		if entry.Result == domain.ResultRolledBack {
			rolledBack = entry
		}
	}
	require.NotNil(t, rolledBack)
	require.NotNil(t, rolledBack.MetricsSnapshot, "rollback entries carry the triggering metrics")
	assert.Equal(t, 110, rolledBack.MetricsSnapshot.Tick)
	assert.Equal(t, 40.0, rolledBack.MetricsSnapshot.AvgSatisfaction)
	assert.Equal(t, 0, e.Status().ActivePlans)

	value, ok := e.Registry().CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 100.0, value)
}

func TestPlanSettlesWhenMetricHolds(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	_, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)

	// Past checkAfterTick (110) plus the settle grace window, with
	// satisfaction healthy the whole way.
	_, err = e.ProcessTick(economyState(125, 80), economyEvents(70))
	require.NoError(t, err)

	assert.Equal(t, 0, e.Status().ActivePlans)
	var settled *domain.DecisionEntry
	for _, entry := range e.Decisions().Latest(5) {
		if entry.Result == domain.ResultSettled {
			settled = entry
		}
	}
	require.NotNil(t, settled)
	require.NotNil(t, settled.MetricsSnapshot)
	assert.Equal(t, 125, settled.MetricsSnapshot.Tick)
}

func TestAdvisorModeRecordsWithoutApplying(t *testing.T) {
	e := newTestEngine(t, domain.ModeAdvisor)
	registerCraftingCost(t, e)

	result, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)

	assert.Empty(t, result.Adjustments)
	entry := latestEntry(t, e)
	assert.Equal(t, domain.ResultSkippedAdvisor, entry.Result)
	require.NotNil(t, entry.Plan)
	assert.Equal(t, 115.0, entry.Plan.TargetValue)

	value, ok := e.Registry().CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 100.0, value)

	// Advisor decisions leave no cooldown stamp: switching to autonomous
	// applies on the very next tick.
	require.NoError(t, e.Configure(ConfigUpdate{Mode: "autonomous"}))
	next, err := e.ProcessTick(economyState(101, 80), economyEvents(80))
	require.NoError(t, err)
	require.Len(t, next.Adjustments, 1)
	assert.Equal(t, domain.ResultApplied, latestEntry(t, e).Result)
}

type failingAdapter struct{}

func (failingAdapter) GetState() (*domain.EconomyState, error) {
	return nil, fmt.Errorf("no state")
}

func (failingAdapter) SetParam(key string, value float64, scope *domain.Scope) error {
	return fmt.Errorf("host rejected %s", key)
}

func TestAdapterFailureIsContained(t *testing.T) {
	e := New(Config{
		Mode:           domain.ModeAutonomous,
		SimulationSeed: 42,
		Adapter:        failingAdapter{},
	}, logger.New(logger.Config{Level: "error"}))
	registerCraftingCost(t, e)

	result, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err, "a failing adapter must not abort the tick")

	assert.Empty(t, result.Adjustments)
	assert.NotEmpty(t, result.Alerts)
	entry := latestEntry(t, e)
	assert.Equal(t, domain.ResultApplyFailed, entry.Result)
	assert.Contains(t, entry.Reasoning, "host rejected")
	assert.Equal(t, 0, e.Status().ActivePlans)
}

func TestInvalidStateIsRejected(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)

	_, err := e.ProcessTick(&domain.EconomyState{Tick: 5}, nil)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Result.Errors)

	// Nothing was recorded for the rejected tick.
	assert.Equal(t, 0, e.Decisions().Len())
	assert.Equal(t, 0, e.Status().Tick)
}

func TestInvalidEventsBecomeWarnings(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)

	events := append(economyEvents(70), domain.EconomicEvent{Type: "teleport", Amount: 5})
	result, err := e.ProcessTick(economyState(100, 80), events)
	require.NoError(t, err)
	require.NotEmpty(t, result.ValidationWarnings)
	assert.Contains(t, result.ValidationWarnings[0], "dropped")
}

func TestDiagnoseHasNoSideEffects(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	res, err := e.Diagnose(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnoses)
	assert.Equal(t, "P12", res.Diagnoses[0].Principle.ID)

	assert.Equal(t, 0, e.Decisions().Len())
	assert.Equal(t, 0, e.Status().Tick)
	assert.Equal(t, 0, e.Status().ActivePlans)
	value, ok := e.Registry().CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 100.0, value)
}

func TestBufferedEventsJoinNextTick(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	// A buffered mint pushes the otherwise mild net flow past the warn
	// threshold.
	require.NoError(t, e.BufferEvent(domain.EconomicEvent{
		Type: domain.EventMint, Actor: "a09", Currency: "gold", Amount: 10,
	}))

	result, err := e.ProcessTick(economyState(100, 80), economyEvents(70))
	require.NoError(t, err)
	require.NotEmpty(t, result.Alerts)
	assert.Equal(t, "P12", result.Alerts[0].PrincipleID)

	// The buffer drains; a repeat tick without it is quiet again.
	next, err := e.ProcessTick(economyState(120, 80), economyEvents(70))
	require.NoError(t, err)
	assert.Empty(t, next.Alerts)
}

func TestBufferRejectsInvalidEvent(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	require.Error(t, e.BufferEvent(domain.EconomicEvent{Type: "warp"}))
}

func TestConfigureLocksParameter(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	require.NoError(t, e.Configure(ConfigUpdate{Lock: []string{"craftingCost"}}))
	result, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, domain.ResultSkippedLocked, latestEntry(t, e).Result)

	require.NoError(t, e.Configure(ConfigUpdate{Unlock: []string{"craftingCost"}}))
	next, err := e.ProcessTick(economyState(120, 80), economyEvents(80))
	require.NoError(t, err)
	assert.Len(t, next.Adjustments, 1)
}

func TestConfigureConstraintCapsTarget(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	registerCraftingCost(t, e)

	require.NoError(t, e.Configure(ConfigUpdate{
		Constrain: []ConstraintUpdate{{Param: "craftingCost", Min: 90, Max: 110}},
	}))
	result, err := e.ProcessTick(economyState(100, 80), economyEvents(80))
	require.NoError(t, err)
	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, 110.0, result.Adjustments[0].Value)
}

func TestConfigureRejectsBadInput(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	assert.Error(t, e.Configure(ConfigUpdate{Mode: "manual"}))
	assert.Error(t, e.Configure(ConfigUpdate{Constrain: []ConstraintUpdate{{Param: "", Min: 0, Max: 1}}}))
	assert.Error(t, e.Configure(ConfigUpdate{Constrain: []ConstraintUpdate{{Param: "x", Min: 2, Max: 1}}}))
}

func TestStatusTracksLatestTick(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)

	_, err := e.ProcessTick(economyState(100, 80), economyEvents(70))
	require.NoError(t, err)

	status := e.Status()
	assert.Equal(t, 100, status.Tick)
	assert.Equal(t, domain.ModeAutonomous, status.Mode)
	assert.Equal(t, 100.0, status.Health)
	assert.GreaterOrEqual(t, status.Uptime, 0.0)
}

func TestPullTickRequiresAdapter(t *testing.T) {
	e := newTestEngine(t, domain.ModeAutonomous)
	_, err := e.PullTick()
	require.Error(t, err)
}
