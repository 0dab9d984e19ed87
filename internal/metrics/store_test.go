package metrics

import (
	"math"
	"testing"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(cfg Config) *Store {
	return NewStore(cfg, logger.New(logger.Config{Level: "error"}))
}

func sample(tick int, satisfaction float64) *domain.EconomyMetrics {
	return &domain.EconomyMetrics{
		Tick:            tick,
		TotalSupply:     1000,
		NetFlow:         5,
		AvgSatisfaction: satisfaction,
		NetFlowByCurrency: map[string]float64{
			"gold": 5,
		},
		PoolSizesByCurrency: map[string]map[string]float64{
			"gold": {"bank": 200},
		},
		EventCompletionRate: math.NaN(),
	}
}

func TestLatestFineMatchesRecorded(t *testing.T) {
	s := newTestStore(Config{})
	m := sample(7, 80)
	s.Record(m)

	got := s.Latest(ResolutionFine)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Tick)
	assert.Equal(t, m.TotalSupply, got.TotalSupply)
	assert.Equal(t, m.NetFlow, got.NetFlow)
	assert.Equal(t, m.AvgSatisfaction, got.AvgSatisfaction)
	assert.Equal(t, 5.0, got.NetFlowByCurrency["gold"])
}

func TestRecordClonesInput(t *testing.T) {
	s := newTestStore(Config{})
	m := sample(1, 80)
	s.Record(m)

	m.NetFlowByCurrency["gold"] = 999

	got := s.Latest(ResolutionFine)
	assert.Equal(t, 5.0, got.NetFlowByCurrency["gold"])
}

func TestAggregationOfIdenticalSnapshots(t *testing.T) {
	s := newTestStore(Config{MediumWindow: 4})
	for tick := 0; tick < 4; tick++ {
		m := sample(tick, 72)
		m.Tick = tick
		s.Record(m)
	}

	medium := s.Latest(ResolutionMedium)
	require.NotNil(t, medium, "medium record expected after one full window")

	// Scalar fields of N identical snapshots aggregate to the snapshot.
	assert.Equal(t, 1000.0, medium.TotalSupply)
	assert.Equal(t, 5.0, medium.NetFlow)
	assert.Equal(t, 72.0, medium.AvgSatisfaction)
	assert.Equal(t, 5.0, medium.NetFlowByCurrency["gold"])
	assert.Equal(t, 200.0, medium.PoolSizesByCurrency["gold"]["bank"])
	// NaN-only fields stay NaN instead of becoming zero.
	assert.True(t, math.IsNaN(medium.EventCompletionRate))
	// Non-numeric fields take the last snapshot's value.
	assert.Equal(t, 3, medium.Tick)
}

func TestAggregationSkipsAbsentMapKeys(t *testing.T) {
	s := newTestStore(Config{MediumWindow: 2})

	a := sample(0, 70)
	a.NetFlowByCurrency = map[string]float64{"gold": 10}
	s.Record(a)

	b := sample(1, 70)
	b.NetFlowByCurrency = map[string]float64{"gold": 20, "gems": 4}
	s.Record(b)

	medium := s.Latest(ResolutionMedium)
	require.NotNil(t, medium)
	assert.Equal(t, 15.0, medium.NetFlowByCurrency["gold"])
	// gems appears in one snapshot only: absent means skipped, not zero.
	assert.Equal(t, 4.0, medium.NetFlowByCurrency["gems"])
}

func TestRingCapacityBounded(t *testing.T) {
	s := newTestStore(Config{Capacity: 10})
	for tick := 0; tick < 50; tick++ {
		s.Record(sample(tick, 70))
	}

	history := s.RecentHistory(100)
	assert.Len(t, history, 10)
	assert.Equal(t, 40, history[0].Tick)
	assert.Equal(t, 49, history[len(history)-1].Tick)
}

func TestQueryDottedPath(t *testing.T) {
	s := newTestStore(Config{})
	for tick := 0; tick < 3; tick++ {
		m := sample(tick, 70)
		m.PoolSizesByCurrency["gold"]["bank"] = float64(100 * tick)
		s.Record(m)
	}

	points := s.Query(QueryRequest{Metric: "poolSizesByCurrency.gold.bank"})
	require.Len(t, points, 3)
	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 200.0, points[2].Value)

	from := 1
	points = s.Query(QueryRequest{Metric: "netFlow", From: &from})
	require.Len(t, points, 2)
	assert.Equal(t, 1, points[0].Tick)

	points = s.Query(QueryRequest{Metric: "no.such.path"})
	require.Len(t, points, 3)
	assert.True(t, math.IsNaN(points[0].Value))
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		metrics  domain.EconomyMetrics
		expected float64
	}{
		{
			name:     "healthy economy",
			metrics:  domain.EconomyMetrics{AvgSatisfaction: 80, GiniCoefficient: 0.3, NetFlow: 2},
			expected: 100,
		},
		{
			name:     "low satisfaction",
			metrics:  domain.EconomyMetrics{AvgSatisfaction: 60, GiniCoefficient: 0.3, NetFlow: 2},
			expected: 85,
		},
		{
			name:     "very low satisfaction",
			metrics:  domain.EconomyMetrics{AvgSatisfaction: 40, GiniCoefficient: 0.3, NetFlow: 2},
			expected: 75,
		},
		{
			name:     "inequality and inflation",
			metrics:  domain.EconomyMetrics{AvgSatisfaction: 80, GiniCoefficient: 0.65, NetFlow: 25},
			expected: 50,
		},
		{
			name: "everything wrong",
			metrics: domain.EconomyMetrics{
				AvgSatisfaction: 10, GiniCoefficient: 0.9, NetFlow: -50, ChurnRate: 0.2,
			},
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HealthScore(&tt.metrics))
		})
	}
}

func TestDivergenceDetected(t *testing.T) {
	s := newTestStore(Config{CoarseWindow: 2})

	s.Record(sample(0, 90))
	s.Record(sample(1, 90))
	assert.False(t, s.DivergenceDetected(), "fine and coarse agree")

	// Satisfaction collapses while the coarse view still remembers 90.
	s.Record(sample(2, 20))
	assert.True(t, s.DivergenceDetected())
}

func TestDivergenceThresholdConfigurable(t *testing.T) {
	s := newTestStore(Config{CoarseWindow: 2, DivergenceThreshold: 80})

	s.Record(sample(0, 90))
	s.Record(sample(1, 90))
	s.Record(sample(2, 20))

	// The 70-point gap trips the default threshold but not a tuned 80.
	assert.False(t, s.DivergenceDetected())
}
