package diagnoser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func newTestDiagnoser(ps ...domain.Principle) *Diagnoser {
	return New(ps, logger.New(logger.Config{Level: "error"}))
}

func alwaysViolated(id string, severity, confidence float64) domain.Principle {
	return domain.Principle{
		ID:       id,
		Name:     id,
		Category: domain.CategoryOperations,
		Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
			return domain.PrincipleResult{
				Violated:   true,
				Severity:   severity,
				Confidence: confidence,
				Evidence:   map[string]any{"id": id},
			}
		},
	}
}

func neverViolated(id string) domain.Principle {
	return domain.Principle{
		ID:       id,
		Name:     id,
		Category: domain.CategoryOperations,
		Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
			return domain.OK()
		},
	}
}

func TestDiagnoseSortsBySeverityThenConfidence(t *testing.T) {
	d := newTestDiagnoser(
		alwaysViolated("A", 5, 0.9),
		alwaysViolated("B", 8, 0.5),
		alwaysViolated("C", 8, 0.7),
		neverViolated("D"),
		alwaysViolated("E", 3, 0.4),
	)

	out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), 7)
	require.Len(t, out, 4)
	assert.Equal(t, "C", out[0].Principle.ID)
	assert.Equal(t, "B", out[1].Principle.ID)
	assert.Equal(t, "A", out[2].Principle.ID)
	assert.Equal(t, "E", out[3].Principle.ID)
	for _, diag := range out {
		assert.Equal(t, 7, diag.Tick)
	}
}

func TestDiagnoseClampsRanges(t *testing.T) {
	d := newTestDiagnoser(
		alwaysViolated("hot", 42, 1.5),
		alwaysViolated("cold", -3, -0.2),
	)

	out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), 0)
	require.Len(t, out, 2)
	assert.Equal(t, 10.0, out[0].Violation.Severity)
	assert.Equal(t, 1.0, out[0].Violation.Confidence)
	assert.Equal(t, 1.0, out[1].Violation.Severity)
	assert.Equal(t, 0.0, out[1].Violation.Confidence)
}

func TestDiagnoseSurvivesPanickingCheck(t *testing.T) {
	panicking := domain.Principle{
		ID:       "boom",
		Name:     "boom",
		Category: domain.CategoryOperations,
		Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
			panic("nil map write")
		},
	}
	d := newTestDiagnoser(panicking, alwaysViolated("ok", 5, 0.5))

	out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), 1)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Principle.ID)
}

func TestDiagnoseNilCheckIsSkipped(t *testing.T) {
	d := newTestDiagnoser(domain.Principle{ID: "empty", Name: "empty"})
	out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), 1)
	assert.Empty(t, out)
}

func TestRegisterReplacesById(t *testing.T) {
	d := newTestDiagnoser(alwaysViolated("X", 5, 0.5))
	d.Register(neverViolated("X"), alwaysViolated("Y", 6, 0.6))

	require.Len(t, d.Principles(), 2)
	out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), 1)
	require.Len(t, out, 1)
	assert.Equal(t, "Y", out[0].Principle.ID)
}

func TestTieOrderIsStable(t *testing.T) {
	d := newTestDiagnoser(
		alwaysViolated("first", 5, 0.5),
		alwaysViolated("second", 5, 0.5),
	)
	for i := 0; i < 20; i++ {
		out := d.Diagnose(&domain.EconomyMetrics{}, defaultTh(), i)
		require.Len(t, out, 2)
		assert.Equal(t, "first", out[0].Principle.ID)
		assert.Equal(t, "second", out[1].Principle.ID)
	}
}

func defaultTh() *domain.Thresholds {
	th := domain.DefaultThresholds()
	return &th
}
