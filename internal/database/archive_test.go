package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(t.TempDir(), logger.New(logger.Config{Level: "error"}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func archivedEntry(tick int, result domain.DecisionResult) *domain.DecisionEntry {
	return &domain.DecisionEntry{
		ID:        fmt.Sprintf("d-%d", tick),
		Tick:      tick,
		Timestamp: time.Date(2026, 8, 1, 0, 0, tick, 0, time.UTC),
		Result:    result,
		Diagnosis: &domain.Diagnosis{
			Principle: domain.Principle{ID: "P12", Name: "Inflationary net flow", Category: domain.CategoryCurrency},
			Violation: domain.PrincipleResult{Violated: true, Severity: 5, Confidence: 0.8},
			Tick:      tick,
		},
		Plan: &domain.ActionPlan{
			ID:           fmt.Sprintf("plan-%d", tick),
			Parameter:    "craftingCost",
			CurrentValue: 100,
			TargetValue:  115,
		},
		Reasoning: "net flow above threshold",
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a := testArchive(t)

	require.NoError(t, a.Archive(archivedEntry(10, domain.ResultApplied)))
	require.NoError(t, a.Archive(archivedEntry(20, domain.ResultRolledBack)))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := a.Load(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "d-10", entries[0].ID)
	assert.Equal(t, 10, entries[0].Tick)
	assert.Equal(t, domain.ResultRolledBack, entries[1].Result)
	require.NotNil(t, entries[0].Plan)
	assert.Equal(t, 115.0, entries[0].Plan.TargetValue)
	require.NotNil(t, entries[0].Diagnosis)
	assert.Equal(t, "P12", entries[0].Diagnosis.Principle.ID)
}

func TestArchiveIsIdempotentPerID(t *testing.T) {
	a := testArchive(t)

	e := archivedEntry(10, domain.ResultApplied)
	require.NoError(t, a.Archive(e))
	e.Reasoning = "updated"
	require.NoError(t, a.Archive(e))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := a.Load(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "updated", entries[0].Reasoning)
}

func TestLoadHonorsLimit(t *testing.T) {
	a := testArchive(t)
	for tick := 1; tick <= 5; tick++ {
		require.NoError(t, a.Archive(archivedEntry(tick, domain.ResultApplied)))
	}

	entries, err := a.Load(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// The newest three survive, returned in append order.
	assert.Equal(t, 3, entries[0].Tick)
	assert.Equal(t, 5, entries[2].Tick)
}
