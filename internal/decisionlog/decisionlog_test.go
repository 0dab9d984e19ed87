package decisionlog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func newTestLog(capacity int) *Log {
	return New(capacity, logger.New(logger.Config{Level: "error"}))
}

func entryAt(tick int, result domain.DecisionResult) *domain.DecisionEntry {
	return &domain.DecisionEntry{
		ID:     fmt.Sprintf("e-%d", tick),
		Tick:   tick,
		Result: result,
		Diagnosis: &domain.Diagnosis{
			Principle: domain.Principle{ID: "P12", Name: "Inflationary net flow"},
			Tick:      tick,
		},
		Plan:      &domain.ActionPlan{ID: fmt.Sprintf("plan-%d", tick), Parameter: "craftingCost"},
		Reasoning: "test",
	}
}

func TestRecordStampsTimestamp(t *testing.T) {
	l := newTestLog(10)
	e := entryAt(1, domain.ResultApplied)
	l.Record(e)
	assert.False(t, e.Timestamp.IsZero())
}

func TestTrimKeepsNewestEntries(t *testing.T) {
	l := newTestLog(10)
	for tick := 1; tick <= 16; tick++ {
		l.Record(entryAt(tick, domain.ResultApplied))
	}
	// 16 > 15 (1.5x) triggers a trim back to capacity.
	assert.Equal(t, 10, l.Len())
	latest := l.Latest(1)
	require.Len(t, latest, 1)
	assert.Equal(t, 16, latest[0].Tick)

	oldest := l.Query(Filter{})
	assert.Equal(t, 7, oldest[0].Tick, "entries 1-6 were trimmed")
}

func TestNoTrimBelowOvershoot(t *testing.T) {
	l := newTestLog(10)
	for tick := 1; tick <= 15; tick++ {
		l.Record(entryAt(tick, domain.ResultApplied))
	}
	assert.Equal(t, 15, l.Len(), "ring only trims past 1.5x capacity")
}

func TestLatestNewestFirst(t *testing.T) {
	l := newTestLog(100)
	for tick := 1; tick <= 5; tick++ {
		l.Record(entryAt(tick, domain.ResultApplied))
	}
	latest := l.Latest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, 5, latest[0].Tick)
	assert.Equal(t, 4, latest[1].Tick)
	assert.Equal(t, 3, latest[2].Tick)
}

func TestQueryFilters(t *testing.T) {
	l := newTestLog(100)
	l.Record(entryAt(10, domain.ResultApplied))
	l.Record(entryAt(20, domain.ResultSkippedCooldown))
	other := entryAt(30, domain.ResultApplied)
	other.Diagnosis.Principle.ID = "P33"
	other.Plan.Parameter = "transferFee"
	l.Record(other)

	assert.Len(t, l.Query(Filter{Result: domain.ResultApplied}), 2)
	assert.Len(t, l.Query(Filter{Issue: "P33"}), 1)
	assert.Len(t, l.Query(Filter{Parameter: "craftingCost"}), 2)
	assert.Len(t, l.Query(Filter{Since: 15, Until: 25}), 1)
	assert.Len(t, l.Query(Filter{Since: 15, Result: domain.ResultApplied}), 1)

	// Entries without a diagnosis never match an issue filter.
	bare := &domain.DecisionEntry{ID: "bare", Tick: 40, Result: domain.ResultSkippedGracePeriod}
	l.Record(bare)
	assert.Empty(t, l.Query(Filter{Issue: "P12", Since: 40}))
}

func TestExportRoundTrips(t *testing.T) {
	l := newTestLog(100)
	l.Record(entryAt(10, domain.ResultApplied))
	l.Record(entryAt(20, domain.ResultRolledBack))

	raw, err := l.Export("json")
	require.NoError(t, err)
	var decoded []*domain.DecisionEntry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 10, decoded[0].Tick)
	assert.Equal(t, domain.ResultRolledBack, decoded[1].Result)

	packed, err := l.Export("msgpack")
	require.NoError(t, err)
	var fromPack []*domain.DecisionEntry
	require.NoError(t, msgpack.Unmarshal(packed, &fromPack))
	require.Len(t, fromPack, 2)
	assert.Equal(t, "e-20", fromPack[1].ID)

	text, err := l.Export("text")
	require.NoError(t, err)
	assert.Contains(t, string(text), "[tick 10] applied principle=P12 parameter=craftingCost")

	_, err = l.Export("xml")
	assert.Error(t, err)
}

func TestRestoreReplacesAndBounds(t *testing.T) {
	l := newTestLog(3)
	var entries []*domain.DecisionEntry
	for tick := 1; tick <= 5; tick++ {
		entries = append(entries, entryAt(tick, domain.ResultApplied))
	}
	l.Restore(entries)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 5, l.Latest(1)[0].Tick)
}

type captureArchiver struct {
	got []*domain.DecisionEntry
	err error
}

func (c *captureArchiver) Archive(e *domain.DecisionEntry) error {
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, e)
	return nil
}

func TestArchiverReceivesEntries(t *testing.T) {
	l := newTestLog(10)
	arch := &captureArchiver{}
	l.SetArchiver(arch)

	l.Record(entryAt(1, domain.ResultApplied))
	l.Record(entryAt(2, domain.ResultSettled))
	require.Len(t, arch.got, 2)
	assert.Equal(t, "e-1", arch.got[0].ID)

	// An archive failure never loses the in-memory entry.
	arch.err = fmt.Errorf("disk full")
	l.Record(entryAt(3, domain.ResultApplied))
	assert.Equal(t, 3, l.Len())
}
