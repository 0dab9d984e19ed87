// Package decisionlog keeps the bounded, append-only audit trail of every
// pipeline outcome.
package decisionlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// DefaultMaxEntries bounds the in-memory ring. The ring is trimmed back to
// the bound once it overshoots by half again, so trims stay infrequent.
const DefaultMaxEntries = 1000

const trimFactor = 1.5

// Archiver receives every recorded entry for durable storage. Archival is
// best-effort; failures never disturb the in-memory log.
type Archiver interface {
	Archive(entry *domain.DecisionEntry) error
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Since     int                   `json:"since,omitempty"` // tick, inclusive
	Until     int                   `json:"until,omitempty"` // tick, inclusive, 0 = open
	Issue     string                `json:"issue,omitempty"` // principle id
	Parameter string                `json:"parameter,omitempty"`
	Result    domain.DecisionResult `json:"result,omitempty"`
}

// Log is the decision ring. Append happens on the pipeline goroutine;
// reads may come from transport handlers concurrently.
type Log struct {
	mu         sync.RWMutex
	entries    []*domain.DecisionEntry
	maxEntries int
	archiver   Archiver
	log        zerolog.Logger
}

// New builds a Log with the given capacity (<=0 selects the default).
func New(maxEntries int, log zerolog.Logger) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{
		maxEntries: maxEntries,
		log:        log.With().Str("component", "decisionlog").Logger(),
	}
}

// SetArchiver attaches a durable sink for recorded entries.
func (l *Log) SetArchiver(a Archiver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.archiver = a
}

// Record appends one entry, stamping the time when unset.
func (l *Log) Record(entry *domain.DecisionEntry) {
	if entry == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > int(float64(l.maxEntries)*trimFactor) {
		overflow := len(l.entries) - l.maxEntries
		l.entries = append([]*domain.DecisionEntry(nil), l.entries[overflow:]...)
	}
	archiver := l.archiver
	l.mu.Unlock()

	if archiver != nil {
		if err := archiver.Archive(entry); err != nil {
			l.log.Warn().Err(err).Str("entry", entry.ID).Msg("decision archive write failed")
		}
	}
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Query returns entries matching the filter, oldest first.
func (l *Log) Query(f Filter) []*domain.DecisionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*domain.DecisionEntry
	for _, e := range l.entries {
		if !matches(e, f) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Latest returns up to n entries, newest first. n <= 0 returns everything.
func (l *Log) Latest(n int) []*domain.DecisionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]*domain.DecisionEntry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Export serializes the retained log. Formats: json, text, msgpack.
func (l *Log) Export(format string) ([]byte, error) {
	l.mu.RLock()
	entries := append([]*domain.DecisionEntry(nil), l.entries...)
	l.mu.RUnlock()

	switch format {
	case "json":
		return json.MarshalIndent(entries, "", "  ")
	case "msgpack":
		return msgpack.Marshal(entries)
	case "text":
		var b strings.Builder
		for _, e := range entries {
			principle := "-"
			if e.Diagnosis != nil {
				principle = e.Diagnosis.Principle.ID
			}
			parameter := "-"
			if e.Plan != nil {
				parameter = e.Plan.Parameter
			}
			fmt.Fprintf(&b, "[tick %d] %s principle=%s parameter=%s %s\n",
				e.Tick, e.Result, principle, parameter, e.Reasoning)
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Restore replaces the ring contents, used when loading an archive at
// startup. Entries beyond capacity keep only the newest.
func (l *Log) Restore(entries []*domain.DecisionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) > l.maxEntries {
		entries = entries[len(entries)-l.maxEntries:]
	}
	l.entries = append([]*domain.DecisionEntry(nil), entries...)
}

func matches(e *domain.DecisionEntry, f Filter) bool {
	if f.Since != 0 && e.Tick < f.Since {
		return false
	}
	if f.Until != 0 && e.Tick > f.Until {
		return false
	}
	if f.Result != "" && e.Result != f.Result {
		return false
	}
	if f.Issue != "" {
		if e.Diagnosis == nil || e.Diagnosis.Principle.ID != f.Issue {
			return false
		}
	}
	if f.Parameter != "" {
		if e.Plan == nil || e.Plan.Parameter != f.Parameter {
			return false
		}
	}
	return true
}
