// Package metrics stores derived economy metrics at three time resolutions
// and answers history queries for the pipeline and the transport layer.
package metrics

import (
	"math"
	"sync"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// Resolution selects one of the store's rings.
type Resolution string

const (
	ResolutionFine   Resolution = "fine"
	ResolutionMedium Resolution = "medium"
	ResolutionCoarse Resolution = "coarse"
)

const (
	// DefaultCapacity is the per-resolution ring size.
	DefaultCapacity = 200
	// DefaultMediumWindow is how many fine records aggregate into one
	// medium record.
	DefaultMediumWindow = 5
	// DefaultCoarseWindow is how many fine records aggregate into one
	// coarse record.
	DefaultCoarseWindow = 25
	// DefaultDivergenceThreshold is the fine/coarse satisfaction gap, in
	// points, past which DivergenceDetected fires.
	DefaultDivergenceThreshold = 20
)

// Config tunes the store. Zero values fall back to the defaults.
type Config struct {
	Capacity            int
	MediumWindow        int
	CoarseWindow        int
	DivergenceThreshold float64
}

// Point is one (tick, value) sample returned by Query.
type Point struct {
	Tick  int     `json:"tick"`
	Value float64 `json:"value"`
}

// Query describes a metric history request.
type QueryRequest struct {
	Metric     string     `json:"metric"`
	Resolution Resolution `json:"resolution,omitempty"`
	From       *int       `json:"from,omitempty"`
	To         *int       `json:"to,omitempty"`
}

// HistoryEntry is one fine record with its precomputed health score.
type HistoryEntry struct {
	Tick    int                    `json:"tick"`
	Health  float64                `json:"health"`
	Metrics *domain.EconomyMetrics `json:"metrics"`
}

// Store keeps fine/medium/coarse rings of EconomyMetrics. The pipeline is
// the only writer; the transport reads concurrently through the lock and
// receives clones.
type Store struct {
	mu sync.RWMutex

	capacity     int
	mediumWindow int
	coarseWindow int
	divergence   float64

	fine   []*domain.EconomyMetrics
	medium []*domain.EconomyMetrics
	coarse []*domain.EconomyMetrics

	// sinceMedium / sinceCoarse count fine records since the last
	// aggregation into the respective ring.
	sinceMedium int
	sinceCoarse int

	log zerolog.Logger
}

// NewStore creates a store with the given configuration.
func NewStore(cfg Config, log zerolog.Logger) *Store {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MediumWindow <= 0 {
		cfg.MediumWindow = DefaultMediumWindow
	}
	if cfg.CoarseWindow <= 0 {
		cfg.CoarseWindow = DefaultCoarseWindow
	}
	if cfg.DivergenceThreshold <= 0 {
		cfg.DivergenceThreshold = DefaultDivergenceThreshold
	}
	return &Store{
		capacity:     cfg.Capacity,
		mediumWindow: cfg.MediumWindow,
		coarseWindow: cfg.CoarseWindow,
		divergence:   cfg.DivergenceThreshold,
		log:          log.With().Str("component", "metric_store").Logger(),
	}
}

// Record inserts one fine-resolution record and rolls the aggregation
// windows. Exactly one fine record exists per processed tick.
func (s *Store) Record(m *domain.EconomyMetrics) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fine = push(s.fine, m.Clone(), s.capacity)

	s.sinceMedium++
	if s.sinceMedium >= s.mediumWindow {
		window := tail(s.fine, s.mediumWindow)
		s.medium = push(s.medium, aggregate(window), s.capacity)
		s.sinceMedium = 0
	}

	s.sinceCoarse++
	if s.sinceCoarse >= s.coarseWindow {
		window := tail(s.fine, s.coarseWindow)
		s.coarse = push(s.coarse, aggregate(window), s.capacity)
		s.sinceCoarse = 0
	}
}

// Latest returns a clone of the newest record at the given resolution, or
// nil when the ring is empty.
func (s *Store) Latest(res Resolution) *domain.EconomyMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring := s.ring(res)
	if len(ring) == 0 {
		return nil
	}
	return ring[len(ring)-1].Clone()
}

// Query returns (tick, value) samples for a dotted metric path. Paths that
// do not resolve yield NaN samples rather than an error.
func (s *Store) Query(q QueryRequest) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := q.Resolution
	if res == "" {
		res = ResolutionFine
	}

	var points []Point
	for _, m := range s.ring(res) {
		if q.From != nil && m.Tick < *q.From {
			continue
		}
		if q.To != nil && m.Tick > *q.To {
			continue
		}
		points = append(points, Point{Tick: m.Tick, Value: m.MetricValue(q.Metric)})
	}
	return points
}

// RecentHistory returns the last n fine records, oldest first, each with a
// precomputed health score.
func (s *Store) RecentHistory(n int) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := tail(s.fine, n)
	entries := make([]HistoryEntry, 0, len(window))
	for _, m := range window {
		entries = append(entries, HistoryEntry{
			Tick:    m.Tick,
			Health:  HealthScore(m),
			Metrics: m.Clone(),
		})
	}
	return entries
}

// DivergenceDetected reports whether the fine and coarse views of average
// satisfaction disagree by more than the configured threshold - a sign that
// a short-term mood swing is masking (or faking) a long-term trend.
func (s *Store) DivergenceDetected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.fine) == 0 || len(s.coarse) == 0 {
		return false
	}
	fine := s.fine[len(s.fine)-1].AvgSatisfaction
	coarse := s.coarse[len(s.coarse)-1].AvgSatisfaction
	return math.Abs(fine-coarse) > s.divergence
}

// HealthScore condenses a metrics record into a 0-100 economy health value.
func HealthScore(m *domain.EconomyMetrics) float64 {
	if m == nil {
		return 0
	}

	score := 100.0
	if m.AvgSatisfaction < 65 {
		score -= 15
		if m.AvgSatisfaction < 50 {
			score -= 10
		}
	}
	if m.GiniCoefficient > 0.45 {
		score -= 15
		if m.GiniCoefficient > 0.60 {
			score -= 10
		}
	}
	if math.Abs(m.NetFlow) > 10 {
		score -= 15
		if math.Abs(m.NetFlow) > 20 {
			score -= 10
		}
	}
	if m.ChurnRate > 0.05 {
		score -= 15
	}

	return math.Max(0, math.Min(100, score))
}

func (s *Store) ring(res Resolution) []*domain.EconomyMetrics {
	switch res {
	case ResolutionMedium:
		return s.medium
	case ResolutionCoarse:
		return s.coarse
	default:
		return s.fine
	}
}

// push appends to a bounded ring, dropping the oldest entry past capacity.
func push(ring []*domain.EconomyMetrics, m *domain.EconomyMetrics, capacity int) []*domain.EconomyMetrics {
	ring = append(ring, m)
	if len(ring) > capacity {
		ring = append(ring[:0], ring[len(ring)-capacity:]...)
	}
	return ring
}

// tail returns up to n newest entries, oldest first.
func tail(ring []*domain.EconomyMetrics, n int) []*domain.EconomyMetrics {
	if n <= 0 || len(ring) == 0 {
		return nil
	}
	if len(ring) < n {
		n = len(ring)
	}
	return ring[len(ring)-n:]
}
