// Package diagnoser evaluates the principle catalog against a metrics
// snapshot and ranks the violations.
package diagnoser

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// Diagnoser runs every registered principle over one metrics record per
// tick. Checks are treated as untrusted: a panicking principle is logged
// and skipped, never allowed to take the tick down.
type Diagnoser struct {
	mu         sync.RWMutex
	principles []domain.Principle
	log        zerolog.Logger
}

// New builds a Diagnoser seeded with the given principles.
func New(principles []domain.Principle, log zerolog.Logger) *Diagnoser {
	d := &Diagnoser{
		log: log.With().Str("component", "diagnoser").Logger(),
	}
	d.principles = append(d.principles, principles...)
	return d
}

// Register appends additional principles. Duplicate IDs replace the
// earlier registration so hosts can override built-ins.
func (d *Diagnoser) Register(ps ...domain.Principle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range ps {
		replaced := false
		for i := range d.principles {
			if d.principles[i].ID == p.ID {
				d.principles[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			d.principles = append(d.principles, p)
		}
	}
}

// Principles returns a copy of the registered catalog.
func (d *Diagnoser) Principles() []domain.Principle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Principle, len(d.principles))
	copy(out, d.principles)
	return out
}

// Diagnose runs every check and returns the violations sorted by severity
// descending, then confidence descending. Ties beyond that keep catalog
// order, so identical inputs always produce identical output.
func (d *Diagnoser) Diagnose(m *domain.EconomyMetrics, th *domain.Thresholds, tick int) []domain.Diagnosis {
	d.mu.RLock()
	principles := d.principles
	d.mu.RUnlock()

	var out []domain.Diagnosis
	for _, p := range principles {
		res := d.check(p, m, th)
		if !res.Violated {
			continue
		}
		res.Severity = clamp(res.Severity, 1, 10)
		res.Confidence = clamp(res.Confidence, 0, 1)
		out = append(out, domain.Diagnosis{Principle: p, Violation: res, Tick: tick})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Violation.Severity != out[j].Violation.Severity {
			return out[i].Violation.Severity > out[j].Violation.Severity
		}
		return out[i].Violation.Confidence > out[j].Violation.Confidence
	})
	return out
}

// check runs one principle with panic isolation.
func (d *Diagnoser) check(p domain.Principle, m *domain.EconomyMetrics, th *domain.Thresholds) (res domain.PrincipleResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("principle", p.ID).
				Interface("panic", r).
				Msg("principle check panicked, skipping")
			res = domain.OK()
		}
	}()
	if p.Check == nil {
		return domain.OK()
	}
	return p.Check(m, th)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
