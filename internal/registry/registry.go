// Package registry maps the abstract parameter types principles talk about
// (cost, reward, cap, ...) onto the concrete parameter keys a host adapter
// understands, and records each parameter's flow impact for the simulator.
package registry

import (
	"fmt"
	"math"
	"sync"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// disqualified marks a candidate whose scope contradicts the query.
var disqualified = math.Inf(-1)

// Registry holds registered parameters in registration order. Reads and
// writes are guarded so the transport can register parameters at runtime
// while the pipeline resolves.
type Registry struct {
	mu     sync.RWMutex
	params []*domain.RegisteredParameter
	byKey  map[string]*domain.RegisteredParameter
	log    zerolog.Logger
}

// New creates an empty registry.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		byKey: make(map[string]*domain.RegisteredParameter),
		log:   log.With().Str("component", "registry").Logger(),
	}
}

// Register adds a parameter. Re-registering an existing key replaces the
// earlier entry in place, keeping its original registration order.
func (r *Registry) Register(p domain.RegisteredParameter) error {
	if p.Key == "" {
		return fmt.Errorf("parameter key is required")
	}
	if p.Type == "" {
		return fmt.Errorf("parameter type is required for %q", p.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[p.Key]; ok {
		*existing = p
		return nil
	}

	stored := p
	r.params = append(r.params, &stored)
	r.byKey[p.Key] = &stored
	r.log.Debug().Str("key", p.Key).Str("type", p.Type).Msg("Parameter registered")
	return nil
}

// Empty reports whether no parameters are registered. The planner falls
// back to using the parameter type as the key in that case.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.params) == 0
}

// Get returns the parameter registered under key, or nil.
func (r *Registry) Get(key string) *domain.RegisteredParameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byKey[key]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// List returns a copy of all registered parameters in registration order.
func (r *Registry) List() []domain.RegisteredParameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RegisteredParameter, 0, len(r.params))
	for _, p := range r.params {
		out = append(out, *p)
	}
	return out
}

// Resolve picks the registered parameter best matching a type and scope.
// Candidates are scored on scope specificity; contradictions disqualify:
//
//	system present on both sides: +10 equal, disqualified otherwise
//	currency present on both sides: +5 equal, disqualified otherwise
//	tags present on both sides: +3 per shared tag, disqualified when disjoint
//
// Ties break on priority, then registration order. Returns nil when no
// candidate survives. Resolution is deterministic for a fixed registry.
func (r *Registry) Resolve(paramType string, scope *domain.Scope) *domain.RegisteredParameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.RegisteredParameter
	bestScore := disqualified

	for _, p := range r.params {
		if p.Type != paramType {
			continue
		}
		score := specificity(p.Scope, scope)
		if math.IsInf(score, -1) {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && p.Priority > best.Priority) {
			best = p
			bestScore = score
		}
	}

	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// GetFlowImpact returns the flow impact declared for a key, or FlowNeutral
// with ok=false when the key is unknown or undeclared.
func (r *Registry) GetFlowImpact(key string) (domain.FlowImpact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byKey[key]; ok && p.FlowImpact != "" {
		return p.FlowImpact, true
	}
	return domain.FlowNeutral, false
}

// CurrentValue returns the tracked value for a key, if any.
func (r *Registry) CurrentValue(key string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byKey[key]; ok && p.CurrentValue != nil {
		return *p.CurrentValue, true
	}
	return 0, false
}

// SetCurrentValue records the live value for a key after an apply or
// rollback. Unknown keys are ignored - the host owns parameters the engine
// never registered.
func (r *Registry) SetCurrentValue(key string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byKey[key]; ok {
		v := value
		p.CurrentValue = &v
	}
}

// ValidationReport lists registry configuration problems.
type ValidationReport struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate reports ambiguous and underspecified registrations: multiple
// unscoped parameters sharing a type are an error (resolution would fall to
// registration order alone), parameters without a declared flow impact are a
// warning (the simulator would have to infer one).
func (r *Registry) Validate() ValidationReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var report ValidationReport
	unscopedByType := make(map[string][]string)

	for _, p := range r.params {
		if p.Scope.IsZero() {
			unscopedByType[p.Type] = append(unscopedByType[p.Type], p.Key)
		}
		if p.FlowImpact == "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("parameter %q has no declared flowImpact", p.Key))
		}
	}
	for typ, keys := range unscopedByType {
		if len(keys) > 1 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("type %q has %d unscoped parameters %v - resolution is ambiguous", typ, len(keys), keys))
		}
	}
	return report
}

// specificity scores how well a registered scope matches a query scope.
func specificity(registered, query *domain.Scope) float64 {
	if registered.IsZero() || query.IsZero() {
		return 0
	}

	score := 0.0
	if registered.System != "" && query.System != "" {
		if registered.System != query.System {
			return disqualified
		}
		score += 10
	}
	if registered.Currency != "" && query.Currency != "" {
		if registered.Currency != query.Currency {
			return disqualified
		}
		score += 5
	}
	if len(registered.Tags) > 0 && len(query.Tags) > 0 {
		shared := 0
		queryTags := make(map[string]bool, len(query.Tags))
		for _, t := range query.Tags {
			queryTags[t] = true
		}
		for _, t := range registered.Tags {
			if queryTags[t] {
				shared++
			}
		}
		if shared == 0 {
			return disqualified
		}
		score += 3 * float64(shared)
	}
	return score
}
