// Package executor applies accepted plans to the host and supervises them
// until they settle or roll back.
package executor

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
)

const (
	// hardTTLTicks bounds how long a plan may stay active before it is
	// force-settled regardless of its rollback condition.
	hardTTLTicks = 200

	// settleGraceTicks is how long past checkAfterTick a healthy plan
	// stays under watch before settling.
	settleGraceTicks = 10
)

// activePlan pairs a plan with the value to restore on rollback.
type activePlan struct {
	plan          *domain.ActionPlan
	originalValue float64
}

// Outcome reports one resolved plan from a rollback sweep.
type Outcome struct {
	Plan       *domain.ActionPlan
	Result     domain.DecisionResult
	Reasoning  string
	RolledBack bool
}

// Executor drives adapter.SetParam and owns the active-plan list. Applies
// are serialized by the engine; the mutex only guards transport reads.
type Executor struct {
	mu       sync.Mutex
	adapter  domain.Adapter
	registry *registry.Registry
	active   []*activePlan
	log      zerolog.Logger
}

// New builds an Executor. The registry may be nil.
func New(adapter domain.Adapter, reg *registry.Registry, log zerolog.Logger) *Executor {
	return &Executor{
		adapter:  adapter,
		registry: reg,
		log:      log.With().Str("component", "executor").Logger(),
	}
}

// SetAdapter swaps the host adapter, used by transports that carry state
// inline instead of pulling it.
func (e *Executor) SetAdapter(a domain.Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adapter = a
}

// Apply pushes one plan's target value to the host. On success the plan
// joins the active list and the registry learns the new current value. On
// failure nothing is retained and the error is returned for an
// apply_failed decision.
func (e *Executor) Apply(plan *domain.ActionPlan, tick int) error {
	e.mu.Lock()
	adapter := e.adapter
	e.mu.Unlock()
	if adapter == nil {
		return fmt.Errorf("no adapter configured")
	}

	if err := adapter.SetParam(plan.Parameter, plan.TargetValue, plan.Scope); err != nil {
		e.log.Error().
			Err(err).
			Str("parameter", plan.Parameter).
			Float64("target", plan.TargetValue).
			Msg("setParam failed")
		return err
	}

	applied := tick
	plan.AppliedAt = &applied
	if e.registry != nil {
		e.registry.SetCurrentValue(plan.Parameter, plan.TargetValue)
	}

	e.mu.Lock()
	e.active = append(e.active, &activePlan{plan: plan, originalValue: plan.CurrentValue})
	e.mu.Unlock()

	e.log.Info().
		Str("plan", plan.ID).
		Str("parameter", plan.Parameter).
		Float64("from", plan.CurrentValue).
		Float64("to", plan.TargetValue).
		Int("tick", tick).
		Msg("plan applied")
	return nil
}

// CheckRollbacks sweeps the active plans against the current metrics and
// returns every plan that resolved this tick. An unresolvable rollback
// metric is a fail-safe trigger, not an error.
func (e *Executor) CheckRollbacks(m *domain.EconomyMetrics, tick int) []Outcome {
	e.mu.Lock()
	plans := append([]*activePlan(nil), e.active...)
	e.mu.Unlock()

	var outcomes []Outcome
	var remaining []*activePlan
	for _, ap := range plans {
		outcome, resolved := e.evaluate(ap, m, tick)
		if resolved {
			outcomes = append(outcomes, outcome)
		} else {
			remaining = append(remaining, ap)
		}
	}

	e.mu.Lock()
	e.active = remaining
	e.mu.Unlock()
	return outcomes
}

// evaluate applies the rollback rules to one active plan.
func (e *Executor) evaluate(ap *activePlan, m *domain.EconomyMetrics, tick int) (Outcome, bool) {
	plan := ap.plan
	rc := plan.Rollback

	appliedAt := tick
	if plan.AppliedAt != nil {
		appliedAt = *plan.AppliedAt
	}
	if tick-appliedAt > hardTTLTicks {
		return Outcome{
			Plan:      plan,
			Result:    domain.ResultSettled,
			Reasoning: fmt.Sprintf("hard TTL of %d ticks expired", hardTTLTicks),
		}, true
	}

	if tick < rc.CheckAfterTick {
		return Outcome{}, false
	}

	value := m.MetricValue(rc.Metric)
	if math.IsNaN(value) {
		return e.rollback(ap, tick,
			fmt.Sprintf("rollback metric %q unresolvable, failing safe", rc.Metric))
	}

	triggered := (rc.Direction == domain.RollbackBelow && value < rc.Threshold) ||
		(rc.Direction == domain.RollbackAbove && value > rc.Threshold)
	if triggered {
		return e.rollback(ap, tick,
			fmt.Sprintf("metric %s=%.4f crossed %s %.4f", rc.Metric, value, rc.Direction, rc.Threshold))
	}

	if tick > rc.CheckAfterTick+settleGraceTicks {
		return Outcome{
			Plan:      plan,
			Result:    domain.ResultSettled,
			Reasoning: fmt.Sprintf("metric %s held through the settle window", rc.Metric),
		}, true
	}
	return Outcome{}, false
}

// rollback restores the original value through the adapter. SetParam is
// idempotent host-side, so a failed restore is logged and the plan still
// leaves the active list as rolled back.
func (e *Executor) rollback(ap *activePlan, tick int, reason string) (Outcome, bool) {
	plan := ap.plan
	e.mu.Lock()
	adapter := e.adapter
	e.mu.Unlock()

	if adapter != nil {
		if err := adapter.SetParam(plan.Parameter, ap.originalValue, plan.Scope); err != nil {
			e.log.Error().
				Err(err).
				Str("plan", plan.ID).
				Msg("rollback setParam failed, dropping plan anyway")
		}
	}
	if e.registry != nil {
		e.registry.SetCurrentValue(plan.Parameter, ap.originalValue)
	}

	e.log.Warn().
		Str("plan", plan.ID).
		Str("parameter", plan.Parameter).
		Float64("restored", ap.originalValue).
		Int("tick", tick).
		Msg("plan rolled back")
	return Outcome{
		Plan:       plan,
		Result:     domain.ResultRolledBack,
		Reasoning:  reason,
		RolledBack: true,
	}, true
}

// ActiveCount returns how many plans are under rollback watch.
func (e *Executor) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// ActivePlans returns a snapshot of the plans under watch.
func (e *Executor) ActivePlans() []*domain.ActionPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.ActionPlan, len(e.active))
	for i, ap := range e.active {
		out[i] = ap.plan
	}
	return out
}
