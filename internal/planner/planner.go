// Package planner turns a ranked diagnosis into a safe, simulated action
// plan. Every gate that can reject a plan lives here.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/simulator"
)

// Constraint bounds one parameter's allowed value range.
type Constraint struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Planner owns the gate state: cooldowns, locks, constraints and the
// active-plan counter. All mutation happens on the engine's pipeline
// goroutine; the mutex guards concurrent config updates from transport.
type Planner struct {
	mu sync.Mutex

	registry    *registry.Registry
	sim         *simulator.Simulator
	log         zerolog.Logger
	lastApplied map[string]int // (parameterType|scope) -> tick
	locked      map[string]bool
	constraints map[string]Constraint
	params      map[string]float64 // last known value per key, engine-tracked
	activePlans int
}

// New builds a Planner.
func New(reg *registry.Registry, sim *simulator.Simulator, log zerolog.Logger) *Planner {
	return &Planner{
		registry:    reg,
		sim:         sim,
		log:         log.With().Str("component", "planner").Logger(),
		lastApplied: make(map[string]int),
		locked:      make(map[string]bool),
		constraints: make(map[string]Constraint),
		params:      make(map[string]float64),
	}
}

// Plan runs the gate sequence for the top diagnosis. On rejection it
// returns a nil plan plus the skip result and a human-readable reason.
func (p *Planner) Plan(ctx context.Context, diag domain.Diagnosis, m *domain.EconomyMetrics, th *domain.Thresholds) (*domain.ActionPlan, domain.DecisionResult, string) {
	action := diag.Violation.SuggestedAction
	if action == nil {
		return nil, domain.ResultSkippedUnresolved, "diagnosis carries no suggested action"
	}

	if m.Tick < th.GracePeriod {
		return nil, domain.ResultSkippedGracePeriod,
			fmt.Sprintf("tick %d inside grace period of %d", m.Tick, th.GracePeriod)
	}

	key, result, reason := p.resolveKey(*action)
	if result != "" {
		return nil, result, reason
	}

	p.mu.Lock()
	if p.locked[key] {
		p.mu.Unlock()
		return nil, domain.ResultSkippedLocked, fmt.Sprintf("parameter %q is locked", key)
	}

	cooldownKey := cooldownKey(action.ParameterType, action.Scope)
	if last, ok := p.lastApplied[cooldownKey]; ok && m.Tick < last+th.CooldownTicks {
		p.mu.Unlock()
		return nil, domain.ResultSkippedCooldown,
			fmt.Sprintf("%s applied at tick %d, cooldown %d ticks", cooldownKey, last, th.CooldownTicks)
	}

	if p.activePlans >= th.ComplexityBudgetMax {
		p.mu.Unlock()
		return nil, domain.ResultSkippedBudget,
			fmt.Sprintf("%d active plans at budget of %d", p.activePlans, th.ComplexityBudgetMax)
	}
	baseline := p.baselineValueLocked(key)
	constraint, constrained := p.constraints[key]
	p.mu.Unlock()

	resolved := *action
	resolved.ResolvedParameter = key

	sim, err := p.sim.Simulate(ctx, resolved, m, th, m.Tick, diag.Violation.EstimatedLag)
	if err != nil {
		if errors.Is(err, simulator.ErrPreempted) {
			return nil, domain.ResultSkippedTimeout, "simulation preempted by tick deadline"
		}
		return nil, domain.ResultSkippedSimulation, err.Error()
	}
	if !sim.NetImprovement || !sim.NoNewProblems || sim.OvershootRisk > 0.5 {
		return nil, domain.ResultSkippedSimulation,
			fmt.Sprintf("simulation rejected: improvement=%t noNewProblems=%t overshootRisk=%.2f",
				sim.NetImprovement, sim.NoNewProblems, sim.OvershootRisk)
	}

	magnitude := resolved.Magnitude
	if magnitude > th.MaxAdjustmentPercent {
		magnitude = th.MaxAdjustmentPercent
	}
	target := baseline * (1 + magnitude)
	if resolved.Direction == domain.DirectionDecrease {
		target = baseline * (1 - magnitude)
	}
	if constrained {
		if target < constraint.Min {
			target = constraint.Min
		}
		if target > constraint.Max {
			target = constraint.Max
		}
	}

	plan := &domain.ActionPlan{
		ID:               uuid.NewString(),
		Diagnosis:        diag,
		Parameter:        key,
		Scope:            resolved.Scope,
		CurrentValue:     baseline,
		TargetValue:      target,
		MaxChangePercent: th.MaxAdjustmentPercent,
		CooldownTicks:    th.CooldownTicks,
		Rollback:         rollbackFor(diag, m, th),
		Simulation:       sim,
		EstimatedLag:     diag.Violation.EstimatedLag,
	}
	plan.Diagnosis.Violation.SuggestedAction = &resolved
	return plan, "", ""
}

// resolveKey maps the action's type+scope onto a concrete parameter key.
// With an empty registry the type itself becomes the key.
func (p *Planner) resolveKey(action domain.SuggestedAction) (string, domain.DecisionResult, string) {
	if p.registry == nil || p.registry.Empty() {
		return action.ParameterType, "", ""
	}
	param := p.registry.Resolve(action.ParameterType, action.Scope)
	if param == nil {
		return "", domain.ResultSkippedUnresolved,
			fmt.Sprintf("no registered parameter matches type %q scope %q",
				action.ParameterType, action.Scope.Canonical())
	}
	return param.Key, "", ""
}

// baselineValueLocked finds the current value for a key: registry first,
// then the engine-tracked param map, then 1.
func (p *Planner) baselineValueLocked(key string) float64 {
	if p.registry != nil {
		if v, ok := p.registry.CurrentValue(key); ok {
			return v
		}
	}
	if v, ok := p.params[key]; ok {
		return v
	}
	return 1
}

// RollbackWatch names the metric an applied plan watches after apply and
// the side of the threshold that triggers a rollback.
type RollbackWatch struct {
	Metric    string
	Direction domain.RollbackDirection
	Threshold func(th *domain.Thresholds) float64
}

// RollbackByCategory maps principle categories to their post-apply watch.
// Categories without an entry, and entries whose metric the host is not
// currently reporting, watch avgSatisfaction against the satisfaction
// floor. Supply-chain and resource violations override this with the
// affected resource's supply path when the evidence names one.
var RollbackByCategory = map[string]RollbackWatch{
	domain.CategoryOperations: {
		Metric:    "eventCompletionRate",
		Direction: domain.RollbackBelow,
		Threshold: func(th *domain.Thresholds) float64 { return th.EventCompletionRateMin },
	},
	domain.CategoryMeasurement: {
		Metric:    "eventCompletionRate",
		Direction: domain.RollbackBelow,
		Threshold: func(th *domain.Thresholds) float64 { return th.EventCompletionRateMin },
	},
}

// rollbackFor derives a rollback condition from the principle category.
func rollbackFor(diag domain.Diagnosis, m *domain.EconomyMetrics, th *domain.Thresholds) domain.RollbackCondition {
	checkAfter := m.Tick + diag.Violation.EstimatedLag

	switch diag.Principle.Category {
	case domain.CategorySupplyChain, domain.CategoryResource:
		if r, ok := diag.Violation.Evidence["resource"].(string); ok && r != "" {
			return domain.RollbackCondition{
				Metric:         "supplyByResource." + r,
				Direction:      domain.RollbackBelow,
				Threshold:      0,
				CheckAfterTick: checkAfter,
			}
		}
	}

	if watch, ok := RollbackByCategory[diag.Principle.Category]; ok {
		// An unreported metric reads NaN, which the executor treats as a
		// rollback trigger on the first sweep; watch satisfaction instead.
		if !math.IsNaN(m.MetricValue(watch.Metric)) {
			return domain.RollbackCondition{
				Metric:         watch.Metric,
				Direction:      watch.Direction,
				Threshold:      watch.Threshold(th),
				CheckAfterTick: checkAfter,
			}
		}
	}

	return domain.RollbackCondition{
		Metric:         "avgSatisfaction",
		Direction:      domain.RollbackBelow,
		Threshold:      th.SatisfactionFloor,
		CheckAfterTick: checkAfter,
	}
}

// NoteApplied records a successful apply: cooldown stamp, active-plan
// count, and the key's last known value.
func (p *Planner) NoteApplied(plan *domain.ActionPlan, tick int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	action := plan.Diagnosis.Violation.SuggestedAction
	if action != nil {
		p.lastApplied[cooldownKey(action.ParameterType, plan.Scope)] = tick
	}
	p.params[plan.Parameter] = plan.TargetValue
	p.activePlans++
}

// NoteResolved is called when an active plan settles or rolls back. The
// counter never goes below zero.
func (p *Planner) NoteResolved(plan *domain.ActionPlan, rolledBack bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rolledBack {
		p.params[plan.Parameter] = plan.CurrentValue
	}
	if p.activePlans > 0 {
		p.activePlans--
	}
}

// ActivePlans returns the current active-plan count.
func (p *Planner) ActivePlans() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activePlans
}

// Lock marks keys as off-limits for planning.
func (p *Planner) Lock(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		p.locked[k] = true
	}
}

// Unlock releases locked keys.
func (p *Planner) Unlock(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.locked, k)
	}
}

// Constrain bounds the values the Planner may target for one parameter.
func (p *Planner) Constrain(param string, min, max float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.constraints[param] = Constraint{Min: min, Max: max}
}

// SetParam seeds or updates the engine-tracked value of a parameter key,
// used as the baseline when the registry carries no current value.
func (p *Planner) SetParam(key string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params[key] = value
}

func cooldownKey(parameterType string, scope *domain.Scope) string {
	return parameterType + "|" + scope.Canonical()
}
