// Package engine wires the five pipeline stages together and serializes
// tick processing. One tick runs at a time per engine; transports may call
// the read-side accessors concurrently.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/decisionlog"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/diagnoser"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/executor"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/metrics"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/observer"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/planner"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/principles"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/simulator"
)

// DefaultTickDeadline bounds one tick from snapshot-in to decision-logged.
const DefaultTickDeadline = 10 * time.Second

// eventBufferCap bounds the push-mode event buffer between ticks.
const eventBufferCap = 10000

// Config selects engine construction options.
type Config struct {
	Mode           domain.EngineMode
	Thresholds     *domain.Thresholds
	TickDeadline   time.Duration
	SimulationSeed int64
	Adapter        domain.Adapter // optional pull-mode host adapter
}

// ValidationError is returned when a submitted state cannot be processed.
type ValidationError struct {
	Result domain.ValidationResult
}

func (e *ValidationError) Error() string {
	return "invalid state: " + strings.Join(e.Result.Errors, "; ")
}

// TickResult is the host-facing outcome of one processed tick.
type TickResult struct {
	Tick               int                 `json:"tick"`
	Health             float64             `json:"health"`
	Adjustments        []domain.Adjustment `json:"adjustments"`
	Alerts             []domain.Alert      `json:"alerts"`
	ValidationWarnings []string            `json:"validationWarnings,omitempty"`
}

// DiagnoseResult is the outcome of a side-effect-free diagnosis.
type DiagnoseResult struct {
	Health    float64            `json:"health"`
	Diagnoses []domain.Diagnosis `json:"diagnoses"`
}

// ConstraintUpdate bounds one parameter via POST /config.
type ConstraintUpdate struct {
	Param string  `json:"param"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ConfigUpdate is the runtime configuration surface.
type ConfigUpdate struct {
	Lock      []string           `json:"lock,omitempty"`
	Unlock    []string           `json:"unlock,omitempty"`
	Constrain []ConstraintUpdate `json:"constrain,omitempty"`
	Mode      string             `json:"mode,omitempty"`
}

// Engine owns the pipeline stages and all shared state.
type Engine struct {
	mu sync.Mutex // serializes tick and diagnose processing

	cfgMu     sync.RWMutex
	mode      domain.EngineMode
	deadline  time.Duration
	adapter   domain.Adapter
	personaMu sync.Mutex
	personas  map[string]float64

	thresholds *domain.Thresholds

	obs       *observer.Observer
	store     *metrics.Store
	diag      *diagnoser.Diagnoser
	plan      *planner.Planner
	exec      *executor.Executor
	decisions *decisionlog.Log
	reg       *registry.Registry

	evMu   sync.Mutex
	events []domain.EconomicEvent

	startedAt time.Time
	log       zerolog.Logger
}

// New builds a fully wired engine with the built-in principle catalog.
func New(cfg Config, log zerolog.Logger) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeAutonomous
	}
	if cfg.Thresholds == nil {
		th := domain.DefaultThresholds()
		cfg.Thresholds = &th
	}
	if cfg.TickDeadline <= 0 {
		cfg.TickDeadline = DefaultTickDeadline
	}
	if cfg.SimulationSeed == 0 {
		cfg.SimulationSeed = time.Now().UnixNano()
	}

	engineLog := log.With().Str("component", "engine").Logger()
	reg := registry.New(log)
	sim := simulator.New(reg, cfg.SimulationSeed, log)
	exec := executor.New(cfg.Adapter, reg, log)

	return &Engine{
		mode:       cfg.Mode,
		deadline:   cfg.TickDeadline,
		adapter:    cfg.Adapter,
		thresholds: cfg.Thresholds,
		obs:        observer.New(log),
		store:      metrics.NewStore(metrics.Config{DivergenceThreshold: cfg.Thresholds.DivergenceThreshold}, log),
		diag:       diagnoser.New(principles.All(), log),
		plan:       planner.New(reg, sim, log),
		exec:       exec,
		decisions:  decisionlog.New(decisionlog.DefaultMaxEntries, log),
		reg:        reg,
		startedAt:  time.Now(),
		log:        engineLog,
	}
}

// ProcessTick runs the full pipeline for one host snapshot. Buffered
// push-mode events are drained into this tick ahead of the submitted ones.
func (e *Engine) ProcessTick(state *domain.EconomyState, events []domain.EconomicEvent) (*TickResult, error) {
	validation := domain.ValidateState(state)
	if !validation.Valid() {
		return nil, &ValidationError{Result: validation}
	}
	kept := make([]domain.EconomicEvent, 0, len(events))
	for i := range events {
		if err := domain.ValidateEvent(&events[i]); err != nil {
			validation.Warnings = append(validation.Warnings,
				fmt.Sprintf("event %d dropped: %v", i, err))
			continue
		}
		kept = append(kept, events[i])
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.tickDeadline())
	defer cancel()

	all := append(e.drainEvents(), kept...)

	rec := &recordingAdapter{inner: e.hostAdapter()}
	e.exec.SetAdapter(rec)

	m := e.obs.Observe(state, all, e.latestPersonas())
	e.store.Record(m)

	for _, outcome := range e.exec.CheckRollbacks(m, m.Tick) {
		e.plan.NoteResolved(outcome.Plan, outcome.RolledBack)
		e.record(&domain.DecisionEntry{
			ID:              uuid.NewString(),
			Tick:            m.Tick,
			Diagnosis:       &outcome.Plan.Diagnosis,
			Plan:            outcome.Plan,
			Result:          outcome.Result,
			Reasoning:       outcome.Reasoning,
			MetricsSnapshot: m.Clone(),
		})
	}

	diagnoses := e.diag.Diagnose(m, e.thresholds, m.Tick)
	alerts := make([]domain.Alert, 0, len(diagnoses))
	for _, d := range diagnoses {
		alerts = append(alerts, domain.Alert{
			PrincipleID:   d.Principle.ID,
			PrincipleName: d.Principle.Name,
			Severity:      d.Violation.Severity,
			Evidence:      d.Violation.Evidence,
			Reasoning:     reasoningFor(d),
		})
	}

	if len(diagnoses) > 0 {
		e.decide(ctx, diagnoses[0], m)
	}

	return &TickResult{
		Tick:               m.Tick,
		Health:             metrics.HealthScore(m),
		Adjustments:        rec.take(),
		Alerts:             alerts,
		ValidationWarnings: validation.Warnings,
	}, nil
}

// decide runs the plan/execute tail of the pipeline for the top diagnosis
// and records exactly one decision entry.
func (e *Engine) decide(ctx context.Context, top domain.Diagnosis, m *domain.EconomyMetrics) {
	entry := &domain.DecisionEntry{
		ID:              uuid.NewString(),
		Tick:            m.Tick,
		Diagnosis:       &top,
		MetricsSnapshot: m.Clone(),
	}

	plan, skipResult, reason := e.plan.Plan(ctx, top, m, e.thresholds)
	if plan == nil {
		entry.Result = skipResult
		entry.Reasoning = reason
		e.record(entry)
		return
	}
	entry.Plan = plan

	if e.Mode() == domain.ModeAdvisor {
		entry.Result = domain.ResultSkippedAdvisor
		entry.Reasoning = fmt.Sprintf("advisor mode: would set %s to %.4f", plan.Parameter, plan.TargetValue)
		e.record(entry)
		return
	}

	if err := e.exec.Apply(plan, m.Tick); err != nil {
		entry.Result = domain.ResultApplyFailed
		entry.Reasoning = fmt.Sprintf("setParam failed: %v", err)
		e.record(entry)
		return
	}
	e.plan.NoteApplied(plan, m.Tick)
	entry.Result = domain.ResultApplied
	entry.Reasoning = reasoningFor(top)
	e.record(entry)
}

// Diagnose evaluates a snapshot without recording anything.
func (e *Engine) Diagnose(state *domain.EconomyState, events []domain.EconomicEvent) (*DiagnoseResult, error) {
	validation := domain.ValidateState(state)
	if !validation.Valid() {
		return nil, &ValidationError{Result: validation}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.obs.Preview(state, events)
	return &DiagnoseResult{
		Health:    metrics.HealthScore(m),
		Diagnoses: e.diag.Diagnose(m, e.thresholds, m.Tick),
	}, nil
}

// PullTick fetches the state from the configured adapter and processes it.
func (e *Engine) PullTick() (*TickResult, error) {
	adapter := e.hostAdapter()
	if adapter == nil {
		return nil, fmt.Errorf("no adapter configured")
	}
	state, err := adapter.GetState()
	if err != nil {
		return nil, fmt.Errorf("adapter getState: %w", err)
	}
	return e.ProcessTick(state, nil)
}

// BufferEvent queues one push-mode event for the next tick.
func (e *Engine) BufferEvent(ev domain.EconomicEvent) error {
	if err := domain.ValidateEvent(&ev); err != nil {
		return err
	}
	e.evMu.Lock()
	defer e.evMu.Unlock()
	if len(e.events) >= eventBufferCap {
		return fmt.Errorf("event buffer full (%d events pending)", len(e.events))
	}
	e.events = append(e.events, ev)
	return nil
}

// RecordPersonas stores a host-supplied persona distribution used by the
// Observer's role fallback.
func (e *Engine) RecordPersonas(distribution map[string]float64) {
	e.personaMu.Lock()
	defer e.personaMu.Unlock()
	e.personas = distribution
}

func (e *Engine) latestPersonas() map[string]float64 {
	e.personaMu.Lock()
	defer e.personaMu.Unlock()
	dist := e.personas
	e.personas = nil
	return dist
}

func (e *Engine) drainEvents() []domain.EconomicEvent {
	e.evMu.Lock()
	defer e.evMu.Unlock()
	events := e.events
	e.events = nil
	return events
}

// Configure applies a runtime configuration update.
func (e *Engine) Configure(update ConfigUpdate) error {
	if update.Mode != "" {
		switch domain.EngineMode(update.Mode) {
		case domain.ModeAutonomous, domain.ModeAdvisor:
			e.cfgMu.Lock()
			e.mode = domain.EngineMode(update.Mode)
			e.cfgMu.Unlock()
		default:
			return fmt.Errorf("unknown mode %q", update.Mode)
		}
	}
	e.plan.Lock(update.Lock...)
	e.plan.Unlock(update.Unlock...)
	for _, c := range update.Constrain {
		if c.Param == "" {
			return fmt.Errorf("constrain entry missing param")
		}
		if c.Min > c.Max {
			return fmt.Errorf("constrain %s: min %.4f above max %.4f", c.Param, c.Min, c.Max)
		}
		e.plan.Constrain(c.Param, c.Min, c.Max)
	}
	return nil
}

// Mode returns the current engine mode.
func (e *Engine) Mode() domain.EngineMode {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.mode
}

// SetAdapter installs or replaces the pull-mode host adapter.
func (e *Engine) SetAdapter(a domain.Adapter) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	e.adapter = a
}

func (e *Engine) hostAdapter() domain.Adapter {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.adapter
}

func (e *Engine) tickDeadline() time.Duration {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.deadline
}

// Health summarizes engine status for transports and the status monitor.
type Health struct {
	Health      float64           `json:"health"`
	Tick        int               `json:"tick"`
	Mode        domain.EngineMode `json:"mode"`
	ActivePlans int               `json:"activePlans"`
	Uptime      float64           `json:"uptime"` // seconds
	Divergence  bool              `json:"divergence"`
}

// Status computes the current health summary from the latest fine record.
func (e *Engine) Status() Health {
	latest := e.store.Latest(metrics.ResolutionFine)
	tick := 0
	health := 0.0
	if latest != nil {
		tick = latest.Tick
		health = metrics.HealthScore(latest)
	}
	return Health{
		Health:      health,
		Tick:        tick,
		Mode:        e.Mode(),
		ActivePlans: e.exec.ActiveCount(),
		Uptime:      time.Since(e.startedAt).Seconds(),
		Divergence:  e.store.DivergenceDetected(),
	}
}

// Principles exposes the registered catalog.
func (e *Engine) Principles() []domain.Principle {
	return e.diag.Principles()
}

// Registry exposes the parameter registry for transports.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Store exposes the metric store for transports.
func (e *Engine) Store() *metrics.Store {
	return e.store
}

// Decisions exposes the decision log for transports.
func (e *Engine) Decisions() *decisionlog.Log {
	return e.decisions
}

// Thresholds returns the engine thresholds. Callers treat them as
// read-only after construction.
func (e *Engine) Thresholds() *domain.Thresholds {
	return e.thresholds
}

func (e *Engine) record(entry *domain.DecisionEntry) {
	e.decisions.Record(entry)
	e.log.Info().
		Int("tick", entry.Tick).
		Str("result", string(entry.Result)).
		Str("reasoning", entry.Reasoning).
		Msg("decision recorded")
}

// reasoningFor prefers the principle's suggested-action reasoning and
// falls back to a generic line.
func reasoningFor(d domain.Diagnosis) string {
	if d.Violation.SuggestedAction != nil && d.Violation.SuggestedAction.Reasoning != "" {
		return d.Violation.SuggestedAction.Reasoning
	}
	return fmt.Sprintf("%s (%s) violated with severity %.0f", d.Principle.Name, d.Principle.ID, d.Violation.Severity)
}

// recordingAdapter wraps the host adapter, mirroring every SetParam call
// into the tick's adjustment list. With no inner adapter (inline HTTP
// hosts) writes always succeed and are delivered via the tick result.
type recordingAdapter struct {
	inner       domain.Adapter
	adjustments []domain.Adjustment
}

func (r *recordingAdapter) GetState() (*domain.EconomyState, error) {
	if r.inner == nil {
		return nil, fmt.Errorf("no host adapter")
	}
	return r.inner.GetState()
}

func (r *recordingAdapter) SetParam(key string, value float64, scope *domain.Scope) error {
	if r.inner != nil {
		if err := r.inner.SetParam(key, value, scope); err != nil {
			return err
		}
	}
	r.adjustments = append(r.adjustments, domain.Adjustment{Key: key, Value: value, Scope: scope})
	return nil
}

func (r *recordingAdapter) take() []domain.Adjustment {
	if r.adjustments == nil {
		return []domain.Adjustment{}
	}
	return r.adjustments
}
