// Package domain contains the core types of the Agent-E economy control
// loop: host-supplied snapshots and events, derived metrics, thresholds,
// principles, plans and decisions. The domain layer is pure - it has no
// infrastructure dependencies.
package domain

import "fmt"

// EventType identifies the kind of an economic event.
type EventType string

// Valid economic event types. The set is part of the host wire contract.
const (
	EventTrade      EventType = "trade"
	EventMint       EventType = "mint"
	EventBurn       EventType = "burn"
	EventTransfer   EventType = "transfer"
	EventProduce    EventType = "produce"
	EventConsume    EventType = "consume"
	EventRoleChange EventType = "role_change"
	EventEnter      EventType = "enter"
	EventChurn      EventType = "churn"
)

// ValidEventTypes lists every accepted EconomicEvent type.
var ValidEventTypes = map[EventType]bool{
	EventTrade:      true,
	EventMint:       true,
	EventBurn:       true,
	EventTransfer:   true,
	EventProduce:    true,
	EventConsume:    true,
	EventRoleChange: true,
	EventEnter:      true,
	EventChurn:      true,
}

// EconomicEvent is a tagged variant describing one economic occurrence
// reported by the host. Optional payload fields are zero-valued when the
// variant does not use them.
type EconomicEvent struct {
	Type         EventType `json:"type"`
	Timestamp    float64   `json:"timestamp"`
	Actor        string    `json:"actor"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	Amount       float64   `json:"amount,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Resource     string    `json:"resource,omitempty"`
	System       string    `json:"system,omitempty"`
	SourceOrSink string    `json:"sourceOrSink,omitempty"`
}

// EconomyState is the immutable snapshot of the host economy at one tick.
// The engine never mutates a submitted state.
type EconomyState struct {
	Tick       int      `json:"tick"`
	Currencies []string `json:"currencies"`
	Roles      []string `json:"roles,omitempty"`
	Resources  []string `json:"resources,omitempty"`

	// AgentBalances maps agent -> currency -> balance.
	AgentBalances map[string]map[string]float64 `json:"agentBalances"`
	// AgentRoles maps agent -> role name.
	AgentRoles map[string]string `json:"agentRoles,omitempty"`
	// AgentInventories maps agent -> resource -> quantity.
	AgentInventories map[string]map[string]float64 `json:"agentInventories,omitempty"`
	// AgentSatisfaction maps agent -> satisfaction in [0, 100].
	AgentSatisfaction map[string]float64 `json:"agentSatisfaction,omitempty"`

	// MarketPrices maps currency -> resource -> price.
	MarketPrices map[string]map[string]float64 `json:"marketPrices,omitempty"`
	// PoolSizes maps currency -> pool name -> amount held outside balances.
	PoolSizes map[string]map[string]float64 `json:"poolSizes,omitempty"`

	RecentTransactions []EconomicEvent `json:"recentTransactions,omitempty"`

	Systems []string `json:"systems,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Sinks   []string `json:"sinks,omitempty"`

	// EventCompletionRate is host-reported telemetry in [0, 1]: the share
	// of multi-step flows finished this tick. Nil when the host does not
	// track it.
	EventCompletionRate *float64 `json:"eventCompletionRate,omitempty"`
}

// ValidationResult carries itemized state validation output. Errors make a
// state unusable; warnings are advisory and returned to the host alongside
// the tick result.
type ValidationResult struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Valid reports whether the state can be processed.
func (v ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateState checks a host snapshot for structural problems.
// Missing optional fields are fine (treated as empty downstream); errors are
// reserved for states the pipeline cannot interpret at all.
func ValidateState(s *EconomyState) ValidationResult {
	var res ValidationResult

	if s == nil {
		res.Errors = append(res.Errors, "state is required")
		return res
	}
	if s.Tick < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("tick must be >= 0, got %d", s.Tick))
	}
	if len(s.Currencies) == 0 {
		res.Errors = append(res.Errors, "at least one currency is required")
	}

	known := make(map[string]bool, len(s.Currencies))
	for i, c := range s.Currencies {
		if c == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("currencies[%d] is empty", i))
			continue
		}
		if known[c] {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate currency %q", c))
		}
		known[c] = true
	}

	for agent, balances := range s.AgentBalances {
		for currency := range balances {
			if !known[currency] {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("agent %q holds undeclared currency %q", agent, currency))
			}
		}
	}
	for agent, sat := range s.AgentSatisfaction {
		if sat < 0 || sat > 100 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("agent %q satisfaction %.2f outside [0,100]", agent, sat))
		}
	}
	if r := s.EventCompletionRate; r != nil && (*r < 0 || *r > 1) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("eventCompletionRate %.2f outside [0,1]", *r))
	}

	return res
}

// ValidateEvent checks a single host event. Unknown types are errors so that
// a misspelled type never silently drops volume from the flow metrics.
func ValidateEvent(e *EconomicEvent) error {
	if e == nil {
		return fmt.Errorf("event is required")
	}
	if !ValidEventTypes[e.Type] {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Amount < 0 {
		return fmt.Errorf("event amount must be >= 0, got %f", e.Amount)
	}
	return nil
}
