// Package observer derives the full per-tick EconomyMetrics record from a
// host snapshot and its economic events. Apart from caching the previous
// record (for deltas) and the engagement ring, observation is a pure
// computation: missing inputs become zeros, division is guarded, and NaN
// never leaks except through eventCompletionRate.
package observer

import (
	"math"
	"sort"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/rs/zerolog"
)

// Observer computes EconomyMetrics from host snapshots.
type Observer struct {
	prev       *domain.EconomyMetrics
	engagement engagementWindow
	personas   *PersonaTracker

	// priceBaseline is the first observed price index per run; anchor
	// drift is measured against it.
	priceBaseline   float64
	hasBaseline     bool
	lastContentTick int
	hasContent      bool

	// readOnly suppresses all state writes during Preview.
	readOnly bool

	log zerolog.Logger
}

// New creates an Observer.
func New(log zerolog.Logger) *Observer {
	return &Observer{
		personas: NewPersonaTracker(),
		log:      log.With().Str("component", "observer").Logger(),
	}
}

// Personas exposes the tracker (the engine records host-supplied
// distributions through it).
func (o *Observer) Personas() *PersonaTracker {
	return o.personas
}

// Observe derives a fresh metrics record for the snapshot. The previous
// call's record feeds the delta metrics (inflation, anchor drift).
func (o *Observer) Observe(state *domain.EconomyState, events []domain.EconomicEvent, personaDistribution map[string]float64) *domain.EconomyMetrics {
	o.personas.Record(personaDistribution)
	return o.derive(state, events)
}

// Preview derives metrics without recording anything: no previous-record
// update, no engagement sample, no baseline capture. Used by the
// diagnose-only path, which must leave the run untouched.
func (o *Observer) Preview(state *domain.EconomyState, events []domain.EconomicEvent) *domain.EconomyMetrics {
	o.readOnly = true
	defer func() { o.readOnly = false }()
	return o.derive(state, events)
}

func (o *Observer) derive(state *domain.EconomyState, events []domain.EconomicEvent) *domain.EconomyMetrics {
	m := &domain.EconomyMetrics{
		Tick:                state.Tick,
		Currencies:          append([]string(nil), state.Currencies...),
		Systems:             append([]string(nil), state.Systems...),
		Sources:             append([]string(nil), state.Sources...),
		Sinks:               append([]string(nil), state.Sinks...),
		EventCompletionRate: math.NaN(),
	}
	if state.EventCompletionRate != nil {
		m.EventCompletionRate = *state.EventCompletionRate
	}

	primary := ""
	if len(state.Currencies) > 0 {
		primary = state.Currencies[0]
	}

	o.observeSupply(state, m)
	o.observeWealth(state, m)
	flows := o.observeFlows(state, events, primary, m)
	o.observeTrade(state, events, flows, m)
	o.observePrices(state, primary, m)
	o.observePopulation(state, events, m)
	o.observeResources(state, events, m)
	o.observePools(state, m)
	o.observeEngagement(m)

	if !o.readOnly {
		o.prev = m
	}
	return m.Clone()
}

// observeSupply fills per-currency and total supply.
func (o *Observer) observeSupply(state *domain.EconomyState, m *domain.EconomyMetrics) {
	m.TotalSupplyByCurrency = make(map[string]float64, len(state.Currencies))
	for _, c := range state.Currencies {
		m.TotalSupplyByCurrency[c] = 0
	}
	for _, balances := range state.AgentBalances {
		for currency, amount := range balances {
			m.TotalSupplyByCurrency[currency] += amount
		}
	}
	for _, c := range state.Currencies {
		m.TotalSupply += m.TotalSupplyByCurrency[c]
	}

	m.InflationRateByCurrency = make(map[string]float64, len(state.Currencies))
	var prevTotal float64
	for _, c := range state.Currencies {
		var prevSupply float64
		if o.prev != nil {
			prevSupply = o.prev.TotalSupplyByCurrency[c]
		}
		prevTotal += prevSupply
		if o.prev == nil {
			m.InflationRateByCurrency[c] = 0
			continue
		}
		m.InflationRateByCurrency[c] = noNaN(safeDiv(m.TotalSupplyByCurrency[c]-prevSupply, prevSupply))
	}
	if o.prev != nil {
		m.InflationRate = noNaN(safeDiv(m.TotalSupply-prevTotal, prevTotal))
	}
}

// observeWealth fills distribution metrics per currency plus aggregates
// over each agent's combined balance.
func (o *Observer) observeWealth(state *domain.EconomyState, m *domain.EconomyMetrics) {
	m.GiniCoefficientByCurrency = make(map[string]float64, len(state.Currencies))
	m.MeanBalanceByCurrency = make(map[string]float64, len(state.Currencies))
	m.MedianBalanceByCurrency = make(map[string]float64, len(state.Currencies))
	m.Top10PctShareByCurrency = make(map[string]float64, len(state.Currencies))
	m.MeanMedianDivergenceByCurrency = make(map[string]float64, len(state.Currencies))

	combined := make([]float64, 0, len(state.AgentBalances))
	blocked := 0.0
	for _, balances := range state.AgentBalances {
		var total float64
		for _, amount := range balances {
			total += amount
		}
		combined = append(combined, total)
		if total == 0 {
			blocked++
		}
	}
	m.BlockedAgentCount = blocked

	for _, c := range state.Currencies {
		balances := make([]float64, 0, len(state.AgentBalances))
		for _, agentBalances := range state.AgentBalances {
			balances = append(balances, agentBalances[c])
		}

		mn := mean(balances)
		md := median(balances)
		m.GiniCoefficientByCurrency[c] = gini(balances)
		m.MeanBalanceByCurrency[c] = mn
		m.MedianBalanceByCurrency[c] = md
		m.Top10PctShareByCurrency[c] = top10PctShare(balances)
		m.MeanMedianDivergenceByCurrency[c] = noNaN(safeDiv(math.Abs(mn-md), mn))
	}

	m.GiniCoefficient = gini(combined)
	m.MeanBalance = mean(combined)
	m.MedianBalance = median(combined)
	m.Top10PctShare = top10PctShare(combined)
	m.MeanMedianDivergence = noNaN(safeDiv(math.Abs(m.MeanBalance-m.MedianBalance), m.MeanBalance))
}

// flowTotals carries intermediate per-event aggregates shared between the
// flow and trade passes.
type flowTotals struct {
	tradeVolumeByCurrency map[string]float64
	tradeVolume           float64
	tradeCount            float64
	transferVolume        float64
	enterVolume           float64
	churnCount            float64
	produceVolume         float64
	consumeVolume         float64
}

// observeFlows ingests events into faucet/sink/flow metrics.
// The `enter` type is a global faucet but is excluded from per-system and
// per-source aggregation - onboarding bonuses would otherwise inflate
// system-local flow.
func (o *Observer) observeFlows(state *domain.EconomyState, events []domain.EconomicEvent, primary string, m *domain.EconomyMetrics) *flowTotals {
	m.FaucetVolumeByCurrency = make(map[string]float64, len(state.Currencies))
	m.SinkVolumeByCurrency = make(map[string]float64, len(state.Currencies))
	m.NetFlowByCurrency = make(map[string]float64, len(state.Currencies))
	m.TapSinkRatioByCurrency = make(map[string]float64, len(state.Currencies))
	m.FlowBySystem = make(map[string]float64)
	m.FlowBySource = make(map[string]float64)
	m.ActivityBySystem = make(map[string]float64)
	m.ParticipantsBySystem = make(map[string]float64)

	flows := &flowTotals{
		tradeVolumeByCurrency: make(map[string]float64, len(state.Currencies)),
	}
	participants := make(map[string]map[string]bool)

	for i := range events {
		e := &events[i]
		currency := e.Currency
		if currency == "" {
			currency = primary
		}
		if e.System != "" {
			m.ActivityBySystem[e.System]++
			if e.Actor != "" {
				if participants[e.System] == nil {
					participants[e.System] = make(map[string]bool)
				}
				participants[e.System][e.Actor] = true
			}
		}

		switch e.Type {
		case domain.EventMint:
			m.FaucetVolumeByCurrency[currency] += e.Amount
			o.addSystemFlow(m, e, e.Amount)
		case domain.EventEnter:
			m.FaucetVolumeByCurrency[currency] += e.Amount
			flows.enterVolume += e.Amount
		case domain.EventBurn, domain.EventConsume:
			m.SinkVolumeByCurrency[currency] += e.Amount
			o.addSystemFlow(m, e, -e.Amount)
			if e.Type == domain.EventConsume {
				flows.consumeVolume += e.Amount
			}
		case domain.EventTrade:
			flows.tradeVolumeByCurrency[currency] += e.Amount
			flows.tradeVolume += e.Amount
			flows.tradeCount++
		case domain.EventTransfer:
			flows.transferVolume += e.Amount
		case domain.EventProduce:
			flows.produceVolume += e.Amount
			o.markContent(state.Tick)
		case domain.EventChurn:
			flows.churnCount++
		}
	}

	for system, agents := range participants {
		m.ParticipantsBySystem[system] = float64(len(agents))
	}

	for _, c := range state.Currencies {
		faucet := m.FaucetVolumeByCurrency[c]
		sink := m.SinkVolumeByCurrency[c]
		m.NetFlowByCurrency[c] = faucet - sink
		m.TapSinkRatioByCurrency[c] = safeDiv(faucet, sink)
		m.FaucetVolume += faucet
		m.SinkVolume += sink
	}
	m.NetFlow = m.FaucetVolume - m.SinkVolume
	m.TapSinkRatio = safeDiv(m.FaucetVolume, m.SinkVolume)
	m.NewUserDependency = noNaN(safeDiv(flows.enterVolume, m.FaucetVolume))

	return flows
}

// addSystemFlow books signed flow against a system and a source/sink name.
func (o *Observer) addSystemFlow(m *domain.EconomyMetrics, e *domain.EconomicEvent, signed float64) {
	if e.System != "" {
		m.FlowBySystem[e.System] += signed
	}
	if e.SourceOrSink != "" {
		m.FlowBySource[e.SourceOrSink] += signed
	}
}

// observeTrade fills velocity, trade-shape ratios and extraction.
func (o *Observer) observeTrade(state *domain.EconomyState, events []domain.EconomicEvent, flows *flowTotals, m *domain.EconomyMetrics) {
	m.VelocityByCurrency = make(map[string]float64, len(state.Currencies))
	for _, c := range state.Currencies {
		m.VelocityByCurrency[c] = safeDiv(flows.tradeVolumeByCurrency[c], m.TotalSupplyByCurrency[c])
	}
	m.Velocity = safeDiv(flows.tradeVolume, m.TotalSupply)

	m.GiftTradeRatio = noNaN(safeDiv(flows.transferVolume, flows.tradeVolume+flows.transferVolume))

	// Disposal trades: sales into sinks - approximated as consume volume
	// relative to trade volume.
	m.DisposalTradeRatio = noNaN(safeDiv(flows.consumeVolume, flows.tradeVolume+flows.consumeVolume))

	// Extraction: event volume moved by top-decile holders.
	m.ExtractionRatio = o.extractionRatio(state, events)
}

// extractionRatio measures what share of total event volume the top-decile
// holders move. High values mean whales dominate the flow of value.
func (o *Observer) extractionRatio(state *domain.EconomyState, events []domain.EconomicEvent) float64 {
	if len(state.AgentBalances) == 0 || len(events) == 0 {
		return 0
	}

	type holding struct {
		agent string
		total float64
	}
	holdings := make([]holding, 0, len(state.AgentBalances))
	for agent, balances := range state.AgentBalances {
		var total float64
		for _, amount := range balances {
			total += amount
		}
		holdings = append(holdings, holding{agent, total})
	}

	topN := int(math.Ceil(float64(len(holdings)) / 10))
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].total > holdings[j].total })
	topAgents := make(map[string]bool, topN)
	for _, h := range holdings[:topN] {
		topAgents[h.agent] = true
	}

	var total, top float64
	for i := range events {
		total += events[i].Amount
		if topAgents[events[i].Actor] {
			top += events[i].Amount
		}
	}
	return noNaN(safeDiv(top, total))
}

// observePrices fills price maps, price index, arbitrage and anchor drift.
func (o *Observer) observePrices(state *domain.EconomyState, primary string, m *domain.EconomyMetrics) {
	m.ArbitrageIndexByCurrency = make(map[string]float64, len(state.Currencies))
	if len(state.MarketPrices) > 0 {
		m.PricesByCurrency = make(map[string]map[string]float64, len(state.MarketPrices))
		for currency, prices := range state.MarketPrices {
			cp := make(map[string]float64, len(prices))
			for resource, price := range prices {
				cp[resource] = price
			}
			m.PricesByCurrency[currency] = cp
		}
		if prices, ok := state.MarketPrices[primary]; ok {
			m.Prices = make(map[string]float64, len(prices))
			for resource, price := range prices {
				m.Prices[resource] = price
			}
		}
	}

	for _, c := range state.Currencies {
		m.ArbitrageIndexByCurrency[c] = arbitrageIndex(state.MarketPrices[c])
	}
	m.ArbitrageIndex = m.ArbitrageIndexByCurrency[primary]

	var positive []float64
	for _, price := range m.Prices {
		if price > 0 {
			positive = append(positive, price)
		}
	}
	m.PriceIndex = mean(positive)

	// Anchor drift against the first observed price index of the run.
	if m.PriceIndex > 0 && !o.hasBaseline && !o.readOnly {
		o.priceBaseline = m.PriceIndex
		o.hasBaseline = true
	}
	if o.hasBaseline {
		m.AnchorRatioDrift = noNaN(safeDiv(math.Abs(m.PriceIndex-o.priceBaseline), o.priceBaseline))
	}
}

// observePopulation fills role populations, churn and satisfaction.
// When the snapshot has no role data - or every agent shares one role - the
// persona distribution scaled by the agent count stands in.
func (o *Observer) observePopulation(state *domain.EconomyState, events []domain.EconomicEvent, m *domain.EconomyMetrics) {
	totalAgents := len(state.AgentBalances)
	if totalAgents == 0 {
		totalAgents = len(state.AgentRoles)
	}
	m.TotalAgents = float64(totalAgents)

	byRole := make(map[string]float64)
	for _, role := range state.AgentRoles {
		byRole[role]++
	}

	if len(byRole) <= 1 {
		if dist := o.personas.Latest(); len(dist) > 0 {
			byRole = make(map[string]float64, len(dist))
			for persona, share := range dist {
				byRole[persona] = share * m.TotalAgents
			}
		}
	}
	m.PopulationByRole = byRole

	var population float64
	for _, count := range byRole {
		population += count
	}
	if population > 0 {
		m.RoleShares = make(map[string]float64, len(byRole))
		for role, count := range byRole {
			m.RoleShares[role] = count / population
		}
	}

	var churned float64
	activeActors := make(map[string]bool)
	for i := range events {
		if events[i].Type == domain.EventChurn {
			churned++
		}
		if events[i].Actor != "" {
			activeActors[events[i].Actor] = true
		}
	}
	m.ChurnRate = safeDiv(churned, m.TotalAgents)
	m.CapacityUsage = math.Min(1, safeDiv(float64(len(activeActors)), m.TotalAgents))

	if len(state.AgentSatisfaction) > 0 {
		samples := make([]float64, 0, len(state.AgentSatisfaction))
		for _, sat := range state.AgentSatisfaction {
			samples = append(samples, sat)
		}
		m.AvgSatisfaction = mean(samples)
	}
}

// observeResources fills inventory supply and the production index.
func (o *Observer) observeResources(state *domain.EconomyState, events []domain.EconomicEvent, m *domain.EconomyMetrics) {
	m.SupplyByResource = make(map[string]float64)
	for _, inventory := range state.AgentInventories {
		for resource, quantity := range inventory {
			m.SupplyByResource[resource] += quantity
		}
	}

	var produce, consume float64
	for i := range events {
		switch events[i].Type {
		case domain.EventProduce:
			produce += events[i].Amount
		case domain.EventConsume:
			consume += events[i].Amount
		}
	}
	m.ProductionIndex = safeDiv(produce, consume)

	if o.hasContent {
		m.ContentDropAge = float64(state.Tick - o.lastContentTick)
	}
}

// observePools copies host pool sizes.
func (o *Observer) observePools(state *domain.EconomyState, m *domain.EconomyMetrics) {
	if len(state.PoolSizes) == 0 {
		return
	}
	m.PoolSizesByCurrency = make(map[string]map[string]float64, len(state.PoolSizes))
	for currency, pools := range state.PoolSizes {
		cp := make(map[string]float64, len(pools))
		for name, size := range pools {
			cp[name] = size
		}
		m.PoolSizesByCurrency[currency] = cp
	}
}

// observeEngagement pushes the engagement proxy and reads back extrema.
func (o *Observer) observeEngagement(m *domain.EconomyMetrics) {
	if !o.readOnly {
		o.engagement.push(m.Velocity * m.TotalAgents)
	}
	m.CyclicalPeaks, m.CyclicalValleys = o.engagement.extrema()
}

// markContent notes that fresh content dropped at a tick.
func (o *Observer) markContent(tick int) {
	if o.readOnly {
		return
	}
	o.lastContentTick = tick
	o.hasContent = true
}
