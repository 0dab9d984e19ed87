package domain

import (
	"math"
	"reflect"
	"strings"
	"sync"
)

// EconomyMetrics is the fully derived per-tick record produced by the
// Observer. Every scalar is NaN-free except EventCompletionRate, which is
// NaN when the host does not report it (principles must guard).
//
// Many metrics exist both as an aggregate scalar and as a per-currency map.
// Principles prefer the per-currency form when currencies are declared; the
// aggregates remain for single-currency callers.
type EconomyMetrics struct {
	Tick       int      `json:"tick"`
	Currencies []string `json:"currencies,omitempty"`

	// Aggregate scalars.
	TotalSupply          float64 `json:"totalSupply"`
	NetFlow              float64 `json:"netFlow"`
	Velocity             float64 `json:"velocity"`
	InflationRate        float64 `json:"inflationRate"`
	GiniCoefficient      float64 `json:"giniCoefficient"`
	MeanBalance          float64 `json:"meanBalance"`
	MedianBalance        float64 `json:"medianBalance"`
	Top10PctShare        float64 `json:"top10PctShare"`
	MeanMedianDivergence float64 `json:"meanMedianDivergence"`
	AvgSatisfaction      float64 `json:"avgSatisfaction"`
	ChurnRate            float64 `json:"churnRate"`
	FaucetVolume         float64 `json:"faucetVolume"`
	SinkVolume           float64 `json:"sinkVolume"`
	TapSinkRatio         float64 `json:"tapSinkRatio"`
	ProductionIndex      float64 `json:"productionIndex"`
	CapacityUsage        float64 `json:"capacityUsage"`
	AnchorRatioDrift     float64 `json:"anchorRatioDrift"`
	ArbitrageIndex       float64 `json:"arbitrageIndex"`
	PriceIndex           float64 `json:"priceIndex"`
	ExtractionRatio      float64 `json:"extractionRatio"`
	NewUserDependency    float64 `json:"newUserDependency"`
	GiftTradeRatio       float64 `json:"giftTradeRatio"`
	DisposalTradeRatio   float64 `json:"disposalTradeRatio"`
	EventCompletionRate  float64 `json:"eventCompletionRate"`
	ContentDropAge       float64 `json:"contentDropAge"`
	BlockedAgentCount    float64 `json:"blockedAgentCount"`
	TotalAgents          float64 `json:"totalAgents"`

	// Per-currency versions of the flow and wealth scalars.
	TotalSupplyByCurrency          map[string]float64 `json:"totalSupplyByCurrency,omitempty"`
	NetFlowByCurrency              map[string]float64 `json:"netFlowByCurrency,omitempty"`
	VelocityByCurrency             map[string]float64 `json:"velocityByCurrency,omitempty"`
	InflationRateByCurrency        map[string]float64 `json:"inflationRateByCurrency,omitempty"`
	GiniCoefficientByCurrency      map[string]float64 `json:"giniCoefficientByCurrency,omitempty"`
	MeanBalanceByCurrency          map[string]float64 `json:"meanBalanceByCurrency,omitempty"`
	MedianBalanceByCurrency        map[string]float64 `json:"medianBalanceByCurrency,omitempty"`
	Top10PctShareByCurrency        map[string]float64 `json:"top10PctShareByCurrency,omitempty"`
	MeanMedianDivergenceByCurrency map[string]float64 `json:"meanMedianDivergenceByCurrency,omitempty"`
	FaucetVolumeByCurrency         map[string]float64 `json:"faucetVolumeByCurrency,omitempty"`
	SinkVolumeByCurrency           map[string]float64 `json:"sinkVolumeByCurrency,omitempty"`
	TapSinkRatioByCurrency         map[string]float64 `json:"tapSinkRatioByCurrency,omitempty"`
	ArbitrageIndexByCurrency       map[string]float64 `json:"arbitrageIndexByCurrency,omitempty"`

	// Structural maps.
	PopulationByRole     map[string]float64            `json:"populationByRole,omitempty"`
	RoleShares           map[string]float64            `json:"roleShares,omitempty"`
	SupplyByResource     map[string]float64            `json:"supplyByResource,omitempty"`
	Prices               map[string]float64            `json:"prices,omitempty"`
	PricesByCurrency     map[string]map[string]float64 `json:"pricesByCurrency,omitempty"`
	PoolSizesByCurrency  map[string]map[string]float64 `json:"poolSizesByCurrency,omitempty"`
	FlowBySystem         map[string]float64            `json:"flowBySystem,omitempty"`
	FlowBySource         map[string]float64            `json:"flowBySource,omitempty"`
	ActivityBySystem     map[string]float64            `json:"activityBySystem,omitempty"`
	ParticipantsBySystem map[string]float64            `json:"participantsBySystem,omitempty"`

	// Structural catalogs copied verbatim from the snapshot.
	Systems []string `json:"systems,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Sinks   []string `json:"sinks,omitempty"`

	CyclicalPeaks   []float64          `json:"cyclicalPeaks,omitempty"`
	CyclicalValleys []float64          `json:"cyclicalValleys,omitempty"`
	Custom          map[string]float64 `json:"custom,omitempty"`
}

// metricFieldIndex caches json tag -> struct field index for path lookups.
var (
	metricFieldOnce  sync.Once
	metricFieldIndex map[string]int
)

func buildMetricFieldIndex() {
	metricFieldIndex = make(map[string]int)
	t := reflect.TypeOf(EconomyMetrics{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" && name != "-" {
			metricFieldIndex[name] = i
		}
	}
}

// MetricValue resolves a dotted metric path against the record.
// The first segment names a scalar field or a map field; further segments
// index into maps ("poolSizesByCurrency.main.gold"). Unresolvable paths
// yield NaN, never an error - the rollback fail-safe depends on that.
func (m *EconomyMetrics) MetricValue(path string) float64 {
	if m == nil || path == "" {
		return math.NaN()
	}
	metricFieldOnce.Do(buildMetricFieldIndex)

	segments := strings.Split(path, ".")
	idx, ok := metricFieldIndex[segments[0]]
	if !ok {
		return math.NaN()
	}

	v := reflect.ValueOf(*m).Field(idx)
	for _, seg := range segments[1:] {
		if v.Kind() != reflect.Map {
			return math.NaN()
		}
		v = v.MapIndex(reflect.ValueOf(seg))
		if !v.IsValid() {
			return math.NaN()
		}
	}

	switch v.Kind() {
	case reflect.Float64:
		return v.Float()
	case reflect.Int:
		return float64(v.Int())
	default:
		return math.NaN()
	}
}

// Clone returns a deep copy of the metrics record. The transport layer reads
// engine state concurrently, so everything handed across goes through a copy.
func (m *EconomyMetrics) Clone() *EconomyMetrics {
	if m == nil {
		return nil
	}
	out := *m

	out.Currencies = append([]string(nil), m.Currencies...)
	out.Systems = append([]string(nil), m.Systems...)
	out.Sources = append([]string(nil), m.Sources...)
	out.Sinks = append([]string(nil), m.Sinks...)
	out.CyclicalPeaks = append([]float64(nil), m.CyclicalPeaks...)
	out.CyclicalValleys = append([]float64(nil), m.CyclicalValleys...)

	out.TotalSupplyByCurrency = copyFloatMap(m.TotalSupplyByCurrency)
	out.NetFlowByCurrency = copyFloatMap(m.NetFlowByCurrency)
	out.VelocityByCurrency = copyFloatMap(m.VelocityByCurrency)
	out.InflationRateByCurrency = copyFloatMap(m.InflationRateByCurrency)
	out.GiniCoefficientByCurrency = copyFloatMap(m.GiniCoefficientByCurrency)
	out.MeanBalanceByCurrency = copyFloatMap(m.MeanBalanceByCurrency)
	out.MedianBalanceByCurrency = copyFloatMap(m.MedianBalanceByCurrency)
	out.Top10PctShareByCurrency = copyFloatMap(m.Top10PctShareByCurrency)
	out.MeanMedianDivergenceByCurrency = copyFloatMap(m.MeanMedianDivergenceByCurrency)
	out.FaucetVolumeByCurrency = copyFloatMap(m.FaucetVolumeByCurrency)
	out.SinkVolumeByCurrency = copyFloatMap(m.SinkVolumeByCurrency)
	out.TapSinkRatioByCurrency = copyFloatMap(m.TapSinkRatioByCurrency)
	out.ArbitrageIndexByCurrency = copyFloatMap(m.ArbitrageIndexByCurrency)

	out.PopulationByRole = copyFloatMap(m.PopulationByRole)
	out.RoleShares = copyFloatMap(m.RoleShares)
	out.SupplyByResource = copyFloatMap(m.SupplyByResource)
	out.Prices = copyFloatMap(m.Prices)
	out.PricesByCurrency = copyNestedFloatMap(m.PricesByCurrency)
	out.PoolSizesByCurrency = copyNestedFloatMap(m.PoolSizesByCurrency)
	out.FlowBySystem = copyFloatMap(m.FlowBySystem)
	out.FlowBySource = copyFloatMap(m.FlowBySource)
	out.ActivityBySystem = copyFloatMap(m.ActivityBySystem)
	out.ParticipantsBySystem = copyFloatMap(m.ParticipantsBySystem)
	out.Custom = copyFloatMap(m.Custom)

	return &out
}

func copyFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyNestedFloatMap(in map[string]map[string]float64) map[string]map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]float64, len(in))
	for k, v := range in {
		out[k] = copyFloatMap(v)
	}
	return out
}
