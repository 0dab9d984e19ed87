// Package principles holds the built-in economic principle catalog.
//
// Each principle is a pure, deterministic predicate over one metrics record
// and the engine thresholds. A violated principle reports a severity in
// [1,10], a confidence in [0,1], evidence and a suggested corrective
// action. Principles never mutate anything - the Diagnoser owns ordering
// and the Planner owns safety.
package principles

import (
	"math"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// All returns the full built-in catalog in ID order. The list is assembled
// once at engine construction and is append-only afterwards.
func All() []domain.Principle {
	var list []domain.Principle
	list = append(list, supplyChainPrinciples()...)
	list = append(list, incentivePrinciples()...)
	list = append(list, bootstrapPrinciples()...)
	list = append(list, currencyPrinciples()...)
	list = append(list, populationPrinciples()...)
	list = append(list, feedbackPrinciples()...)
	list = append(list, regulatorPrinciples()...)
	list = append(list, marketPrinciples()...)
	list = append(list, statisticalPrinciples()...)
	list = append(list, measurementPrinciples()...)
	list = append(list, systemDynamicsPrinciples()...)
	list = append(list, resourcePrinciples()...)
	list = append(list, experiencePrinciples()...)
	list = append(list, openEconomyPrinciples()...)
	list = append(list, operationsPrinciples()...)
	return list
}

// violated builds a violation result.
func violated(severity, confidence float64, lag int, evidence map[string]any, action *domain.SuggestedAction) domain.PrincipleResult {
	return domain.PrincipleResult{
		Violated:        true,
		Severity:        severity,
		Confidence:      confidence,
		EstimatedLag:    lag,
		Evidence:        evidence,
		SuggestedAction: action,
	}
}

// valid reports whether a metric carries a usable value. Only
// eventCompletionRate may legitimately be NaN; principles touching it must
// call this first.
func valid(v float64) bool {
	return !math.IsNaN(v)
}

// worstAbove returns the currency whose value in byCurrency exceeds the
// bound by the largest margin, preferring the per-currency view whenever
// currencies are declared.
func worstAbove(byCurrency map[string]float64, bound float64) (string, float64, bool) {
	var (
		worst    string
		worstVal float64
		found    bool
	)
	for currency, v := range byCurrency {
		if v > bound && (!found || v > worstVal) {
			worst, worstVal, found = currency, v, true
		}
	}
	return worst, worstVal, found
}

// worstBelow is the mirror of worstAbove for lower bounds.
func worstBelow(byCurrency map[string]float64, bound float64) (string, float64, bool) {
	var (
		worst    string
		worstVal float64
		found    bool
	)
	for currency, v := range byCurrency {
		if v < bound && (!found || v < worstVal) {
			worst, worstVal, found = currency, v, true
		}
	}
	return worst, worstVal, found
}

// worstAbsAbove compares |value| against the bound.
func worstAbsAbove(byCurrency map[string]float64, bound float64) (string, float64, bool) {
	var (
		worst    string
		worstVal float64
		found    bool
	)
	for currency, v := range byCurrency {
		if math.Abs(v) > bound && (!found || math.Abs(v) > math.Abs(worstVal)) {
			worst, worstVal, found = currency, v, true
		}
	}
	return worst, worstVal, found
}

// currencyScope builds a scope targeting one currency.
func currencyScope(currency string) *domain.Scope {
	return &domain.Scope{Currency: currency}
}

// act builds a suggested action.
func act(paramType string, dir domain.Direction, magnitude float64, reasoning string, scope *domain.Scope) *domain.SuggestedAction {
	return &domain.SuggestedAction{
		ParameterType: paramType,
		Direction:     dir,
		Magnitude:     magnitude,
		Reasoning:     reasoning,
		Scope:         scope,
	}
}
