package simulator

import (
	"math"
	"reflect"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// aggregateEndpoints folds iteration endpoints into the four outcome
// records. Scalar float fields and map[string]float64 fields are reduced
// element-wise; everything else keeps the baseline value, so structural
// maps survive into the outcomes unchanged.
func aggregateEndpoints(baseline *domain.EconomyMetrics, endpoints []*domain.EconomyMetrics) domain.SimulationOutcomes {
	return domain.SimulationOutcomes{
		P10:  reduceEndpoints(baseline, endpoints, func(s []float64) float64 { return sortedQuantile(s, 0.10) }),
		P50:  reduceEndpoints(baseline, endpoints, func(s []float64) float64 { return sortedQuantile(s, 0.50) }),
		P90:  reduceEndpoints(baseline, endpoints, func(s []float64) float64 { return sortedQuantile(s, 0.90) }),
		Mean: reduceEndpoints(baseline, endpoints, func(s []float64) float64 { return stat.Mean(s, nil) }),
	}
}

// reduceEndpoints applies one reducer element-wise across the endpoints.
func reduceEndpoints(baseline *domain.EconomyMetrics, endpoints []*domain.EconomyMetrics, reduce func([]float64) float64) *domain.EconomyMetrics {
	out := baseline.Clone()
	outVal := reflect.ValueOf(out).Elem()
	t := outVal.Type()

	for i := 0; i < t.NumField(); i++ {
		field := outVal.Field(i)
		switch field.Kind() {
		case reflect.Float64:
			field.SetFloat(reduceField(endpoints, i, reduce))
		case reflect.Map:
			if t.Field(i).Type.Elem().Kind() == reflect.Float64 {
				if m := reduceMapField(endpoints, i, reduce); m != nil {
					field.Set(reflect.ValueOf(m))
				}
			}
		}
	}
	return out
}

func reduceField(endpoints []*domain.EconomyMetrics, fieldIdx int, reduce func([]float64) float64) float64 {
	samples := make([]float64, 0, len(endpoints))
	for _, m := range endpoints {
		v := reflect.ValueOf(*m).Field(fieldIdx).Float()
		if !math.IsNaN(v) {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return math.NaN()
	}
	return reduce(samples)
}

func reduceMapField(endpoints []*domain.EconomyMetrics, fieldIdx int, reduce func([]float64) float64) map[string]float64 {
	samples := make(map[string][]float64)
	for _, m := range endpoints {
		v := reflect.ValueOf(*m).Field(fieldIdx)
		if v.IsNil() {
			continue
		}
		iter := v.MapRange()
		for iter.Next() {
			val := iter.Value().Float()
			if math.IsNaN(val) {
				continue
			}
			key := iter.Key().String()
			samples[key] = append(samples[key], val)
		}
	}
	if len(samples) == 0 {
		return nil
	}
	out := make(map[string]float64, len(samples))
	for key, vals := range samples {
		out[key] = reduce(vals)
	}
	return out
}

// sortedQuantile sorts a copy of the sample and reads one quantile.
func sortedQuantile(samples []float64, q float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
