package metrics

import (
	"math"
	"reflect"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// aggregate folds a window of fine records into one record:
//
//	scalars        -> arithmetic mean, NaN samples ignored
//	maps           -> key-wise mean over the union of keys (absent = skipped)
//	everything else -> the last snapshot's value
//
// The window must be non-empty and ordered oldest first. Aggregation walks
// the struct by reflection so new metric fields participate automatically.
func aggregate(window []*domain.EconomyMetrics) *domain.EconomyMetrics {
	last := window[len(window)-1]
	out := last.Clone()

	outVal := reflect.ValueOf(out).Elem()
	t := outVal.Type()

	for i := 0; i < t.NumField(); i++ {
		field := outVal.Field(i)

		switch field.Kind() {
		case reflect.Float64:
			field.SetFloat(meanField(window, i))

		case reflect.Map:
			switch t.Field(i).Type.Elem().Kind() {
			case reflect.Float64:
				field.Set(reflect.ValueOf(meanMapField(window, i)))
			case reflect.Map:
				field.Set(reflect.ValueOf(meanNestedMapField(window, i)))
			}
		}
		// Ints, slices and strings keep the last snapshot's value.
	}

	return out
}

// meanField averages one float64 struct field across the window.
func meanField(window []*domain.EconomyMetrics, fieldIdx int) float64 {
	samples := make([]float64, 0, len(window))
	for _, m := range window {
		v := reflect.ValueOf(*m).Field(fieldIdx).Float()
		if !math.IsNaN(v) {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return math.NaN()
	}
	return stat.Mean(samples, nil)
}

// meanMapField averages a map[string]float64 field key-wise.
func meanMapField(window []*domain.EconomyMetrics, fieldIdx int) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, m := range window {
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
			sums[key] += val
			counts[key]++
		}
	}

	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// meanNestedMapField averages a map[string]map[string]float64 field
// key-wise at both levels.
func meanNestedMapField(window []*domain.EconomyMetrics, fieldIdx int) map[string]map[string]float64 {
	sums := make(map[string]map[string]float64)
	counts := make(map[string]map[string]int)

	for _, m := range window {
		v := reflect.ValueOf(*m).Field(fieldIdx)
		if v.IsNil() {
			continue
		}
		outer := v.MapRange()
		for outer.Next() {
			outerKey := outer.Key().String()
			if sums[outerKey] == nil {
				sums[outerKey] = make(map[string]float64)
				counts[outerKey] = make(map[string]int)
			}
			inner := outer.Value().MapRange()
			for inner.Next() {
				val := inner.Value().Float()
				if math.IsNaN(val) {
					continue
				}
				innerKey := inner.Key().String()
				sums[outerKey][innerKey] += val
				counts[outerKey][innerKey]++
			}
		}
	}

	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]map[string]float64, len(sums))
	for outerKey, innerSums := range sums {
		out[outerKey] = make(map[string]float64, len(innerSums))
		for innerKey, sum := range innerSums {
			out[outerKey][innerKey] = sum / float64(counts[outerKey][innerKey])
		}
	}
	return out
}
