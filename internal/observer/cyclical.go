package observer

import (
	"github.com/markcheno/go-talib"
)

const (
	// engagementWindowCap bounds the rolling engagement ring.
	engagementWindowCap = 60
	// smoothingPeriod is the SMA period applied before extrema detection.
	smoothingPeriod = 5
	// extremaCap bounds how many peaks/valleys a metrics record reports.
	extremaCap = 10
)

// engagementWindow tracks the velocity*totalAgents proxy signal and finds
// its local extrema. Shark-tooth principles (P51, P53, P54 family) read the
// resulting peak/valley series.
type engagementWindow struct {
	samples []float64
}

// push appends one engagement sample, keeping the ring bounded.
func (w *engagementWindow) push(v float64) {
	w.samples = append(w.samples, v)
	if len(w.samples) > engagementWindowCap {
		w.samples = w.samples[len(w.samples)-engagementWindowCap:]
	}
}

// extrema smooths the ring with an SMA and scans for local peaks and
// valleys. A point is a peak when strictly above both neighbours, a valley
// when strictly below. Returns the extrema values, oldest first, capped.
func (w *engagementWindow) extrema() (peaks, valleys []float64) {
	if len(w.samples) < smoothingPeriod+2 {
		return nil, nil
	}

	smoothed := talib.Sma(w.samples, smoothingPeriod)
	// talib zero-fills the warm-up region; skip it.
	start := smoothingPeriod
	for i := start; i < len(smoothed)-1; i++ {
		prev, cur, next := smoothed[i-1], smoothed[i], smoothed[i+1]
		switch {
		case cur > prev && cur > next:
			peaks = append(peaks, cur)
		case cur < prev && cur < next:
			valleys = append(valleys, cur)
		}
	}

	if len(peaks) > extremaCap {
		peaks = peaks[len(peaks)-extremaCap:]
	}
	if len(valleys) > extremaCap {
		valleys = valleys[len(valleys)-extremaCap:]
	}
	return peaks, valleys
}
