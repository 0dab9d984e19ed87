package observer

// personaHistoryCap bounds the persona distribution history.
const personaHistoryCap = 50

// PersonaTracker keeps a rolling history of the persona distributions the
// host supplies alongside ticks. The latest distribution backs the
// role-population fallback when the snapshot carries no usable role data.
type PersonaTracker struct {
	history []map[string]float64
}

// NewPersonaTracker creates an empty tracker.
func NewPersonaTracker() *PersonaTracker {
	return &PersonaTracker{}
}

// Record stores a distribution. Nil and empty distributions are ignored.
func (p *PersonaTracker) Record(distribution map[string]float64) {
	if len(distribution) == 0 {
		return
	}
	cp := make(map[string]float64, len(distribution))
	for k, v := range distribution {
		cp[k] = v
	}
	p.history = append(p.history, cp)
	if len(p.history) > personaHistoryCap {
		p.history = p.history[len(p.history)-personaHistoryCap:]
	}
}

// Latest returns the most recent distribution, or nil.
func (p *PersonaTracker) Latest() map[string]float64 {
	if len(p.history) == 0 {
		return nil
	}
	return p.history[len(p.history)-1]
}

// Len returns how many distributions are retained.
func (p *PersonaTracker) Len() int {
	return len(p.history)
}
