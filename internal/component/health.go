package component

// Health is kept in [0, Max] after every mutation; use Apply rather than
// writing Current directly.
type Health struct {
	Current float64
	Max     float64
}

func NewHealth(max float64) Health {
	return Health{Current: max, Max: max}
}

// Apply adds delta (negative for damage) and clamps the result.
func (h *Health) Apply(delta float64) {
	h.Current += delta
	if h.Current < 0 {
		h.Current = 0
	}
	if h.Current > h.Max {
		h.Current = h.Max
	}
}

func (h *Health) Dead() bool { return h.Current <= 0 }

// DamageFlash drives the client's hit indicator. Timer only ever counts
// down; Trigger is the single place it is raised.
type DamageFlash struct {
	Timer float64
}

// Tick decreases the timer by dt seconds, never below zero.
func (f *DamageFlash) Tick(dt float64) {
	f.Timer -= dt
	if f.Timer < 0 {
		f.Timer = 0
	}
}

func (f *DamageFlash) Trigger(d float64) { f.Timer = d }
