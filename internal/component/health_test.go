package component

import "testing"

func TestHealthApplyClamps(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"damage", 100, -10, 90},
		{"overkill", 5, -10, 0},
		{"heal capped", 95, 20, 100},
		{"zero", 50, 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Health{Current: tt.start, Max: 100}
			h.Apply(tt.delta)
			if h.Current != tt.want {
				t.Fatalf("got %v, want %v", h.Current, tt.want)
			}
		})
	}
}

func TestDamageFlashNeverNegative(t *testing.T) {
	f := DamageFlash{}
	f.Trigger(0.3)
	f.Tick(0.2)
	f.Tick(0.2)
	if f.Timer != 0 {
		t.Fatalf("timer = %v, want 0", f.Timer)
	}
}
