package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestNormalizeOrZero(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"unit x", V(3, 0, 0), V(1, 0, 0)},
		{"zero", Zero, Zero},
		{"nan", V(math.NaN(), 0, 0), Zero},
		{"inf", V(math.Inf(1), 1, 0), Zero},
		{"diag", V(3, 0, 4), V(0.6, 0, 0.8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.NormalizeOrZero()
			if !got.ApproxEqual(tt.want, eps) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestYawRotationTurnsForwardToLeft(t *testing.T) {
	// A quarter turn about +Y takes -Z to -X.
	got := YawRotation(math.Pi / 2).Rotate(Forward)
	if !got.ApproxEqual(V(-1, 0, 0), 1e-9) {
		t.Fatalf("got %+v", got)
	}
}

func TestRotationArcMapsFromOntoTo(t *testing.T) {
	targets := []Vec3{V(1, 0, 0), V(0, 0, 1), V(-1, 0, 0), V(0.6, 0, -0.8)}
	for _, to := range targets {
		q := RotationArc(Forward, to)
		got := q.Rotate(Forward)
		if !got.ApproxEqual(to, 1e-9) {
			t.Fatalf("arc to %+v rotated forward to %+v", to, got)
		}
	}
}

func TestFacingRotationIgnoresSmallHeadings(t *testing.T) {
	if _, ok := FacingRotation(V(0.001, 5, 0.001)); ok {
		t.Fatal("tiny horizontal heading should not produce a facing")
	}
	q, ok := FacingRotation(V(2, 0, 0))
	if !ok {
		t.Fatal("expected facing")
	}
	if got := q.Rotate(Forward); !got.ApproxEqual(V(1, 0, 0), 1e-9) {
		t.Fatalf("facing points %+v", got)
	}
}
