package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zombrise/server/internal/geom"
)

// GroundInfo is the flat arena floor.
type GroundInfo struct {
	Position   [3]float64 `yaml:"position"`
	HalfExtent float64    `yaml:"half_extent"`
	HalfHeight float64    `yaml:"half_height"`
}

// Top is the y coordinate bodies stand on.
func (g GroundInfo) Top() float64 { return g.Position[1] + g.HalfHeight }

type TreeInfo struct {
	Position [3]float64 `yaml:"position"`
	Radius   float64    `yaml:"radius"`
}

func (t TreeInfo) Vec() geom.Vec3 { return geom.V(t.Position[0], t.Position[1], t.Position[2]) }

// Arena is the static world layout spawned once at startup.
type Arena struct {
	Ground GroundInfo `yaml:"ground"`
	Trees  []TreeInfo `yaml:"trees"`
}

// DefaultArena is the built-in layout: a 56x56 floor with five trees.
func DefaultArena() *Arena {
	const r = 28.0
	pts := [][3]float64{
		{r * 0.34, 0, r * 0.4},
		{-r * 0.36, 0, -r * 0.38},
		{-r * 0.12, 0, -r * 0.55},
		{r * 0.55, 0, 0.22},
		{-r * 0.5, 0, 0.15},
	}
	a := &Arena{
		Ground: GroundInfo{Position: [3]float64{0, -0.55, 0}, HalfExtent: 28, HalfHeight: 0.05},
	}
	for _, p := range pts {
		a.Trees = append(a.Trees, TreeInfo{Position: p, Radius: 0.3})
	}
	return a
}

// LoadArena reads an arena layout from YAML. An empty path returns the
// built-in layout.
func LoadArena(path string) (*Arena, error) {
	if path == "" {
		return DefaultArena(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arena %s: %w", path, err)
	}
	var a Arena
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse arena %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("arena %s: %w", path, err)
	}
	return &a, nil
}

func (a *Arena) validate() error {
	if a.Ground.HalfExtent <= 0 {
		return errors.New("ground.half_extent must be positive")
	}
	for i, t := range a.Trees {
		if t.Radius <= 0 {
			return fmt.Errorf("tree %d: radius must be positive", i)
		}
	}
	return nil
}
