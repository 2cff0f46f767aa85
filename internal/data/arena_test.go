package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadArena(t *testing.T) {
	p := filepath.Join(t.TempDir(), "arena.yaml")
	body := `
ground:
  position: [0, -0.55, 0]
  half_extent: 10
  half_height: 0.05
trees:
  - { position: [1, 0, 2], radius: 0.5 }
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadArena(p)
	if err != nil {
		t.Fatal(err)
	}
	if a.Ground.HalfExtent != 10 || len(a.Trees) != 1 || a.Trees[0].Radius != 0.5 {
		t.Fatalf("unexpected arena %+v", a)
	}
	if top := a.Ground.Top(); top < -0.5-1e-9 || top > -0.5+1e-9 {
		t.Fatalf("ground top = %v", top)
	}
}

func TestLoadArenaRejectsBadTree(t *testing.T) {
	p := filepath.Join(t.TempDir(), "arena.yaml")
	body := "ground: {half_extent: 5}\ntrees:\n  - {position: [0,0,0], radius: 0}\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadArena(p); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultArena(t *testing.T) {
	a, err := LoadArena("")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Trees) != 5 || a.Ground.HalfExtent != 28 {
		t.Fatalf("default arena %+v", a)
	}
}
