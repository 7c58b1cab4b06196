package geohash

import (
	"errors"
	"math"
	"testing"

	mmgeohash "github.com/mmcloughlin/geohash"
)

func TestNeighbors_KnownCell(t *testing.T) {
	adj, err := Neighbors("ezs42")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	want := Adjacent{"ezs48", "ezs49", "ezs43", "ezs41", "ezs40", "ezefp", "ezefr", "ezefx"}
	if adj != want {
		t.Fatalf("Neighbors(ezs42)=%v want %v", adj, want)
	}
	if adj.Get(East) != "ezs43" {
		t.Fatalf("East=%q", adj.Get(East))
	}
}

func TestNeighbors_MatchReferenceLibrary(t *testing.T) {
	for _, code := range []string{"9g3", "u4pruydqqvj", "dr5r", "s0", "kpbx", "7zzz"} {
		adj, err := Neighbors(code)
		if err != nil {
			t.Fatalf("Neighbors(%q): %v", code, err)
		}
		ref := mmgeohash.Neighbors(code)
		for i, d := range Directions {
			if adj[d] != ref[i] {
				t.Fatalf("%q %s neighbour=%q reference=%q", code, d, adj[d], ref[i])
			}
		}
	}
}

func TestNeighbors_AreAdjacentAndSameSize(t *testing.T) {
	code := "9g3qx"
	b, _ := DecodeBounds(code)
	adj, err := Neighbors(code)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	for _, d := range Directions {
		n := adj[d]
		if len(n) != len(code) {
			t.Fatalf("%s neighbour %q has wrong precision", d, n)
		}
		nb, _ := DecodeBounds(n)
		dx := nb.Center()[0] - b.Center()[0]
		dy := nb.Center()[1] - b.Center()[1]
		off := directionOffsets[d]
		if math.Abs(dx-off[0]*w) > 1e-9 || math.Abs(dy-off[1]*h) > 1e-9 {
			t.Fatalf("%s neighbour %q offset=(%v,%v) want (%v,%v)", d, n, dx, dy, off[0]*w, off[1]*h)
		}
	}
}

func TestNeighbors_WrapAntimeridian(t *testing.T) {
	east, err := Encode(0.1, 179.99, 3)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	n, err := Neighbor(east, East)
	if err != nil {
		t.Fatalf("Neighbor: %v", err)
	}
	nb, _ := DecodeBounds(n)
	if nb.Min[0] != -180 {
		t.Fatalf("east neighbour of %q is %q with min lon %v, want -180", east, n, nb.Min[0])
	}

	west, _ := Encode(0.1, -179.99, 3)
	n, _ = Neighbor(west, West)
	nb, _ = DecodeBounds(n)
	if nb.Max[0] != 180 {
		t.Fatalf("west neighbour of %q is %q with max lon %v, want 180", west, n, nb.Max[0])
	}
}

func TestNeighbors_StopAtPoles(t *testing.T) {
	top, _ := Encode(89.99, 10, 2)
	adj, err := Neighbors(top)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	for _, d := range []Direction{North, NorthEast, NorthWest} {
		if adj[d] != "" {
			t.Fatalf("%s neighbour of polar cell %q = %q, want none", d, top, adj[d])
		}
	}
	if adj[South] == "" || adj[East] == "" || adj[West] == "" {
		t.Fatalf("polar cell lost non-polar neighbours: %v", adj)
	}

	bottom, _ := Encode(-89.99, 10, 2)
	adj, _ = Neighbors(bottom)
	for _, d := range []Direction{South, SouthEast, SouthWest} {
		if adj[d] != "" {
			t.Fatalf("%s neighbour of polar cell %q = %q, want none", d, bottom, adj[d])
		}
	}
}

func TestNeighbor_Errors(t *testing.T) {
	if _, err := Neighbor("ezs42", Direction(9)); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
	if _, err := Neighbors("not-a-hash"); !errors.Is(err, ErrInvalidGeohash) {
		t.Fatalf("err=%v want ErrInvalidGeohash", err)
	}
}
