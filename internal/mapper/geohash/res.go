package geohashmapper

import (
	"sort"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

// ToParent returns the ancestor of cell at parentPrecision; the cell itself
// when the precisions match.
func (m *Mapper) ToParent(cell string, parentPrecision int) (string, error) {
	return geohash.ToParent(cell, parentPrecision)
}

// ToChildren returns every descendant of cell at childPrecision, sorted.
func (m *Mapper) ToChildren(cell string, childPrecision int) (model.Cells, error) {
	if err := m.ValidatePrecision(childPrecision); err != nil {
		return nil, err
	}
	kids, err := geohash.ToChildren(cell, childPrecision)
	if err != nil {
		return nil, err
	}
	return model.Cells(kids), nil
}

// Compact replaces every complete group of 32 sibling cells with their
// parent, repeatedly, and returns the sorted result. Useful for shrinking
// large inner coverings before storage.
func Compact(cells model.Cells) model.Cells {
	set := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	for changed := true; changed; {
		changed = false
		groups := map[string]int{}
		for c := range set {
			if len(c) > geohash.MinPrecision {
				groups[c[:len(c)-1]]++
			}
		}
		for parent, n := range groups {
			if n != len(geohash.Alphabet) {
				continue
			}
			for i := 0; i < len(geohash.Alphabet); i++ {
				delete(set, parent+geohash.Alphabet[i:i+1])
			}
			set[parent] = struct{}{}
			changed = true
		}
	}
	out := make(model.Cells, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sortCells(out)
	return out
}

func sortCells(c model.Cells) { sort.Strings(c) }
