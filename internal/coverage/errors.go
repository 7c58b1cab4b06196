package coverage

import (
	"errors"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

var (
	// ErrNoSeedFound means the polygon has no area to start a traversal from.
	ErrNoSeedFound = errors.New("coverage: no seed cell found")

	// ErrInvalidPrecision is the codec's precision error, re-exported so
	// callers of this package need not import the codec.
	ErrInvalidPrecision = geohash.ErrInvalidPrecision
)
