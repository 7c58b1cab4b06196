// Package geohash implements the base-32 geohash grid: encoding points to
// cells, decoding cells to bounding boxes, and cell adjacency/hierarchy.
//
// Longitude is bisected first, then bits alternate between the axes. Every
// emitted character carries five bits, most significant first.
package geohash

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Alphabet is the canonical geohash base-32 alphabet.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const (
	MinPrecision = 1
	MaxPrecision = 12
)

var (
	ErrInvalidCoordinate = errors.New("geohash: invalid coordinate")
	ErrInvalidPrecision  = errors.New("geohash: invalid precision")
	ErrInvalidGeohash    = errors.New("geohash: invalid geohash")
)

// alphabet position per byte, -1 when the byte is not part of the alphabet
var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// ValidatePrecision reports whether p is a supported geohash length.
func ValidatePrecision(p int) error {
	if p < MinPrecision || p > MaxPrecision {
		return fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidPrecision, p, MinPrecision, MaxPrecision)
	}
	return nil
}

// Encode returns the geohash of length precision containing (lat, lon).
func Encode(lat, lon float64, precision int) (string, error) {
	if err := ValidatePrecision(precision); err != nil {
		return "", err
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return "", fmt.Errorf("%w: latitude %v outside [-90,90]", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return "", fmt.Errorf("%w: longitude %v outside [-180,180]", ErrInvalidCoordinate, lon)
	}

	var buf [MaxPrecision]byte
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	lonBit := true

	for i := 0; i < precision; i++ {
		var idx byte
		for b := 0; b < 5; b++ {
			idx <<= 1
			if lonBit {
				mid := (minLon + maxLon) / 2
				if lon >= mid {
					idx |= 1
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if lat >= mid {
					idx |= 1
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			lonBit = !lonBit
		}
		buf[i] = Alphabet[idx]
	}
	return string(buf[:precision]), nil
}

// Validate checks that code is a non-empty geohash of supported length made of
// alphabet characters only.
func Validate(code string) error {
	if err := ValidatePrecision(len(code)); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidGeohash, code, err)
	}
	for i := 0; i < len(code); i++ {
		if decodeTable[code[i]] < 0 {
			return fmt.Errorf("%w %q: character %q not in alphabet", ErrInvalidGeohash, code, code[i])
		}
	}
	return nil
}

// DecodeBounds returns the cell's box with Min = (minLon, minLat) and
// Max = (maxLon, maxLat).
func DecodeBounds(code string) (orb.Bound, error) {
	if err := Validate(code); err != nil {
		return orb.Bound{}, err
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	lonBit := true

	for i := 0; i < len(code); i++ {
		idx := decodeTable[code[i]]
		for b := 4; b >= 0; b-- {
			bit := (idx >> uint(b)) & 1
			if lonBit {
				mid := (minLon + maxLon) / 2
				if bit == 1 {
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			lonBit = !lonBit
		}
	}

	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}, nil
}

// Center returns the midpoint of the cell as (lon, lat).
func Center(code string) (orb.Point, error) {
	b, err := DecodeBounds(code)
	if err != nil {
		return orb.Point{}, err
	}
	return b.Center(), nil
}

// CellSize returns the width (degrees of longitude) and height (degrees of
// latitude) of every cell at precision p.
func CellSize(p int) (width, height float64, err error) {
	if err := ValidatePrecision(p); err != nil {
		return 0, 0, err
	}
	bits := 5 * p
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 360 / math.Exp2(float64(lonBits)), 180 / math.Exp2(float64(latBits)), nil
}
