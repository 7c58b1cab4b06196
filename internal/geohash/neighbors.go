package geohash

import "fmt"

type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists every Direction in clockwise order starting at North.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionNames = [8]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

// cell-size multiples applied to the centre, as (dLon, dLat)
var directionOffsets = [8][2]float64{
	{0, 1}, {1, 1}, {1, 0}, {1, -1},
	{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Adjacent holds the eight same-precision neighbours of a cell indexed by
// Direction. An entry is empty when the neighbour would lie beyond a pole.
type Adjacent [8]string

// Get returns the neighbour in direction d.
func (a Adjacent) Get(d Direction) string { return a[d] }

// Neighbor returns the same-precision cell adjacent to code in direction d.
// Longitude wraps at ±180; an empty string is returned when the neighbour
// would cross a pole.
func Neighbor(code string, d Direction) (string, error) {
	if d < North || d > NorthWest {
		return "", fmt.Errorf("geohash: unknown direction %d", int(d))
	}
	b, err := DecodeBounds(code)
	if err != nil {
		return "", err
	}
	return neighborOf(b.Min[0], b.Min[1], b.Max[0], b.Max[1], len(code), d)
}

// Neighbors returns all eight neighbours of code.
func Neighbors(code string) (Adjacent, error) {
	var out Adjacent
	b, err := DecodeBounds(code)
	if err != nil {
		return out, err
	}
	for _, d := range Directions {
		n, err := neighborOf(b.Min[0], b.Min[1], b.Max[0], b.Max[1], len(code), d)
		if err != nil {
			return Adjacent{}, err
		}
		out[d] = n
	}
	return out, nil
}

func neighborOf(minLon, minLat, maxLon, maxLat float64, precision int, d Direction) (string, error) {
	w := maxLon - minLon
	h := maxLat - minLat
	off := directionOffsets[d]

	lat := (minLat+maxLat)/2 + off[1]*h
	if lat > 90 || lat < -90 {
		return "", nil
	}
	lon := (minLon+maxLon)/2 + off[0]*w
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return Encode(lat, lon, precision)
}
