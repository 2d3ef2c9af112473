// Package geohex implements the fixed-resolution hex-grid spatial index:
// cell lookup, grid-distance, grid-disk enumeration and haversine distance,
// each memoised behind a small poison-tolerant LRU.
package geohex

import "math"

// Cell identifies a hex tile by its axial (q, r) coordinate, packed into a
// single 64-bit index so it can be used as a plain map key and compared for
// equality cheaply.
type Cell int64

const (
	earthRadiusKM = 6371.0

	// cellAreaKM2 matches the default configuration area from the spec
	// (~0.24 km^2 per cell).
	cellAreaKM2 = 0.24
)

// hexSizeKM is the "radius" (center to vertex) of a pointy-top regular
// hexagon with area cellAreaKM2: area = (3*sqrt(3)/2) * size^2.
var hexSizeKM = math.Sqrt(cellAreaKM2 / (1.5 * math.Sqrt(3)))

func packCell(q, r int32) Cell {
	return Cell(uint64(uint32(q))<<32 | uint64(uint32(r)))
}

func (c Cell) unpack() (q, r int32) {
	u := uint64(c)
	return int32(uint32(u >> 32)), int32(uint32(u))
}

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// kmPerDegLat/kmPerDegLng approximate a local equirectangular projection
// around a fixed reference latitude. This is deliberately not true H3 /
// geodesic math — the spec only asks for centroid-to-centroid haversine and
// integer grid distance, both of which tolerate a flat local projection at
// the scale of a single metro-area simulation.
const kmPerDegLat = 111.32

func kmPerDegLng(lat float64) float64 {
	return kmPerDegLat * math.Cos(lat*math.Pi/180)
}

// CellAt resolves a lat/lng to the hex cell containing it.
func CellAt(lat, lng float64) Cell {
	x := lng * kmPerDegLng(lat)
	y := lat * kmPerDegLat

	// pointy-top axial pixel-to-hex
	q := (math.Sqrt(3)/3*x - 1.0/3*y) / hexSizeKM
	r := (2.0 / 3 * y) / hexSizeKM
	qi, ri := cubeRound(q, r)
	return packCell(qi, ri)
}

// Centroid returns the approximate lat/lng of a cell's center.
func Centroid(c Cell) LatLng {
	q, r := c.unpack()
	x := hexSizeKM * (math.Sqrt(3)*float64(q) + math.Sqrt(3)/2*float64(r))
	y := hexSizeKM * (1.5 * float64(r))
	lat := y / kmPerDegLat
	lng := x / kmPerDegLng(lat)
	return LatLng{Lat: lat, Lng: lng}
}

func cubeRound(q, r float64) (int32, int32) {
	x, z := q, r
	y := -x - z
	rx, ry, rz := math.Round(x), math.Round(y), math.Round(z)
	dx, dy, dz := math.Abs(rx-x), math.Abs(ry-y), math.Abs(rz-z)
	if dx > dy && dx > dz {
		rx = -ry - rz
	} else if dy > dz {
		ry = -rx - rz
	} else {
		rz = -rx - ry
	}
	return int32(rx), int32(rz)
}

// gridDistanceRaw computes hex grid distance without consulting any cache.
func gridDistanceRaw(a, b Cell) int {
	aq, ar := a.unpack()
	bq, br := b.unpack()
	dq := int(aq) - int(bq)
	dr := int(ar) - int(br)
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// haversineRaw computes great-circle distance between two cell centroids
// without consulting any cache.
func haversineRaw(a, b Cell) float64 {
	ca, cb := Centroid(a), Centroid(b)
	lat1 := ca.Lat * math.Pi / 180
	lat2 := cb.Lat * math.Pi / 180
	dLat := (cb.Lat - ca.Lat) * math.Pi / 180
	dLng := (cb.Lng - ca.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// gridDiskRaw enumerates all cells within grid distance k of origin, without
// consulting any cache. Standard cube-ring walk.
func gridDiskRaw(origin Cell, k int) []Cell {
	if k < 0 {
		return nil
	}
	oq, or := origin.unpack()
	out := make([]Cell, 0, 1+3*k*(k+1))
	for dq := -k; dq <= k; dq++ {
		loR := max(-k, -dq-k)
		hiR := min(k, -dq+k)
		for dr := loR; dr <= hiR; dr++ {
			out = append(out, packCell(oq+int32(dq), or+int32(dr)))
		}
	}
	return out
}

// neighborOffsets are the six axial unit steps of a pointy-top hex grid,
// in a fixed enumeration order used to break ties deterministically.
var neighborOffsets = [6][2]int32{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

// Neighbors returns the six cells adjacent to c, in a fixed order.
func Neighbors(c Cell) [6]Cell {
	q, r := c.unpack()
	var out [6]Cell
	for i, off := range neighborOffsets {
		out[i] = packCell(q+off[0], r+off[1])
	}
	return out
}

// StepToward returns the neighbor of from that minimizes grid distance to
// to, i.e. one hop along the grid path. If from already equals to, it
// returns from unchanged. This is the spec's "hop advance": a grid-path
// walk, not true road routing (spec.md §4.10).
func StepToward(from, to Cell) Cell {
	if from == to {
		return from
	}
	best := from
	bestDist := gridDistanceRaw(from, to)
	for _, n := range Neighbors(from) {
		d := gridDistanceRaw(n, to)
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
