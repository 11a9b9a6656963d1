package geometry

import "math"

// #region grid-types

type cellKey [3]int

// Grid is a uniform spatial hash over committed positions. It is rebuilt
// once per tick from an immutable position snapshot and then queried
// concurrently; after Build it is read-only.
type Grid struct {
	cellSize  float32
	dim       int
	cells     map[cellKey][]int
	positions [][]float32
}

// NewGrid creates a grid with the given cell size. cellSize should be on
// the order of the typical interaction distance (the kernel bandwidth).
func NewGrid(cellSize float32, dim int) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		dim:      dim,
		cells:    make(map[cellKey][]int),
	}
}

// #endregion grid-types

// #region build

// Build indexes the given positions. The slice is retained; callers pass a
// snapshot that is not mutated for the lifetime of the tick.
func (g *Grid) Build(positions [][]float32) {
	g.cells = make(map[cellKey][]int, len(positions))
	g.positions = positions
	for i, p := range positions {
		k := g.keyFor(p)
		g.cells[k] = append(g.cells[k], i)
	}
}

func (g *Grid) keyFor(p []float32) cellKey {
	var k cellKey
	for d := 0; d < g.dim && d < len(p); d++ {
		k[d] = int(math.Floor(float64(p[d] / g.cellSize)))
	}
	return k
}

// #endregion build

// #region nearest

// Nearest returns the index of the closest other point and the distance to
// it. Returns (-1, 0) when the grid holds no point other than self. The
// search expands in cell rings and terminates once no closer point can
// exist in an unvisited ring.
func (g *Grid) Nearest(self int) (int, float32) {
	if len(g.positions) < 2 {
		return -1, 0
	}
	origin := g.positions[self]
	center := g.keyFor(origin)

	best := -1
	bestDist := float32(math.MaxFloat32)

	maxRing := g.maxRing()
	for ring := 0; ring <= maxRing; ring++ {
		// Once a candidate is found, rings beyond bestDist/cellSize + 1
		// cannot contain a closer point.
		if best >= 0 && float32(ring-1)*g.cellSize > bestDist {
			break
		}
		g.visitRing(center, ring, func(idx int) {
			if idx == self {
				return
			}
			d := Distance(origin, g.positions[idx])
			if d < bestDist {
				bestDist = d
				best = idx
			}
		})
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestDist
}

// maxRing bounds the ring search by the spread of indexed cells.
func (g *Grid) maxRing() int {
	lo := cellKey{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	hi := cellKey{math.MinInt32, math.MinInt32, math.MinInt32}
	for k := range g.cells {
		for d := 0; d < 3; d++ {
			if k[d] < lo[d] {
				lo[d] = k[d]
			}
			if k[d] > hi[d] {
				hi[d] = k[d]
			}
		}
	}
	max := 0
	for d := 0; d < 3; d++ {
		if span := hi[d] - lo[d]; span > max {
			max = span
		}
	}
	return max
}

// visitRing calls fn for every index in cells at Chebyshev distance ring
// from center.
func (g *Grid) visitRing(center cellKey, ring int, fn func(idx int)) {
	zLo, zHi := -ring, ring
	if g.dim < 3 {
		zLo, zHi = 0, 0
	}
	for dx := -ring; dx <= ring; dx++ {
		for dy := -ring; dy <= ring; dy++ {
			for dz := zLo; dz <= zHi; dz++ {
				if chebyshev(dx, dy, dz) != ring {
					continue
				}
				k := cellKey{center[0] + dx, center[1] + dy, center[2] + dz}
				for _, idx := range g.cells[k] {
					fn(idx)
				}
			}
		}
	}
}

func chebyshev(dx, dy, dz int) int {
	m := abs(dx)
	if a := abs(dy); a > m {
		m = a
	}
	if a := abs(dz); a > m {
		m = a
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// #endregion nearest
