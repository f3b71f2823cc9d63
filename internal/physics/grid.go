package physics

import "math"

// PointGrid is a bounded uniform grid for broad-phase hit tests on the
// playfield. Points are inserted by position and index, then nearby points
// can be queried through a 3x3 neighborhood lookup.
//
// Cell size must be >= the largest hit radius tested against the grid so
// that every candidate falls inside the neighborhood. Positions outside the
// covered area are clamped into the border cells.
type PointGrid struct {
	originX     float64
	originY     float64
	invCellSize float64
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell stores the indices of points that fall within a grid cell.
// The slice is reused between frames (reset to [:0]) to avoid allocations.
type gridCell struct {
	items []int
}

// NewPointGrid creates a grid covering [lo, hi] on both axes.
func NewPointGrid(lo, hi, cellSize float64) *PointGrid {
	span := hi - lo
	n := int(math.Ceil(span / cellSize))
	if n < 1 {
		n = 1
	}
	return &PointGrid{
		originX:     lo,
		originY:     lo,
		invCellSize: 1.0 / cellSize,
		cols:        n,
		rows:        n,
		cells:       make([]gridCell, n*n),
	}
}

// Clear removes all items from the grid without deallocating cell memory.
func (g *PointGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item (identified by index) at the given position.
func (g *PointGrid) Insert(x, y float64, index int) {
	col, row := g.posToCell(x, y)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryAround calls fn for each item index in the 3x3 cell neighborhood
// around the given position. Cells past the border are skipped.
// If fn returns true, iteration stops early.
func (g *PointGrid) QueryAround(x, y float64, fn func(index int) bool) {
	col, row := g.posToCell(x, y)

	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= g.rows {
			continue
		}
		rowOffset := r * g.cols
		for c := col - 1; c <= col+1; c++ {
			if c < 0 || c >= g.cols {
				continue
			}
			for _, itemIdx := range g.cells[rowOffset+c].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// First returns the lowest inserted index whose point lies strictly within
// radius of (x, y). pos resolves an index back to its coordinates.
func (g *PointGrid) First(x, y, radius float64, pos func(index int) (float64, float64)) (int, bool) {
	best := -1
	g.QueryAround(x, y, func(i int) bool {
		px, py := pos(i)
		if Within(px, py, x, y, radius) && (best < 0 || i < best) {
			best = i
		}
		return false
	})
	return best, best >= 0
}

// posToCell converts coordinates to grid cell coordinates, clamped to the grid.
func (g *PointGrid) posToCell(x, y float64) (col, row int) {
	col = int(math.Floor((x - g.originX) * g.invCellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor((y - g.originY) * g.invCellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}
