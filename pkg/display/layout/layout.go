// Package layout arranges viewer panels on a grid and tracks the slice shown
// by every panel.
package layout

// Cell is the grid position of one panel and the number of frames it holds
type Cell struct {
	Row    int
	Column int
	Frames int
}

// Grid is sized to fit every cell. All panels show the same slice index,
// clamped to their own frame count.
type Grid struct {
	Rows   int
	Cols   int
	Slices int

	current int
}

// New sizes the grid for cells
func New(cells []Cell) *Grid {
	g := &Grid{}
	for _, c := range cells {
		g.Rows = max(g.Rows, c.Row+1)
		g.Cols = max(g.Cols, c.Column+1)
		g.Slices = max(g.Slices, c.Frames)
	}
	return g
}

// Current returns the selected slice
func (g *Grid) Current() int {
	return g.current
}

// Step moves the selection by delta, staying within the longest panel
func (g *Grid) Step(delta int) {
	g.current = Clamp(g.current+delta, 0, g.Slices-1)
}

// First selects the first slice
func (g *Grid) First() {
	g.current = 0
}

// Last selects the last slice of the longest panel
func (g *Grid) Last() {
	g.current = max(g.Slices-1, 0)
}

// Frame returns the frame a panel of n frames shows, or -1 for an empty panel
func (g *Grid) Frame(n int) int {
	if n == 0 {
		return -1
	}
	return min(g.current, n-1)
}

// Place fits a w x h frame into cell c of a width x height screen, keeping
// its aspect ratio and centring it. It returns the scale and the top-left corner.
func (g *Grid) Place(c Cell, w, h, width, height int) (scale, x, y float64) {
	if g.Rows == 0 || g.Cols == 0 || w == 0 || h == 0 {
		return 0, 0, 0
	}
	cellW := float64(width) / float64(g.Cols)
	cellH := float64(height) / float64(g.Rows)

	scale = min(cellW/float64(w), cellH/float64(h))
	x = float64(c.Column)*cellW + (cellW-float64(w)*scale)/2
	y = float64(c.Row)*cellH + (cellH-float64(h)*scale)/2
	return scale, x, y
}

// Clamp limits x to [lo, hi]; an empty range yields lo
func Clamp(x, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(x, hi))
}
