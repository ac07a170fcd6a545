package visualization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"heartslicer/internal/models"
)

// ComparisonGrid tiles slice stacks into one stack for side-by-side viewing.
// Consecutive groups of perRow stacks are joined along axis 1 and the groups
// are then joined along axis 2. Stacks left over after the last complete
// group are not shown.
func ComparisonGrid(stacks []*models.Volume, perRow int) (*models.Volume, error) {
	if perRow <= 0 {
		return nil, fmt.Errorf("comparison rows must be positive, got %d", perRow)
	}
	groups := len(stacks) / perRow
	if groups == 0 {
		return nil, fmt.Errorf("need at least %d stacks for a comparison grid, got %d", perRow, len(stacks))
	}
	shape := stacks[0].Shape
	for i, s := range stacks[:groups*perRow] {
		if s.Shape != shape {
			return nil, fmt.Errorf("stack %d has shape %v, expected %v", i, s.Shape, shape)
		}
	}

	planes := make([]*mat.Dense, shape[0])
	for n := range planes {
		var grid *mat.Dense
		for g := 0; g < groups; g++ {
			var column *mat.Dense
			for _, s := range stacks[g*perRow : (g+1)*perRow] {
				column = joinRows(column, s.Plane(n))
			}
			grid = joinCols(grid, column)
		}
		planes[n] = grid
	}
	return models.FromPlanes(planes)
}

func joinRows(top, bottom *mat.Dense) *mat.Dense {
	if top == nil {
		return bottom
	}
	var out mat.Dense
	out.Stack(top, bottom)
	return &out
}

func joinCols(left, right *mat.Dense) *mat.Dense {
	if left == nil {
		return right
	}
	var out mat.Dense
	out.Augment(left, right)
	return &out
}
