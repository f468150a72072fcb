package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginateGreedyBoundary(t *testing.T) {
	pages := Paginate([]float64{100, 100, 100}, []float64{0, 0, 0}, 250)
	require.Equal(t, [][]int{{0, 1}, {2}}, pages)
}

func TestPaginateSingleFit(t *testing.T) {
	pages := Paginate([]float64{50, 50, 50}, []float64{0, 0, 0}, 250)
	require.Equal(t, [][]int{{0, 1, 2}}, pages)
}

func TestPaginateSpacingAdvancesCursor(t *testing.T) {
	// 100 + 60 spacing pushes the second block past the boundary even though
	// the two heights alone would fit.
	pages := Paginate([]float64{100, 100}, []float64{60, 0}, 250)
	require.Equal(t, [][]int{{0}, {1}}, pages)
}

func TestPaginateSpacingNotPartOfFitCheck(t *testing.T) {
	// Trailing spacing on the last block of a page must not force a break.
	pages := Paginate([]float64{200, 100}, []float64{100, 0}, 250)
	require.Equal(t, [][]int{{0}, {1}}, pages)
}

func TestPaginateOversizedBlockGetsOwnPage(t *testing.T) {
	pages := Paginate([]float64{300, 50}, []float64{0, 0}, 250)
	require.Equal(t, [][]int{{0}, {1}}, pages)
}

func TestPaginateOversizedFirstBlockDoesNotLoop(t *testing.T) {
	pages := Paginate([]float64{1000}, []float64{0}, 250)
	require.Equal(t, [][]int{{0}}, pages)
}

func TestPaginateEmpty(t *testing.T) {
	require.Nil(t, Paginate(nil, nil, 250))
}

func TestPaginateNoOverlapInvariant(t *testing.T) {
	heights := []float64{40, 90, 10, 200, 60, 60, 60, 5, 250, 30}
	spacings := []float64{5, 0, 0, 5, 0, 0, 0, 5, 0, 0}
	printable := 246.2

	pages := Paginate(heights, spacings, printable)

	seen := 0
	for _, page := range pages {
		cursor := 0.0
		for i, idx := range page {
			require.Equal(t, seen, idx, "blocks must stay in layout order")
			seen++
			if i > 0 {
				require.LessOrEqual(t, cursor+heights[idx], printable)
			}
			cursor += heights[idx] + spacings[idx]
		}
	}
	require.Equal(t, len(heights), seen)
}
