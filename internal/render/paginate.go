package render

// Paginate assigns blocks to pages using the greedy never-split rule: the
// vertical cursor starts at zero (page-relative), and a block whose height no
// longer fits below the printable height opens a new page. The trailing
// spacing of a block moves the cursor but plays no part in the fit check. A
// single block taller than the printable height gets a page of its own and
// overflows it; blocks are never reflowed internally.
//
// Returned pages hold indexes into the input slices. heights and spacings
// must be the same length.
func Paginate(heights, spacings []float64, printableHeight float64) [][]int {
	if len(heights) == 0 {
		return nil
	}

	pages := make([][]int, 0, 1)
	current := make([]int, 0, len(heights))
	cursor := 0.0

	for i, h := range heights {
		if len(current) > 0 && cursor+h > printableHeight {
			pages = append(pages, current)
			current = make([]int, 0, len(heights)-i)
			cursor = 0
		}
		current = append(current, i)
		cursor += h + spacings[i]
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}
