package layout

import "fmt"

// CourseOutcome maps a curriculum unit number to its course-outcome label.
// Units 1 through 5 map to "CO1".."CO5"; anything else yields an empty label.
func CourseOutcome(unit int) string {
	if unit >= 1 && unit <= 5 {
		return fmt.Sprintf("CO%d", unit)
	}
	return ""
}
