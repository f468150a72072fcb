package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCourseOutcomeMapping(t *testing.T) {
	require.Equal(t, "CO1", CourseOutcome(1))
	require.Equal(t, "CO2", CourseOutcome(2))
	require.Equal(t, "CO3", CourseOutcome(3))
	require.Equal(t, "CO4", CourseOutcome(4))
	require.Equal(t, "CO5", CourseOutcome(5))
}

func TestCourseOutcomeOutOfRange(t *testing.T) {
	for _, unit := range []int{0, -1, 6, 42, -100} {
		require.Empty(t, CourseOutcome(unit))
	}
}

func TestCourseOutcomePure(t *testing.T) {
	first := CourseOutcome(3)
	second := CourseOutcome(3)
	require.Equal(t, first, second)
}
