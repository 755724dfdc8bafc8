package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeFor(t *testing.T) {
	cases := []struct {
		rank, total, want int
	}{
		{rank: 1, total: 0, want: 0},
		{rank: 1, total: 10, want: 1},
		{rank: 2, total: 10, want: 2},
		{rank: 3, total: 10, want: 2},
		{rank: 4, total: 10, want: 3},
		{rank: 6, total: 10, want: 3},
		{rank: 7, total: 10, want: 4},
		{rank: 8, total: 10, want: 4},
		{rank: 9, total: 10, want: 5},
		{rank: 10, total: 10, want: 5},
		// rank 1 of 2 is the 50% mark, which lands in the up-to-60% band rather than the top one
		{rank: 1, total: 2, want: 3},
		{rank: 2, total: 2, want: 5},
		{rank: 1, total: 1, want: 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GradeFor(tc.rank, tc.total), "rank %d of %d", tc.rank, tc.total)
	}
}

func TestAchievementLevel(t *testing.T) {
	assert.Equal(t, "A", AchievementLevel(1))
	assert.Equal(t, "B", AchievementLevel(2))
	assert.Equal(t, "C", AchievementLevel(3))
	assert.Equal(t, "D", AchievementLevel(4))
	assert.Equal(t, "E", AchievementLevel(5))
	assert.Equal(t, "-", AchievementLevel(0))
	assert.Equal(t, "-", AchievementLevel(6))
}
