package scoring

import "sort"

// Standing is a student's placement within a ranked cohort.
type Standing struct {
	StudentID string
	Score     float64
	Rank      int
}

// Standings orders the cohort by score descending and assigns competition ranks:
// equal scores share the position of their first occurrence and the next lower
// score takes its own 1-based position, so [90 90 80] ranks as [1 1 3].
// Students with equal scores are ordered by id to keep the output stable.
func Standings(scores map[string]float64) []Standing {
	out := make([]Standing, 0, len(scores))
	for id, score := range scores {
		out = append(out, Standing{StudentID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StudentID < out[j].StudentID
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// CalculateRanks maps every student to its competition rank.
func CalculateRanks(scores map[string]float64) map[string]int {
	ranks := make(map[string]int, len(scores))
	for _, s := range Standings(scores) {
		ranks[s.StudentID] = s.Rank
	}
	return ranks
}
