package scoring

// Percentile ceilings of the achievement bands, expressed in percent of the cohort.
var bandCeilings = [...]int{10, 30, 60, 80}

// GradeFor buckets a rank into the 1..5 achievement grade using the ratio
// rank/total; bounds are inclusive and the first match wins. A zero total yields 0.
func GradeFor(rank, total int) int {
	if total <= 0 {
		return 0
	}
	for i, ceiling := range bandCeilings {
		// rank/total <= ceiling/100 without floating point error.
		if rank*100 <= ceiling*total {
			return i + 1
		}
	}
	return len(bandCeilings) + 1
}

// AchievementLevel maps grade 1..5 to the letters A..E and anything else to "-".
func AchievementLevel(grade int) string {
	switch grade {
	case 1:
		return "A"
	case 2:
		return "B"
	case 3:
		return "C"
	case 4:
		return "D"
	case 5:
		return "E"
	default:
		return "-"
	}
}
