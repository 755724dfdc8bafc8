package scoring

import "math"

// Average returns the arithmetic mean rounded half-up to two decimals, or 0 for no values.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return roundHalfUp(mean(values), 2)
}

// StandardDeviation returns the population standard deviation (divisor N)
// rounded half-up to one decimal, or 0 for fewer than two values.
func StandardDeviation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var squares float64
	for _, v := range values {
		d := v - m
		squares += d * d
	}
	return roundHalfUp(math.Sqrt(squares/float64(len(values))), 1)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func roundHalfUp(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(v*p+0.5) / p
}
