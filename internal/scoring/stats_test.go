package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 85.0, Average([]float64{80, 90}))
	assert.Equal(t, 70.0, Average([]float64{80, 60}))
	assert.Equal(t, 66.67, Average([]float64{60, 70, 70}))
	assert.Equal(t, 2.5, Average([]float64{2.5}))
}

func TestStandardDeviation(t *testing.T) {
	assert.Equal(t, 0.0, StandardDeviation(nil))
	assert.Equal(t, 0.0, StandardDeviation([]float64{42}))
	assert.Equal(t, 8.2, StandardDeviation([]float64{70, 80, 90}))
	assert.Equal(t, 10.0, StandardDeviation([]float64{80, 60}))
	assert.Equal(t, 0.0, StandardDeviation([]float64{75, 75, 75}))
}
