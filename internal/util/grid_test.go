package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignDown(t *testing.T) {
	assert.Equal(t, -60, AlignDown(-31, 30))
	assert.Equal(t, -30, AlignDown(-30, 30))
	assert.Equal(t, 0, AlignDown(29, 30))
	assert.Equal(t, -60.0, AlignDownFloat(-30.5, 30))
}

func TestGridSpan(t *testing.T) {
	cases := []struct {
		name       string
		minX, maxX int
		start      int
		count      uint64
	}{
		{"отрицательный", -31, 29, -60, 3},
		{"точка", 0, 0, 0, 1},
		{"пустой", 10, 5, 0, 0},
		{"у MaxInt", math.MaxInt - 7, math.MaxInt, math.MaxInt - 7, 1},
		{"у MinInt", math.MinInt, math.MinInt + 100, math.MinInt + 8, 4},
		{"столбец ниже MinInt", math.MinInt, math.MinInt + 3, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, count := GridSpan(tc.minX, tc.maxX, 30)
			assert.Equal(t, tc.count, count)
			if count > 0 {
				assert.Equal(t, tc.start, start)
			}
		})
	}
}

func TestGridSpanWholeRange(t *testing.T) {
	start, count := GridSpan(math.MinInt, math.MaxInt, 30)
	assert.Equal(t, math.MinInt+8, start)
	assert.Equal(t, uint64(math.MaxUint64-15)/30+1, count)

	last := GridColumn(start, count-1, 30)
	assert.Equal(t, math.MaxInt-7, last, "последний столбец без переполнения")
}
