package util

import "math/rand"

// Stream — собственный поток случайных чисел одного объекта мира.
// Каждый объект создаёт свой Stream из сида, вычисленного по позиции,
// поэтому результат не зависит от порядка генерации объектов.
type Stream struct {
	r *rand.Rand
}

// NewStream создаёт поток с указанным сидом
func NewStream(seed int64) *Stream {
	return &Stream{r: rand.New(rand.NewSource(seed))}
}

// PositionSeed строит сид потока из координат позиции: x + y*31
func PositionSeed(x, y float64) int64 {
	return int64(x) + int64(y)*31
}

// Float64 возвращает число в [0, 1), расходуя одно значение потока
func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

// IntBetween возвращает равномерно распределённое целое в [lo, hi]
func (s *Stream) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Intn(hi-lo+1)
}
