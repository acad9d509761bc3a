package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// NoiseKind определяет алгоритм, которым NoiseGenerator строит рельеф
type NoiseKind string

const (
	NoiseValue  NoiseKind = "value"  // интерполированный хеш-шум (по умолчанию)
	NoisePerlin NoiseKind = "perlin" // шум Перлина из go-perlin
)

// DefaultNoiseSpacing — шаг решётки шума в мировых единицах (6 блоков по 30)
const DefaultNoiseSpacing = 180

const (
	perlinAlpha   = 2.0  // Сглаживание шума
	perlinBeta    = 2.0  // Частота шума
	perlinOctaves = 3    // Количество октав
	perlinShift   = 0.31 // В целых точках решётки шум Перлина равен нулю
)

// NoiseGenerator выдаёт гладкие смещения высоты рельефа.
// Шум берётся на более грубой решётке, чем размер блока, и интерполируется
// между соседними узлами. Генератор не хранит изменяемого состояния.
type NoiseGenerator struct {
	seed     int32
	baseline int
	spacing  int
	kind     NoiseKind
	perlin   *perlin.Perlin
}

// NoiseOption настраивает NoiseGenerator
type NoiseOption func(*NoiseGenerator)

// WithSpacing задаёт шаг решётки шума
func WithSpacing(spacing int) NoiseOption {
	return func(g *NoiseGenerator) {
		g.spacing = spacing
	}
}

// WithKind выбирает алгоритм шума
func WithKind(kind NoiseKind) NoiseOption {
	return func(g *NoiseGenerator) {
		g.kind = kind
	}
}

// NewNoiseGenerator создаёт генератор шума для сида и базовой высоты рельефа
func NewNoiseGenerator(seed int32, baseline int, opts ...NoiseOption) *NoiseGenerator {
	g := &NoiseGenerator{
		seed:     seed,
		baseline: baseline,
		spacing:  DefaultNoiseSpacing,
		kind:     NoiseValue,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.spacing <= 0 {
		g.spacing = DefaultNoiseSpacing
	}
	if g.kind == NoisePerlin {
		g.perlin = perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, int64(seed))
	} else {
		g.kind = NoiseValue
	}
	return g
}

// Baseline возвращает базовую высоту, относительно которой строится рельеф
func (g *NoiseGenerator) Baseline() int {
	return g.baseline
}

// Kind возвращает используемый алгоритм шума
func (g *NoiseGenerator) Kind() NoiseKind {
	return g.kind
}

// Noise возвращает смещение в диапазоне [0, amplitude) для координаты x.
// При amplitude <= 0 смещение всегда 0.
func (g *NoiseGenerator) Noise(x int, amplitude int) int {
	if amplitude <= 0 {
		return 0
	}
	n := int(g.sample(x) * float64(amplitude))
	if n >= amplitude {
		n = amplitude - 1
	}
	return n
}

func (g *NoiseGenerator) sample(x int) float64 {
	if g.kind == NoisePerlin {
		return g.perlinSample(x)
	}
	return g.valueSample(x)
}

// valueSample интерполирует хеши двух соседних узлов решётки
func (g *NoiseGenerator) valueSample(x int) float64 {
	cell := FloorDiv(x, g.spacing)
	frac := float64(x-cell*g.spacing) / float64(g.spacing)

	left := PseudoRandomAt(cell, g.seed)
	right := PseudoRandomAt(cell+1, g.seed)
	return lerp(left, right, smooth(frac))
}

// perlinSample переводит шум Перлина из [-1, 1] в [0, 1)
func (g *NoiseGenerator) perlinSample(x int) float64 {
	n := g.perlin.Noise1D(float64(x)/float64(g.spacing) + perlinShift)
	v := (n + 1.0) / 2.0
	switch {
	case v < 0:
		return 0
	case v >= 1:
		return math.Nextafter(1, 0)
	}
	return v
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
