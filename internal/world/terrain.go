package world

import (
	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/vec"
)

// Terrain генерирует рельеф: высоту земли в любой точке и столбцы блоков
type Terrain struct {
	params           Params
	noise            *util.NoiseGenerator
	groundHeightAtX0 int
}

// NewTerrain создаёт генератор рельефа
func NewTerrain(params Params) *Terrain {
	bs := params.BlockSize
	base := util.AlignDown(int(params.WindowHeight*params.GroundRatio), bs)

	return &Terrain{
		params: params,
		noise: util.NewNoiseGenerator(params.Seed, base,
			util.WithKind(params.NoiseKind),
			util.WithSpacing(params.NoiseSpacing*bs),
		),
		groundHeightAtX0: base,
	}
}

// GroundHeightAtX0 возвращает базовую высоту земли, выровненную по сетке блоков
func (t *Terrain) GroundHeightAtX0() int {
	return t.groundHeightAtX0
}

// BlockSize возвращает размер блока
func (t *Terrain) BlockSize() int {
	return t.params.BlockSize
}

// NoiseKind возвращает алгоритм шума рельефа
func (t *Terrain) NoiseKind() util.NoiseKind {
	return t.noise.Kind()
}

// GroundHeightAt возвращает высоту поверхности земли над координатой x.
// Вход и результат выровнены по сетке блоков, поэтому соседние столбцы
// стыкуются без щелей, а порядок вызовов не влияет на результат.
func (t *Terrain) GroundHeightAt(x float64) float64 {
	bs := t.params.BlockSize
	startOfBlock := util.AlignDownFloat(x, bs)
	noise := t.noise.Noise(int(startOfBlock), t.params.NoiseAmplitude*bs)
	return float64(util.AlignDown(t.noise.Baseline()+noise, bs))
}

// SpawnHeight возвращает y, на котором объект высотой size стоит на земле в x=0
func (t *Terrain) SpawnHeight(size float64) float64 {
	return t.GroundHeightAt(0) - size
}

// maxPreallocColumns ограничивает заранее выделяемую ёмкость для широких диапазонов
const maxPreallocColumns = 4096

// GenerateColumns создаёт столбцы земли для всех клеток сетки в [minX, maxX].
// Каждый столбец — GroundDepth блоков вниз от поверхности.
func (t *Terrain) GenerateColumns(minX, maxX int) []*Block {
	bs := t.params.BlockSize
	start, count := util.GridSpan(minX, maxX, bs)
	if count == 0 {
		return nil
	}

	blocks := make([]*Block, 0, min(count, maxPreallocColumns)*uint64(t.params.GroundDepth))
	for i := uint64(0); i < count; i++ {
		x := util.GridColumn(start, i, bs)
		topY := t.GroundHeightAt(float64(x))
		blocks = t.appendColumn(blocks, x, topY)
	}
	return blocks
}

// appendColumn добавляет столбец блоков, начиная с поверхности topY
func (t *Terrain) appendColumn(blocks []*Block, x int, topY float64) []*Block {
	bs := t.params.BlockSize
	for i := 0; i < t.params.GroundDepth; i++ {
		topLeft := vec.Vec2Float{X: float64(x), Y: topY + float64(i*bs)}
		blocks = append(blocks, NewBlock(topLeft, bs, approximateGroundColor(x, i, t.params.Seed)))
	}
	return blocks
}
