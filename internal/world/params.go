package world

import "github.com/annel0/worldstream/internal/util"

// Range — число чанков, которые держатся загруженными позади и впереди наблюдателя
type Range struct {
	Before int `yaml:"before"`
	After  int `yaml:"after"`
}

// Params содержит параметры генерации и подгрузки мира.
// Задаются один раз при создании мира и дальше не меняются.
type Params struct {
	Seed         int32   `yaml:"seed"`          // Сид мира
	BlockSize    int     `yaml:"block_size"`    // Размер блока в мировых единицах
	ChunkBlocks  int     `yaml:"chunk_blocks"`  // Ширина чанка в блоках
	WindowHeight float64 `yaml:"window_height"` // Высота окна хоста
	GroundRatio  float64 `yaml:"ground_ratio"`  // Доля высоты окна до базовой линии земли
	GroundDepth  int     `yaml:"ground_depth"`  // Глубина столбца земли в блоках

	NoiseKind      util.NoiseKind `yaml:"noise_kind"`      // value или perlin
	NoiseAmplitude int            `yaml:"noise_amplitude"` // Амплитуда рельефа в блоках
	NoiseSpacing   int            `yaml:"noise_spacing"`   // Шаг решётки шума в блоках

	TreeDensity    float64 `yaml:"tree_density"`     // Вероятность дерева в столбце
	TrunkMinBlocks int     `yaml:"trunk_min_blocks"` // Минимальная высота ствола
	TrunkMaxBlocks int     `yaml:"trunk_max_blocks"` // Максимальная высота ствола
	FoliageWidth   int     `yaml:"foliage_width"`    // Ширина кроны в блоках
	FoliageHeight  int     `yaml:"foliage_height"`   // Высота кроны в блоках
	LeafRatio      float64 `yaml:"leaf_ratio"`       // Вероятность листа в ячейке кроны
	FruitRatio     float64 `yaml:"fruit_ratio"`      // Вероятность плода в ячейке кроны

	Terrain Range `yaml:"terrain"` // Окно подгрузки земли
	Flora   Range `yaml:"flora"`   // Окно подгрузки деревьев
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		Seed:         100,
		BlockSize:    30,
		ChunkBlocks:  8,
		WindowHeight: 720,
		GroundRatio:  0.7,
		GroundDepth:  20,

		NoiseKind:      util.NoiseValue,
		NoiseAmplitude: 7,
		NoiseSpacing:   6,

		TreeDensity:    0.15,
		TrunkMinBlocks: 4,
		TrunkMaxBlocks: 8,
		FoliageWidth:   5,
		FoliageHeight:  6,
		LeafRatio:      0.7,
		FruitRatio:     0.2,

		Terrain: Range{Before: 6, After: 6},
		Flora:   Range{Before: 6, After: 6},
	}
}

// ChunkSize возвращает ширину чанка в мировых единицах
func (p Params) ChunkSize() int {
	return p.BlockSize * p.ChunkBlocks
}
