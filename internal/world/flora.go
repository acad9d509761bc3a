package world

import (
	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/vec"
)

// HeightFunc возвращает высоту земли над координатой x
type HeightFunc func(x float64) float64

// Flora расставляет деревья. Высоту земли Flora не вычисляет сама,
// а получает от переданной функции, обычно Terrain.GroundHeightAt.
type Flora struct {
	params   Params
	heightAt HeightFunc
}

// NewFlora создаёт генератор растительности
func NewFlora(params Params, heightAt HeightFunc) *Flora {
	return &Flora{
		params:   params,
		heightAt: heightAt,
	}
}

// HasTreeAt сообщает, растёт ли дерево в столбце сетки x
func (f *Flora) HasTreeAt(x int) bool {
	return util.PseudoRandomAt(x, f.params.Seed) < f.params.TreeDensity
}

// GenerateTrees создаёт деревья во всех столбцах сетки в [minX, maxX]
func (f *Flora) GenerateTrees(minX, maxX int) []*Tree {
	bs := f.params.BlockSize
	start, count := util.GridSpan(minX, maxX, bs)

	var trees []*Tree
	for i := uint64(0); i < count; i++ {
		if x := util.GridColumn(start, i, bs); f.HasTreeAt(x) {
			trees = append(trees, f.placeTreeAt(x))
		}
	}
	return trees
}

// placeTreeAt ставит дерево на землю в столбце x
func (f *Flora) placeTreeAt(x int) *Tree {
	locX := float64(x)
	return NewTree(vec.Vec2Float{X: locX, Y: f.heightAt(locX)}, f.params)
}
