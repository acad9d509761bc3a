package world

import (
	"image/color"

	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/vec"
)

// Цвета частей дерева
var (
	TrunkColor = color.RGBA{R: 102, G: 51, B: 0, A: 255}
	LeafColor  = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	FruitColor = color.RGBA{R: 255, G: 69, B: 0, A: 255}
)

// FoliageKind — содержимое ячейки кроны
type FoliageKind uint8

const (
	FoliageEmpty FoliageKind = iota
	FoliageLeaf
	FoliageFruit
)

// String возвращает строковое представление ячейки
func (k FoliageKind) String() string {
	switch k {
	case FoliageLeaf:
		return "leaf"
	case FoliageFruit:
		return "fruit"
	default:
		return "empty"
	}
}

// treePart — объект дерева вместе со слоем, в котором он размещается
type treePart struct {
	obj   *Object
	layer Layer
}

// Tree — составной объект: ствол, листья и плоды.
// Добавляется в мир и удаляется из него целиком.
type Tree struct {
	Position    vec.Vec2Float // Основание ствола: x столбца и высота земли
	TrunkBlocks int           // Высота ствола в блоках

	foliageWidth  int
	foliageHeight int
	foliage       []FoliageKind // Ячейки кроны: x снаружи, y внутри
	parts         []treePart    // В порядке создания, ствол первым
}

// TreeSnapshot — сравнимое описание дерева без ID объектов
type TreeSnapshot struct {
	Position    vec.Vec2Float
	TrunkBlocks int
	Foliage     []FoliageKind
}

// NewTree строит дерево с основанием в position.
// Поток случайных чисел дерева зависит только от его позиции: дерево,
// созданное повторно в той же точке, совпадает с первым.
//
// Крона — сетка FoliageWidth x FoliageHeight над вершиной ствола. Ячейки
// обходятся по столбцам слева направо, внутри столбца сверху вниз; на каждую
// ячейку тратится ровно одно значение потока: меньше LeafRatio — лист,
// меньше LeafRatio+FruitRatio — плод, иначе ячейка пустая.
func NewTree(position vec.Vec2Float, params Params) *Tree {
	rng := util.NewStream(util.PositionSeed(position.X, position.Y))
	bs := float64(params.BlockSize)

	t := &Tree{
		Position:      position,
		TrunkBlocks:   rng.IntBetween(params.TrunkMinBlocks, params.TrunkMaxBlocks),
		foliageWidth:  params.FoliageWidth,
		foliageHeight: params.FoliageHeight,
		foliage:       make([]FoliageKind, 0, params.FoliageWidth*params.FoliageHeight),
	}

	trunkHeight := float64(t.TrunkBlocks) * bs
	trunk := NewObject(TagTrunk,
		vec.Vec2Float{X: position.X, Y: position.Y - trunkHeight},
		vec.Vec2Float{X: bs, Y: trunkHeight},
		TrunkColor,
	)
	trunk.Immovable = true
	t.parts = append(t.parts, treePart{obj: trunk, layer: LayerStaticObjects})

	start := vec.Vec2Float{
		X: position.X - float64(params.FoliageWidth/2)*bs,
		Y: position.Y - trunkHeight - float64(params.FoliageHeight-1)*bs,
	}

	for i := 0; i < params.FoliageWidth; i++ {
		for j := 0; j < params.FoliageHeight; j++ {
			cell := vec.FromVec2(vec.Vec2{X: i, Y: j}.Scale(params.BlockSize))
			t.makeFoliageCell(start.Add(cell), rng.Float64(), params)
		}
	}

	return t
}

func (t *Tree) makeFoliageCell(pos vec.Vec2Float, choice float64, params Params) {
	size := vec.Square(float64(params.BlockSize))

	switch {
	case choice < params.LeafRatio:
		leaf := NewObject(TagLeaf, pos, size, LeafColor)
		t.parts = append(t.parts, treePart{obj: leaf, layer: LayerBackground})
		t.foliage = append(t.foliage, FoliageLeaf)
	case choice < params.LeafRatio+params.FruitRatio:
		fruit := NewObject(TagFruit, pos, size, FruitColor)
		t.parts = append(t.parts, treePart{obj: fruit, layer: LayerStaticObjects})
		t.foliage = append(t.foliage, FoliageFruit)
	default:
		t.foliage = append(t.foliage, FoliageEmpty)
	}
}

// AddTo размещает все части дерева в мире
func (t *Tree) AddTo(host Host) {
	for _, p := range t.parts {
		host.Place(p.obj, p.layer)
	}
}

// RemoveFrom удаляет все части дерева из мира в том же порядке
func (t *Tree) RemoveFrom(host Host) {
	for _, p := range t.parts {
		host.Remove(p.obj, p.layer)
	}
}

// Trunk возвращает ствол дерева
func (t *Tree) Trunk() *Object {
	return t.parts[0].obj
}

// Leaves возвращает листья дерева
func (t *Tree) Leaves() []*Object {
	return t.partsTagged(TagLeaf)
}

// Fruits возвращает плоды дерева
func (t *Tree) Fruits() []*Object {
	return t.partsTagged(TagFruit)
}

// Objects возвращает все объекты дерева в порядке создания
func (t *Tree) Objects() []*Object {
	objs := make([]*Object, len(t.parts))
	for i, p := range t.parts {
		objs[i] = p.obj
	}
	return objs
}

// FoliageAt возвращает содержимое ячейки кроны (col — слева направо, row — сверху вниз)
func (t *Tree) FoliageAt(col, row int) FoliageKind {
	if col < 0 || row < 0 || col >= t.foliageWidth || row >= t.foliageHeight {
		return FoliageEmpty
	}
	return t.foliage[col*t.foliageHeight+row]
}

// Snapshot возвращает описание дерева для сравнения после повторной генерации
func (t *Tree) Snapshot() TreeSnapshot {
	return TreeSnapshot{
		Position:    t.Position,
		TrunkBlocks: t.TrunkBlocks,
		Foliage:     append([]FoliageKind(nil), t.foliage...),
	}
}

func (t *Tree) partsTagged(tag string) []*Object {
	var objs []*Object
	for _, p := range t.parts {
		if p.obj.Tag == tag {
			objs = append(objs, p.obj)
		}
	}
	return objs
}
