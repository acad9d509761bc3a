package world

import (
	"image/color"

	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/vec"
)

// BaseGroundColor — базовый цвет земли
var BaseGroundColor = color.RGBA{R: 212, G: 123, B: 74, A: 255}

// groundColorDelta — максимальное отклонение канала цвета блока земли
const groundColorDelta = 10

// Block представляет неподвижный квадратный блок земли
type Block struct {
	Object
}

// NewBlock создаёт блок земли с левым верхним углом в topLeft
func NewBlock(topLeft vec.Vec2Float, size int, c color.RGBA) *Block {
	obj := NewObject(TagGround, topLeft, vec.Square(float64(size)), c)
	obj.Immovable = true
	return &Block{Object: *obj}
}

// AddTo добавляет блок в слой статических объектов
func (b *Block) AddTo(host Host) {
	host.Place(&b.Object, LayerStaticObjects)
}

// RemoveFrom удаляет блок из слоя статических объектов
func (b *Block) RemoveFrom(host Host) {
	host.Remove(&b.Object, LayerStaticObjects)
}

// approximateGroundColor слегка меняет базовый цвет земли.
// Отклонение зависит только от координат блока и сида, поэтому
// после повторной генерации чанка цвета совпадают.
func approximateGroundColor(x, row int, seed int32) color.RGBA {
	h := util.HashAt(x*31+row, seed)
	return color.RGBA{
		R: shiftChannel(BaseGroundColor.R, h),
		G: shiftChannel(BaseGroundColor.G, h>>8),
		B: shiftChannel(BaseGroundColor.B, h>>16),
		A: BaseGroundColor.A,
	}
}

func shiftChannel(base uint8, h uint32) uint8 {
	delta := int(h%(2*groundColorDelta+1)) - groundColorDelta
	v := int(base) + delta
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}
