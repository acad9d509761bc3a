package world

import (
	"image/color"

	"github.com/google/uuid"

	"github.com/annel0/worldstream/internal/vec"
)

// Теги объектов, по которым хост различает их при столкновениях
const (
	TagGround = "ground"
	TagTrunk  = "trunk"
	TagLeaf   = "leaf"
	TagFruit  = "fruit"
)

// Object — непрозрачный дескриптор объекта, который размещается в живом мире.
// После создания ядро его не изменяет.
type Object struct {
	ID        uuid.UUID     // Уникальный ID объекта
	Tag       string        // Тип объекта (ground, trunk, leaf, fruit)
	Position  vec.Vec2Float // Левый верхний угол
	Size      vec.Vec2Float // Ширина и высота
	Color     color.RGBA    // Цвет прямоугольника
	Immovable bool          // Неподвижен для физики хоста
}

// NewObject создаёт объект с новым ID
func NewObject(tag string, position, size vec.Vec2Float, c color.RGBA) *Object {
	return &Object{
		ID:       uuid.New(),
		Tag:      tag,
		Position: position,
		Size:     size,
		Color:    c,
	}
}

// Host — живой мир, в который ядро добавляет и из которого удаляет объекты.
// Каждый вызов Place добавляет отдельный объект; Remove вызывается только
// для объектов, ранее размещённых через Place на том же слое.
type Host interface {
	Place(obj *Object, layer Layer)
	Remove(obj *Object, layer Layer)
}

// HostFuncs позволяет передать пару функций вместо реализации Host
type HostFuncs struct {
	PlaceFunc  func(obj *Object, layer Layer)
	RemoveFunc func(obj *Object, layer Layer)
}

// Place вызывает PlaceFunc
func (h HostFuncs) Place(obj *Object, layer Layer) {
	h.PlaceFunc(obj, layer)
}

// Remove вызывает RemoveFunc
func (h HostFuncs) Remove(obj *Object, layer Layer) {
	h.RemoveFunc(obj, layer)
}

// Loadable — единица содержимого чанка. Составные объекты (дерево)
// добавляются и удаляются целиком.
type Loadable interface {
	AddTo(host Host)
	RemoveFrom(host Host)
}
