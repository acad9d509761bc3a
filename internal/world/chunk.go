package world

import "math"

// Window вычисляет диапазон чанков, которые должны быть загружены
// вокруг наблюдателя. Чанк с индексом i занимает [i*ChunkSize, i*ChunkSize+ChunkSize-1].
type Window struct {
	ChunkSize int // Ширина чанка в мировых единицах
	Before    int // Чанков позади наблюдателя
	After     int // Чанков впереди наблюдателя
}

// NewWindow создаёт окно для чанков ширины chunkSize
func NewWindow(chunkSize int, r Range) Window {
	return Window{
		ChunkSize: chunkSize,
		Before:    r.Before,
		After:     r.After,
	}
}

// IndexOf возвращает индекс чанка, ближайшего к x.
// Половина округляется вверх и для отрицательных x.
func (w Window) IndexOf(x float64) int {
	return int(math.Floor(x/float64(w.ChunkSize) + 0.5))
}

// Required возвращает включительный диапазон индексов чанков для наблюдателя в observerX
func (w Window) Required(observerX float64) (min, max int) {
	center := w.IndexOf(observerX)
	return center - w.Before, center + w.After
}

// Contains сообщает, входит ли чанк index в окно наблюдателя
func (w Window) Contains(index int, observerX float64) bool {
	min, max := w.Required(observerX)
	return index >= min && index <= max
}

// Bounds возвращает границы чанка index в мировых координатах (включительно)
func (w Window) Bounds(index int) (left, right int) {
	left = index * w.ChunkSize
	return left, left + w.ChunkSize - 1
}

// Size возвращает число чанков в окне
func (w Window) Size() int {
	return w.Before + w.After + 1
}

// ChunkRecord — загруженный чанк и созданное для него содержимое
type ChunkRecord[T Loadable] struct {
	Index    int
	Entities []T
}

// ChunkEvent описывает загрузку или выгрузку чанка
type ChunkEvent struct {
	Source   string // Категория содержимого (terrain, flora)
	Index    int    // Индекс чанка
	Left     int    // Левая граница чанка
	Right    int    // Правая граница чанка
	Entities int    // Число единиц содержимого в чанке
}

// ChunkObserver получает уведомления о загрузке и выгрузке чанков
type ChunkObserver interface {
	ChunkLoaded(ev ChunkEvent)
	ChunkEvicted(ev ChunkEvent)
}

// ChunkObservers рассылает уведомления нескольким наблюдателям
type ChunkObservers []ChunkObserver

// ChunkLoaded уведомляет всех наблюдателей о загрузке
func (o ChunkObservers) ChunkLoaded(ev ChunkEvent) {
	for _, obs := range o {
		obs.ChunkLoaded(ev)
	}
}

// ChunkEvicted уведомляет всех наблюдателей о выгрузке
func (o ChunkObservers) ChunkEvicted(ev ChunkEvent) {
	for _, obs := range o {
		obs.ChunkEvicted(ev)
	}
}
