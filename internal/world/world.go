package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// LiveWorld — живой мир хоста: объекты, разложенные по слоям отображения.
// Повторное размещение объекта или удаление неразмещённого объекта —
// ошибка программы, LiveWorld сразу паникует.
type LiveWorld struct {
	mu      sync.RWMutex
	layers  map[Layer]map[uuid.UUID]*Object
	placed  uint64 // Всего вызовов Place
	removed uint64 // Всего вызовов Remove
}

// NewLiveWorld создаёт пустой живой мир
func NewLiveWorld() *LiveWorld {
	return &LiveWorld{
		layers: make(map[Layer]map[uuid.UUID]*Object),
	}
}

// Place размещает объект в слое
func (w *LiveWorld) Place(obj *Object, layer Layer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	objects, ok := w.layers[layer]
	if !ok {
		objects = make(map[uuid.UUID]*Object)
		w.layers[layer] = objects
	}
	if _, exists := objects[obj.ID]; exists {
		panic(fmt.Sprintf("world: object %s (%s) already placed on layer %s", obj.ID, obj.Tag, layer))
	}
	objects[obj.ID] = obj
	w.placed++
}

// Remove удаляет объект из слоя
func (w *LiveWorld) Remove(obj *Object, layer Layer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	objects := w.layers[layer]
	if _, exists := objects[obj.ID]; !exists {
		panic(fmt.Sprintf("world: object %s (%s) is not placed on layer %s", obj.ID, obj.Tag, layer))
	}
	delete(objects, obj.ID)
	w.removed++
}

// Contains сообщает, размещён ли объект в слое
func (w *LiveWorld) Contains(obj *Object, layer Layer) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.layers[layer][obj.ID]
	return ok
}

// Count возвращает число объектов в слое
func (w *LiveWorld) Count(layer Layer) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.layers[layer])
}

// Total возвращает число объектов во всех слоях
func (w *LiveWorld) Total() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	total := 0
	for _, objects := range w.layers {
		total += len(objects)
	}
	return total
}

// Counters возвращает общее число размещений и удалений
func (w *LiveWorld) Counters() (placed, removed uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.placed, w.removed
}

// Objects возвращает объекты слоя, упорядоченные по позиции
func (w *LiveWorld) Objects(layer Layer) []*Object {
	w.mu.RLock()
	objects := make([]*Object, 0, len(w.layers[layer]))
	for _, obj := range w.layers[layer] {
		objects = append(objects, obj)
	}
	w.mu.RUnlock()

	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i].Position, objects[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	return objects
}

// Tagged возвращает число объектов с тегом tag во всех слоях
func (w *LiveWorld) Tagged(tag string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := 0
	for _, objects := range w.layers {
		for _, obj := range objects {
			if obj.Tag == tag {
				n++
			}
		}
	}
	return n
}
