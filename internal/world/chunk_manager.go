package world

import (
	"sort"

	"github.com/annel0/worldstream/internal/logging"
)

// Generator создаёт содержимое чанка с границами [leftBound, rightBound].
// Генератор обязан быть тотальным: паника внутри него — ошибка программы.
type Generator[T Loadable] func(leftBound, rightBound int) []T

// UpdateResult описывает изменения, сделанные одним вызовом Update
type UpdateResult struct {
	Min     int   // Первый требуемый чанк
	Max     int   // Последний требуемый чанк
	Evicted []int // Выгруженные чанки по возрастанию
	Loaded  []int // Загруженные чанки по возрастанию
}

// Changed сообщает, был ли загружен или выгружен хотя бы один чанк
func (r UpdateResult) Changed() bool {
	return len(r.Evicted) > 0 || len(r.Loaded) > 0
}

// Option настраивает ChunkManager
type Option func(*managerOptions)

type managerOptions struct {
	observer ChunkObserver
	logger   *logging.Logger
}

// WithObserver подключает наблюдателя за загрузкой чанков
func WithObserver(observer ChunkObserver) Option {
	return func(o *managerOptions) {
		o.observer = observer
	}
}

// WithLogger задаёт логгер менеджера
func WithLogger(logger *logging.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// ChunkManager держит загруженными чанки вокруг наблюдателя.
// Для каждой категории содержимого (земля, деревья) создаётся свой менеджер.
//
// Менеджер не потокобезопасен: Update вызывается из одного цикла хоста.
type ChunkManager[T Loadable] struct {
	name     string
	window   Window
	generate Generator[T]
	resident map[int]*ChunkRecord[T]
	observer ChunkObserver
	log      *logging.Logger
}

// NewChunkManager создаёт менеджер чанков
func NewChunkManager[T Loadable](name string, window Window, generate Generator[T], opts ...Option) *ChunkManager[T] {
	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.GetComponentLogger(name)
	}

	return &ChunkManager[T]{
		name:     name,
		window:   window,
		generate: generate,
		resident: make(map[int]*ChunkRecord[T]),
		observer: o.observer,
		log:      o.logger,
	}
}

// Name возвращает категорию содержимого менеджера
func (m *ChunkManager[T]) Name() string {
	return m.name
}

// Window возвращает окно подгрузки менеджера
func (m *ChunkManager[T]) Window() Window {
	return m.window
}

// Update приводит набор загруженных чанков к окну вокруг observerX.
// Сначала выгружаются все чанки вне окна, затем загружаются недостающие.
// Повторный вызов с тем же окном ничего не делает.
func (m *ChunkManager[T]) Update(observerX float64, host Host) UpdateResult {
	lo, hi := m.window.Required(observerX)

	result := UpdateResult{Min: lo, Max: hi}
	result.Evicted = m.removeChunks(host, lo, hi)
	result.Loaded = m.addChunks(host, lo, hi)
	return result
}

// Clear выгружает все чанки
func (m *ChunkManager[T]) Clear(host Host) []int {
	evicted := m.Resident()
	for _, index := range evicted {
		m.evict(host, index)
	}
	return evicted
}

// Resident возвращает индексы загруженных чанков по возрастанию
func (m *ChunkManager[T]) Resident() []int {
	indices := make([]int, 0, len(m.resident))
	for index := range m.resident {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// Record возвращает содержимое загруженного чанка
func (m *ChunkManager[T]) Record(index int) ([]T, bool) {
	rec, ok := m.resident[index]
	if !ok {
		return nil, false
	}
	return rec.Entities, true
}

// Len возвращает число загруженных чанков
func (m *ChunkManager[T]) Len() int {
	return len(m.resident)
}

// removeChunks выгружает чанки вне диапазона [minChunk, maxChunk]
func (m *ChunkManager[T]) removeChunks(host Host, minChunk, maxChunk int) []int {
	var evicted []int
	for index := range m.resident {
		if index < minChunk || index > maxChunk {
			evicted = append(evicted, index)
		}
	}
	sort.Ints(evicted)

	for _, index := range evicted {
		m.evict(host, index)
	}
	return evicted
}

// addChunks загружает недостающие чанки диапазона [minChunk, maxChunk]
func (m *ChunkManager[T]) addChunks(host Host, minChunk, maxChunk int) []int {
	var loaded []int
	for index := minChunk; index <= maxChunk; index++ {
		if _, exists := m.resident[index]; exists {
			continue
		}

		left, right := m.window.Bounds(index)
		entities := m.generate(left, right)
		for _, e := range entities {
			e.AddTo(host)
		}
		m.resident[index] = &ChunkRecord[T]{Index: index, Entities: entities}
		loaded = append(loaded, index)

		m.log.Debug("%s: chunk %d [%d..%d] loaded: %d entities", m.name, index, left, right, len(entities))
		if m.observer != nil {
			m.observer.ChunkLoaded(m.event(index, len(entities)))
		}
	}
	return loaded
}

func (m *ChunkManager[T]) evict(host Host, index int) {
	rec := m.resident[index]
	for _, e := range rec.Entities {
		e.RemoveFrom(host)
	}
	delete(m.resident, index)

	m.log.Debug("%s: chunk %d evicted: %d entities", m.name, index, len(rec.Entities))
	if m.observer != nil {
		m.observer.ChunkEvicted(m.event(index, len(rec.Entities)))
	}
}

func (m *ChunkManager[T]) event(index, entities int) ChunkEvent {
	left, right := m.window.Bounds(index)
	return ChunkEvent{
		Source:   m.name,
		Index:    index,
		Left:     left,
		Right:    right,
		Entities: entities,
	}
}
