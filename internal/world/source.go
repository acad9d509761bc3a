package world

// Категории содержимого мира
const (
	SourceTerrain = "terrain"
	SourceFlora   = "flora"
)

// Streamer — источник содержимого, подгружаемого вокруг наблюдателя
type Streamer interface {
	Name() string
	UpdateAroundObserver(observerX float64, host Host) UpdateResult
	ResidentChunks() []int
	Window() Window
	Clear(host Host) []int
}

// Source связывает менеджер чанков с генератором одной категории содержимого.
// Источники разных категорий независимы и не делят записи чанков.
type Source[T Loadable] struct {
	manager *ChunkManager[T]
}

// NewSource создаёт источник с собственным окном подгрузки
func NewSource[T Loadable](name string, chunkSize int, r Range, generate Generator[T], opts ...Option) *Source[T] {
	return &Source[T]{
		manager: NewChunkManager(name, NewWindow(chunkSize, r), generate, opts...),
	}
}

// NewTerrainSource создаёт источник столбцов земли
func NewTerrainSource(terrain *Terrain, params Params, opts ...Option) *Source[*Block] {
	return NewSource[*Block](SourceTerrain, params.ChunkSize(), params.Terrain, terrain.GenerateColumns, opts...)
}

// NewFloraSource создаёт источник деревьев
func NewFloraSource(flora *Flora, params Params, opts ...Option) *Source[*Tree] {
	return NewSource[*Tree](SourceFlora, params.ChunkSize(), params.Flora, flora.GenerateTrees, opts...)
}

// Name возвращает категорию содержимого
func (s *Source[T]) Name() string {
	return s.manager.Name()
}

// UpdateAroundObserver подгружает и выгружает чанки вокруг observerX
func (s *Source[T]) UpdateAroundObserver(observerX float64, host Host) UpdateResult {
	return s.manager.Update(observerX, host)
}

// ResidentChunks возвращает индексы загруженных чанков
func (s *Source[T]) ResidentChunks() []int {
	return s.manager.Resident()
}

// Window возвращает окно подгрузки источника
func (s *Source[T]) Window() Window {
	return s.manager.Window()
}

// Clear выгружает все чанки источника
func (s *Source[T]) Clear(host Host) []int {
	return s.manager.Clear(host)
}

// Manager возвращает менеджер чанков источника
func (s *Source[T]) Manager() *ChunkManager[T] {
	return s.manager
}
