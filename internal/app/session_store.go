package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// sessionKey — ключ записи сессии в BadgerDB
const sessionKey = "session:observer"

// ErrStoreClosed возвращается при работе с закрытым хранилищем
var ErrStoreClosed = errors.New("хранилище сессии закрыто")

// SessionState содержит то, что нужно для продолжения прогулки по миру.
// Сами чанки не сохраняются: при возврате они генерируются заново.
type SessionState struct {
	Seed      int32     `json:"seed"`       // Сид мира
	ObserverX float64   `json:"observer_x"` // Позиция наблюдателя
	Direction float64   `json:"direction"`  // Направление движения (+1 / -1)
	Tick      uint64    `json:"tick"`       // Номер последнего тика
	SavedAt   time.Time `json:"saved_at"`   // Время сохранения
}

// SessionBackend — хранилище, в котором App сохраняет сессию при Close
type SessionBackend interface {
	Save(state SessionState) error
	Load() (SessionState, bool, error)
	Close() error
}

// SessionStore хранит состояние наблюдателя в BadgerDB
type SessionStore struct {
	db    *badger.DB
	mutex sync.RWMutex
	ready bool
}

// OpenSessionStore открывает хранилище сессии в каталоге dir
func OpenSessionStore(dir string) (*SessionStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &SessionStore{db: db, ready: true}, nil
}

// Save сохраняет состояние сессии
func (s *SessionStore) Save(state SessionState) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.ready {
		return ErrStoreClosed
	}

	state.SavedAt = time.Now().UTC()

	// Сериализуем в JSON
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKey), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения сессии в BadgerDB: %w", err)
	}

	return nil
}

// Load читает сохранённое состояние. ok == false, если сессии ещё нет.
func (s *SessionStore) Load() (state SessionState, ok bool, err error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.ready {
		return SessionState{}, false, ErrStoreClosed
	}

	var data []byte

	// Читаем данные из BadgerDB
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKey))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return SessionState{}, false, nil
	}
	if err != nil {
		return SessionState{}, false, fmt.Errorf("ошибка чтения сессии из BadgerDB: %w", err)
	}

	// Десериализуем данные
	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, false, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return state, true, nil
}

// Close закрывает хранилище
func (s *SessionStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.ready {
		return nil
	}

	s.ready = false
	return s.db.Close()
}
