package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions содержит настройки подключения к Redis
type RedisOptions struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записи; 0 — без срока
	Timeout   time.Duration // Таймаут одной операции
}

// RedisSessionStore хранит состояние наблюдателя в Redis.
// Удобен, когда несколько headless-хостов делят одну сессию.
type RedisSessionStore struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	timeout time.Duration

	mutex sync.RWMutex
	ready bool
}

// OpenRedisSessionStore подключается к Redis и проверяет соединение
func OpenRedisSessionStore(ctx context.Context, opts RedisOptions) (*RedisSessionStore, error) {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "worldstream:"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStore{
		client:  client,
		key:     opts.KeyPrefix + sessionKey,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		ready:   true,
	}, nil
}

// Save сохраняет состояние сессии
func (s *RedisSessionStore) Save(state SessionState) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.ready {
		return ErrStoreClosed
	}

	state.SavedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения сессии в Redis: %w", err)
	}
	return nil
}

// Load читает сохранённое состояние. ok == false, если сессии ещё нет.
func (s *RedisSessionStore) Load() (state SessionState, ok bool, err error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.ready {
		return SessionState{}, false, ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return SessionState{}, false, nil
	}
	if err != nil {
		return SessionState{}, false, fmt.Errorf("ошибка чтения сессии из Redis: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, false, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return state, true, nil
}

// Delete удаляет сохранённую сессию
func (s *RedisSessionStore) Delete() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.ready {
		return ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.key).Err()
}

// Close закрывает соединение с Redis
func (s *RedisSessionStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.ready {
		return nil
	}

	s.ready = false
	return s.client.Close()
}
