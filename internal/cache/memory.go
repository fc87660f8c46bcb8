package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// memoryEntry — одно значение in-memory кеша со сроком годности.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory — потокобезопасный in-memory кеш запросов с той же поверхностью
// Get/Set/Invalidate, что и у Redis-кеша. Используется клиентской стороной
// канала событий: диспетчер инвалидирует ключи, а представления
// перезапрашивают данные при следующем чтении.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory создаёт пустой in-memory кеш.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get пытается получить значение из кеша по ключу.
func (m *Memory) Get(key string, result any) (bool, error) {
	const op = "cache.Memory.Get"

	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение в кеш. Нулевое expiration означает «без срока годности».
func (m *Memory) Set(key string, value any, expiration time.Duration) error {
	const op = "cache.Memory.Set"

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entry := memoryEntry{data: data}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Invalidate помечает значение устаревшим, удаляя его по ключу.
// Отсутствие ключа не является ошибкой: инвалидация идемпотентна.
func (m *Memory) Invalidate(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
