package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	"github.com/wikatalk/wikatalk-api/internal/domain/repository"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// DefaultRankCacheTTL: время жизни вычисленной таблицы лидеров
const DefaultRankCacheTTL = 5 * time.Minute

// RankCache хранит вычисленные значения по строковому ключу с ограниченным временем жизни.
// Истекшая запись считается отсутствующей.
type RankCache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
}

// BoardCacheKey строит ключ таблицы: rankings:<type>[:<gameMode>]
func BoardCacheKey(t ranking.Type, gameMode string) string {
	key := "rankings:" + string(t)
	if gameMode = strings.TrimSpace(gameMode); gameMode != "" {
		key += ":" + gameMode
	}
	return key
}

// UserRankCacheKey строит ключ личного места: rankings:<type>:user:<id>
func UserRankCacheKey(t ranking.Type, userID uint) string {
	return fmt.Sprintf("rankings:%s:user:%d", t, userID)
}

type memoryEntry[V any] struct {
	value    V
	storedAt time.Time
}

// MemoryCache: кеш в памяти процесса. Вытеснения нет, запись устаревает при чтении.
type MemoryCache[V any] struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache создает кеш в памяти; now может быть nil (используется time.Now)
func NewMemoryCache[V any](ttl time.Duration, now func() time.Time) *MemoryCache[V] {
	if ttl <= 0 {
		ttl = DefaultRankCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache[V]{
		entries: make(map[string]memoryEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get возвращает значение, если оно есть и не старше TTL
func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set перезаписывает значение и обнуляет его возраст
func (c *MemoryCache[V]) Set(_ context.Context, key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry[V]{value: value, storedAt: c.now()}
}

// Len возвращает число хранимых записей, включая устаревшие
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache хранит значения в Redis в виде JSON, TTL выставляется на ключ.
// Ошибки Redis не ломают запрос: чтение считается промахом, запись пропускается.
type RedisCache[V any] struct {
	repo repository.CacheRepository
	ttl  time.Duration
}

// NewRedisCache создает кеш поверх CacheRepository
func NewRedisCache[V any](repo repository.CacheRepository, ttl time.Duration) (*RedisCache[V], error) {
	if repo == nil {
		return nil, fmt.Errorf("CacheRepository is required for RedisCache")
	}
	if ttl <= 0 {
		ttl = DefaultRankCacheTTL
	}
	return &RedisCache[V]{repo: repo, ttl: ttl}, nil
}

// Get читает и декодирует значение
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V
	if err := c.repo.GetJSON(ctx, key, &value); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[RankCache] Ошибка чтения ключа %s из Redis: %v", key, err)
		}
		var zero V
		return zero, false
	}
	return value, true
}

// Set сохраняет значение с TTL
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V) {
	if err := c.repo.SetJSON(ctx, key, value, c.ttl); err != nil {
		log.Printf("[RankCache] Ошибка записи ключа %s в Redis: %v", key, err)
	}
}
