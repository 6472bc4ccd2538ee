package store

import (
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"

	"tavern.local/internal/platform/metrics"
)

// CacheConfig 控制实体缓存行为。
type CacheConfig struct {
	Enabled bool
	// Sliding：最后一次访问后多久过期（每次命中会续期）
	Sliding time.Duration
	// Absolute：写入后多久必然过期，命中也不续。两者先到先生效。
	Absolute time.Duration
	MaxItems int64
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  true,
		Sliding:  5 * time.Minute,
		Absolute: 30 * time.Minute,
		MaxItems: 100_000,
	}
}

// EntityCache 是进程内的实体旁路缓存（cache-aside），按 "<Type>_<id>" 存单个实体。
//
// 契约（仓储层依赖这些行为）：
// - 纯 best-effort：任何内部失败都不会冒泡给调用方
// - Get 不区分“从没缓存过”和“已过期”，都返回 nil
// - 并发读写无需调用方加锁，last-write-wins
type EntityCache struct {
	cache    *ristretto.Cache
	keys     *KeyStore
	enabled  bool
	sliding  time.Duration
	absolute time.Duration
}

// entry 带上写入时间，用来在 ristretto 的单一 TTL 之上实现绝对过期。
type entry struct {
	value      any
	insertedAt time.Time
}

// NewEntityCache 创建实体缓存。keys 由调用方注入（进程启动时创建一个，
// 所有仓储共享），避免包级全局状态。
func NewEntityCache(cfg CacheConfig, keys *KeyStore) (*EntityCache, error) {
	c := &EntityCache{
		keys:     keys,
		enabled:  cfg.Enabled,
		sliding:  cfg.Sliding,
		absolute: cfg.Absolute,
	}
	if !cfg.Enabled {
		return c, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxItems * 10, // 计数器数量，建议为条目上限的 10 倍
		MaxCost:     cfg.MaxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	c.cache = cache
	return c, nil
}

// Add 写入（或覆盖）一个实体。id 为空时直接跳过。
func (c *EntityCache) Add(typeName, id string, v any) {
	if c == nil || !c.enabled || id == "" || v == nil {
		return
	}
	key := CacheKey(typeName, id)
	c.set(key, entry{value: v, insertedAt: time.Now()})
	if c.keys != nil {
		c.keys.Track(key)
	}
	metrics.CacheOperations.WithLabelValues(typeName, "add").Inc()
	slog.Debug("entity cached", "entity", typeName, "id", id)
}

// Update 和 Add 语义相同（幂等 upsert），单独留名字是为了调用点可读。
func (c *EntityCache) Update(typeName, id string, v any) {
	if c == nil || !c.enabled || id == "" || v == nil {
		return
	}
	key := CacheKey(typeName, id)
	c.set(key, entry{value: v, insertedAt: time.Now()})
	if c.keys != nil {
		c.keys.Track(key)
	}
	metrics.CacheOperations.WithLabelValues(typeName, "update").Inc()
	slog.Debug("entity cache updated", "entity", typeName, "id", id)
}

// Get 返回未过期的缓存值，否则 nil。命中会按滑动窗口续期，
// 但不会越过写入时的绝对截止时间。
func (c *EntityCache) Get(typeName, id string) any {
	if c == nil || !c.enabled || id == "" {
		return nil
	}
	key := CacheKey(typeName, id)
	raw, ok := c.cache.Get(key)
	if !ok {
		metrics.CacheOperations.WithLabelValues(typeName, "miss").Inc()
		return nil
	}
	e, ok := raw.(entry)
	if !ok {
		c.cache.Del(key)
		return nil
	}
	deadline := e.insertedAt.Add(c.absolute)
	if !time.Now().Before(deadline) {
		c.cache.Del(key)
		metrics.CacheOperations.WithLabelValues(typeName, "expired").Inc()
		return nil
	}
	// 滑动续期：保留原 insertedAt，TTL 取滑动窗口和绝对截止的较小者
	c.set(key, e)
	metrics.CacheOperations.WithLabelValues(typeName, "hit").Inc()
	return e.value
}

// Remove 逐出一个条目，不存在时是 no-op。
func (c *EntityCache) Remove(typeName, id string) {
	if c == nil || !c.enabled || id == "" {
		return
	}
	key := CacheKey(typeName, id)
	c.cache.Del(key)
	if c.keys != nil {
		c.keys.Remove(key)
	}
	metrics.CacheOperations.WithLabelValues(typeName, "evict").Inc()
	slog.Debug("entity cache evicted", "entity", typeName, "id", id)
}

// Keys 返回登记过的缓存 key（参考值，见 KeyStore 注释）。
func (c *EntityCache) Keys() []string {
	if c == nil || c.keys == nil {
		return nil
	}
	return c.keys.Keys()
}

// Clear 是管理接口用的全清操作：清登记表并逐出对应缓存条目。
func (c *EntityCache) Clear() int {
	if c == nil || c.keys == nil {
		return 0
	}
	keys := c.keys.Clear()
	if c.enabled {
		for _, k := range keys {
			c.cache.Del(k)
		}
	}
	slog.Debug("entity cache cleared", "keys", len(keys))
	return len(keys)
}

func (c *EntityCache) Close() {
	if c != nil && c.cache != nil {
		c.cache.Close()
	}
}

// set 统一算 TTL 并同步等待写入生效。
// ristretto 的 Set 默认异步，不 Wait 的话“写后立刻读”可能 miss，
// 会破坏“Create 之后 GetByID 不回源”的约定。
func (c *EntityCache) set(key string, e entry) {
	ttl := c.sliding
	if remaining := time.Until(e.insertedAt.Add(c.absolute)); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	c.cache.SetWithTTL(key, e, 1, ttl)
	c.cache.Wait()
}
