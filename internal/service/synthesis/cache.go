package synthesis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 保存 "声音+文本" 到音频文件名的映射
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, name string) error
}

// CacheKey 由声音与去除首尾空白后的文本计算，声音 ID 区分大小写，原样参与计算
func CacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// RedisCache 基于 Redis 的缓存，适合多实例网关
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache 创建 Redis 缓存，ttl 为 0 表示不过期
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "voiceify:audio"}
}

// Get 读取缓存
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	name, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return name, true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, key, name string) error {
	if err := c.client.Set(ctx, c.key(key), name, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) key(key string) string {
	return c.prefix + ":" + key
}

type memoryEntry struct {
	name    string
	expires time.Time
}

// MemoryCache 进程内缓存
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache 创建进程内缓存，ttl 为 0 表示不过期
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get 读取缓存，过期条目会被顺带清除
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.name, true, nil
}

// Set 写入缓存
func (c *MemoryCache) Set(_ context.Context, key, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{name: name}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = entry
	return nil
}
