package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/internal/metrics"
	llmpkg "github.com/BaSui01/hiveflow/llm"
)

// ErrCacheMiss 表示两级缓存均未命中
var ErrCacheMiss = errors.New("cache miss")

// Entry 缓存条目
type Entry struct {
	Response  *llmpkg.ChatResponse `json:"response"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
	HitCount  int                  `json:"hit_count"`
}

// Config 缓存配置
type Config struct {
	LocalMaxSize int           // 本地缓存最大条目数
	LocalTTL     time.Duration // 本地缓存 TTL
	RedisTTL     time.Duration // Redis 缓存 TTL
	EnableLocal  bool          // 是否启用本地缓存
	EnableRedis  bool          // 是否启用 Redis 缓存
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		LocalMaxSize: 1024,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     1 * time.Hour,
		EnableLocal:  true,
		EnableRedis:  true,
	}
}

// Cache 多级缓存:本地 LRU 作为 L1,Redis 作为 L2,命中 L2 时回填 L1
type Cache struct {
	local  *LRUCache
	redis  *redis.Client
	config *Config
	logger *zap.Logger
}

// New 创建多级缓存。rdb 为 nil 时只使用本地缓存。
func New(rdb *redis.Client, config *Config, logger *zap.Logger) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var local *LRUCache
	if config.EnableLocal {
		local = NewLRUCache(config.LocalMaxSize, config.LocalTTL)
	}

	return &Cache{
		local:  local,
		redis:  rdb,
		config: config,
		logger: logger.With(zap.String("component", "llm_cache")),
	}
}

// Get 获取缓存
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	if c.local != nil {
		if entry, ok := c.local.Get(key); ok {
			c.logger.Debug("local cache hit", zap.String("key", key))
			return entry, nil
		}
	}

	if c.config.EnableRedis && c.redis != nil {
		data, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
		if err == nil {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err == nil {
				// 回填本地缓存
				if c.local != nil {
					c.local.Set(key, &entry)
				}
				c.logger.Debug("redis cache hit", zap.String("key", key))
				return &entry, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get error", zap.Error(err))
		}
	}

	return nil, ErrCacheMiss
}

// Set 设置缓存
func (c *Cache) Set(ctx context.Context, key string, entry *Entry) error {
	entry.CreatedAt = time.Now()
	entry.ExpiresAt = time.Now().Add(c.config.RedisTTL)

	if c.local != nil {
		c.local.Set(key, entry)
	}

	if c.config.EnableRedis && c.redis != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := c.redis.Set(ctx, c.redisKey(key), data, c.config.RedisTTL).Err(); err != nil {
			c.logger.Warn("redis set error", zap.Error(err))
			return err
		}
	}

	c.logger.Debug("cache set", zap.String("key", key))
	return nil
}

// Delete 删除缓存
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.local != nil {
		c.local.Delete(key)
	}
	if c.config.EnableRedis && c.redis != nil {
		return c.redis.Del(ctx, c.redisKey(key)).Err()
	}
	return nil
}

func (c *Cache) redisKey(key string) string {
	return "llm:response_cache:" + key
}

// CachingClient 将 CompletionClient 包装为带缓存的客户端。路由请求是
// 确定性的(同一提示词 + 同一 Schema),可以安全缓存。
type CachingClient struct {
	upstream  llmpkg.CompletionClient
	cache     *Cache
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCachingClient 创建缓存客户端。collector 可为 nil。
func NewCachingClient(upstream llmpkg.CompletionClient, c *Cache, collector *metrics.Collector, logger *zap.Logger) *CachingClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingClient{
		upstream:  upstream,
		cache:     c,
		collector: collector,
		logger:    logger.With(zap.String("component", "caching_client")),
	}
}

// Name 实现 CompletionClient.Name
func (c *CachingClient) Name() string { return c.upstream.Name() + "+cache" }

// ChatCompletion 实现 CompletionClient.ChatCompletion:先查缓存,未命中
// 时透传上游并回写。上游错误不缓存。
func (c *CachingClient) ChatCompletion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	key := GenerateKey(req)

	if entry, err := c.cache.Get(ctx, key); err == nil {
		if c.collector != nil {
			c.collector.RecordCacheHit("llm")
		}
		return entry.Response, nil
	}
	if c.collector != nil {
		c.collector.RecordCacheMiss("llm")
	}

	resp, err := c.upstream.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, &Entry{Response: resp}); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
	return resp, nil
}
