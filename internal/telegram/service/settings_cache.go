package service

import (
	"context"
	"sync"
	"time"

	"pml_bot/internal/telegram/models"
	"pml_bot/internal/telegram/repository"
)

// SettingsCache 配置读取缓存
//
// 每个事件都要读配置，这里加一层短 TTL 缓存；任何写操作调用
// Invalidate 使其失效。实现 SettingsProvider。
type SettingsCache struct {
	repo repository.SettingsRepository
	ttl  time.Duration

	mu      sync.RWMutex
	value   *models.Settings
	expires time.Time
}

// NewSettingsCache 创建配置缓存；ttl <= 0 时每次读取都直达存储
func NewSettingsCache(repo repository.SettingsRepository, ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		repo: repo,
		ttl:  ttl,
	}
}

// Get 读取配置（命中缓存时不访问存储）
func (c *SettingsCache) Get(ctx context.Context) (*models.Settings, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		value, expires := c.value, c.expires
		c.mu.RUnlock()

		if value != nil && time.Now().Before(expires) {
			return value, nil
		}
	}

	value, err := c.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.value = value
		c.expires = time.Now().Add(c.ttl)
		c.mu.Unlock()
	}

	return value, nil
}

// Invalidate 使缓存失效（任何配置写入后调用）
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}
