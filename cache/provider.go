package cache

import (
	"context"
	"errors"
	"time"

	"github.com/anoixa/photo-share/cache/memory"
	"github.com/anoixa/photo-share/cache/redis"
)

// Provider 缓存提供者接口
// 会话记录存放于此，值统一以 JSON 序列化
type Provider interface {
	// Set 设置缓存项，expiration 为 0 表示不过期
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get 获取缓存项并反序列化到 dest，未命中时 IsCacheMiss 返回 true
	Get(ctx context.Context, key string, dest interface{}) error

	// Delete 删除缓存项，键不存在时不报错
	Delete(ctx context.Context, key string) error

	// Exists 检查缓存项是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查缓存后端是否可用
	Health(ctx context.Context) error

	// Close 关闭缓存连接
	Close() error

	// Name 返回缓存提供者名称
	Name() string
}

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, memory.ErrCacheMiss) || errors.Is(err, redis.ErrCacheMiss)
}
