package cache

import (
	"fmt"
	"log"

	"github.com/anoixa/photo-share/cache/memory"
	"github.com/anoixa/photo-share/cache/redis"
	"github.com/anoixa/photo-share/config"
	"github.com/mitchellh/mapstructure"
)

// NewProvider 按缓存类型与参数表创建缓存提供者
func NewProvider(cacheType string, options map[string]interface{}) (Provider, error) {
	switch cacheType {
	case "", "memory":
		var cfg memory.Config
		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return memory.NewMemory(cfg)

	case "redis":
		var cfg redis.Config
		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return redis.NewRedisFromConfig(&cfg)

	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", cacheType)
	}
}

// NewFromConfig 使用全局配置创建缓存提供者
func NewFromConfig(cfg *config.Config) (Provider, error) {
	provider, err := NewProvider(cfg.CacheType, cfg.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache provider: %w", cfg.CacheType, err)
	}

	log.Printf("[CacheFactory] Cache provider '%s' initialized", provider.Name())
	return provider, nil
}

func decodeOptions(options map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("failed to decode cache options: %w", err)
	}
	return nil
}
