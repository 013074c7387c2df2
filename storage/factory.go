package storage

import (
	"fmt"
	"log"

	"github.com/anoixa/photo-share/config"
	"github.com/mitchellh/mapstructure"
)

// NewProvider 按存储类型与参数表创建存储提供者
func NewProvider(storageType string, options map[string]interface{}) (Provider, error) {
	switch storageType {
	case "", "local":
		var cfg LocalConfig
		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewLocalStorage(cfg.Path)

	case "minio":
		var cfg MinioConfig
		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewMinioStorage(cfg)

	case "webdav":
		var cfg WebDAVConfig
		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewWebDAVStorage(cfg)

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// NewFromConfig 使用全局配置创建存储提供者
func NewFromConfig(cfg *config.Config) (Provider, error) {
	log.Printf("Initializing storage provider, type: %s", cfg.StorageType)

	provider, err := NewProvider(cfg.StorageType, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage provider: %w", err)
	}

	log.Printf("Storage provider '%s' initialized successfully", provider.Name())
	return provider, nil
}

func decodeOptions(options map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("failed to decode storage options: %w", err)
	}
	return nil
}
