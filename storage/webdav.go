package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	RootPath string `mapstructure:"root_path"`
	Timeout  string `mapstructure:"timeout"`
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	s := newWebDAVStorage(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.ensureRoot(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

func newWebDAVStorage(cfg WebDAVConfig) *WebDAVStorage {
	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	client.SetTimeout(parseDurationOrDefault(cfg.Timeout, 30*time.Second))

	return &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: normalizeRootPath(cfg.RootPath),
	}
}

// normalizeRootPath 统一为 "/a/b" 形式，空根目录返回 ""
func normalizeRootPath(rootPath string) string {
	rootPath = strings.Trim(rootPath, "/")
	if rootPath == "" {
		return ""
	}
	return "/" + rootPath
}

// parseDurationOrDefault 解析持续时间
func parseDurationOrDefault(durationStr string, defaultValue time.Duration) time.Duration {
	if durationStr == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		return defaultValue
	}
	return duration
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + name
	}
	return "/" + name
}

// ensureRoot 根目录不存在时创建
func (s *WebDAVStorage) ensureRoot(ctx context.Context) error {
	return runWithContext(ctx, func() error {
		if s.rootPath == "" {
			_, err := s.client.ReadDir("/")
			return err
		}
		return s.client.MkdirAll(s.rootPath, 0755)
	})
}

// runWithContext gowebdav 不接受 context，在独立 goroutine 中执行并响应取消
func runWithContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, name string, file io.Reader) error {
	if !IsValidBlobName(name) {
		return fmt.Errorf("invalid blob name: %q", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	fullPath := s.fullPath(name)
	if err := runWithContext(ctx, func() error {
		return s.client.Write(fullPath, data, 0644)
	}); err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, name string) (io.ReadSeeker, error) {
	fullPath := s.fullPath(name)

	var data []byte
	err := runWithContext(ctx, func() error {
		var readErr error
		data, readErr = s.client.Read(fullPath)
		return readErr
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return bytes.NewReader(data), nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, name string) error {
	fullPath := s.fullPath(name)
	return runWithContext(ctx, func() error {
		return s.client.Remove(fullPath)
	})
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, name string) (bool, error) {
	fullPath := s.fullPath(name)

	exists := false
	err := runWithContext(ctx, func() error {
		_, statErr := s.client.Stat(fullPath)
		if statErr == nil {
			exists = true
			return nil
		}
		if gowebdav.IsErrNotFound(statErr) {
			return nil
		}
		return statErr
	})
	return exists, err
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return runWithContext(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
