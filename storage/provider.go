package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 文件在存储中不存在
var ErrNotFound = errors.New("blob not found")

// Provider 照片文件存储接口
// 文件按生成的文件名平铺存放，存储层不理解照片元数据
type Provider interface {
	// SaveWithContext 保存文件到存储
	SaveWithContext(ctx context.Context, name string, file io.Reader) error

	// GetWithContext 从存储获取文件，不存在时返回包装了 ErrNotFound 的错误
	GetWithContext(ctx context.Context, name string) (io.ReadSeeker, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, name string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, name string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
