package photos

import (
	svcPhotos "github.com/anoixa/photo-share/internal/services/photos"
)

// Handler 照片、评论、点赞处理器
type Handler struct {
	svc           *svcPhotos.Service
	maxUploadSize int64
}

// NewHandler 创建照片处理器，maxUploadSizeMB <= 0 时使用 20MB
func NewHandler(svc *svcPhotos.Service, maxUploadSizeMB int) *Handler {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 20
	}
	return &Handler{
		svc:           svc,
		maxUploadSize: int64(maxUploadSizeMB) << 20,
	}
}
