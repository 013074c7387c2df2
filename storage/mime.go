package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// 常见图片扩展名，不依赖系统 mime 表
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// ContentType 按扩展名推断文件的 Content-Type
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
