package generator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxExtLength 扩展名（含点）最大长度
const maxExtLength = 10

// PhotoName 生成照片文件名: U<毫秒时间戳>-<uuid><扩展名>
// 扩展名取自原始文件名并清理为小写字母数字，无法识别时省略
func PhotoName(originalName string, uploadTime time.Time) string {
	return fmt.Sprintf("U%d-%s%s", uploadTime.UnixMilli(), uuid.NewString(), SafeExtension(originalName))
}

// SafeExtension 提取安全的小写扩展名
func SafeExtension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))))
	if len(ext) < 2 || len(ext) > maxExtLength {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
