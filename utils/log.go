package utils

import (
	"log"
	"strings"
	"unicode"

	"github.com/anoixa/photo-share/config"
)

// SanitizeLogMessage 去除用户输入中的控制字符，防止日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\t' {
			sb.WriteRune(r)
		} else if r == '\n' || r == '\r' {
			sb.WriteRune(' ')
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogLoginName 截断并清理登录名
func SanitizeLogLoginName(loginName string) string {
	if len(loginName) > 50 {
		loginName = loginName[:50] + "..."
	}
	return SanitizeLogMessage(loginName)
}

// LogIfDevf 仅在开发构建中输出日志
func LogIfDevf(format string, v ...interface{}) {
	if config.IsDevelopment() {
		log.Printf(format, v...)
	}
}

// LogIfDev 仅在开发构建中输出日志
func LogIfDev(v ...interface{}) {
	if config.IsDevelopment() {
		log.Println(v...)
	}
}
