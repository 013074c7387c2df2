package accounts

import (
	"github.com/anoixa/photo-share/api/middleware"
	svcAccounts "github.com/anoixa/photo-share/internal/services/accounts"
)

// Handler 账号与会话处理器
type Handler struct {
	svc    *svcAccounts.Service
	cookie middleware.SessionCookie
}

// NewHandler 创建账号处理器
func NewHandler(svc *svcAccounts.Service, cookie middleware.SessionCookie) *Handler {
	return &Handler{
		svc:    svc,
		cookie: cookie,
	}
}
