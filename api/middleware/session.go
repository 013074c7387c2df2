package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextSessionUserKey = "session_user"
	ContextSessionIDKey   = "session_id"
)

// SessionResolver 解析会话 Cookie
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.SessionUser, string, error)
}

// UserChecker 检查会话用户是否仍然存在
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// SessionCookie 会话 Cookie 属性
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set 写入会话 Cookie
func (sc SessionCookie) Set(c *gin.Context, token string, expiry time.Time) {
	maxAge := int(time.Until(expiry).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, maxAge, "/", "", sc.Secure, true)
}

// Clear 删除会话 Cookie
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// LoadSession 解析 Cookie，有效时把会话用户放入请求上下文
// 无 Cookie 或会话失效时不拦截，由 RequireSession 决定是否拒绝
func LoadSession(sessions SessionResolver, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, sid, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) && !errors.Is(err, auth.ErrSessionNotFound) {
				log.Printf("[Session] Failed to resolve session: %v", err)
			}
			c.Next()
			return
		}

		c.Set(ContextSessionUserKey, user)
		c.Set(ContextSessionIDKey, sid)
		c.Next()
	}
}

// RequireSession 要求已登录，且会话用户仍然存在
func RequireSession(users UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		exists, err := users.UserExists(c.Request.Context(), user.ID)
		if err != nil {
			log.Printf("[Session] Failed to check user %s: %v", user.ID, err)
			common.RespondErrorAbort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !exists {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c.Next()
	}
}

// CurrentUser 返回请求上下文中的会话用户
func CurrentUser(c *gin.Context) (*auth.SessionUser, bool) {
	value, ok := c.Get(ContextSessionUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*auth.SessionUser)
	return user, ok && user != nil
}

// SessionID 返回请求上下文中的会话 ID，未登录时为空
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
