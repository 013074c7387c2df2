package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/photo-share/cache"
	"github.com/anoixa/photo-share/utils"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSession Cookie 签名无效、已过期或格式错误
	ErrInvalidSession = errors.New("invalid session token")
	// ErrSessionNotFound 会话已注销或已过期
	ErrSessionNotFound = errors.New("session not found")
)

const sessionKeyPrefix = "session:"

// SessionUser 会话中保存的用户快照，登录和 /admin/current 原样返回
type SessionUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	LoginName string `json:"login_name"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
}

// SessionManager 会话管理
// Cookie 中是签名的 JWT，只携带会话 ID；会话记录存放在缓存中，注销即失效
type SessionManager struct {
	cache  cache.Provider
	config SessionConfig
}

// NewSessionManager 创建会话管理器
// 未配置密钥时生成随机密钥，进程重启后旧会话全部失效
func NewSessionManager(c cache.Provider, cfg SessionConfig) (*SessionManager, error) {
	if c == nil {
		return nil, errors.New("session cache is nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if len(cfg.Secret) == 0 {
		secret, err := utils.GenerateRandomToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.Secret = []byte(secret)
		log.Println("[Session] No session secret configured, using an ephemeral one")
	}

	return &SessionManager{cache: c, config: cfg}, nil
}

// TTL 返回会话有效期
func (m *SessionManager) TTL() time.Duration {
	return m.config.TTL
}

func sessionKey(sid string) string {
	return sessionKeyPrefix + sid
}

// Create 创建会话，返回 Cookie 值与过期时间
func (m *SessionManager) Create(ctx context.Context, user SessionUser) (string, time.Time, error) {
	sid, err := utils.GenerateRandomToken(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	expiry := now.Add(m.config.TTL)

	if err := m.cache.Set(ctx, sessionKey(sid), user, m.config.TTL); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store session: %w", err)
	}

	claims := jwt.RegisteredClaims{
		ID:        sid,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		_ = m.cache.Delete(ctx, sessionKey(sid))
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, expiry, nil
}

// parseToken 校验签名与有效期，返回声明
func (m *SessionManager) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Resolve 解析 Cookie 并加载会话，返回用户快照和会话 ID
func (m *SessionManager) Resolve(ctx context.Context, token string) (*SessionUser, string, error) {
	if token == "" {
		return nil, "", ErrInvalidSession
	}

	claims, err := m.parseToken(token)
	if err != nil {
		return nil, "", err
	}

	var user SessionUser
	if err := m.cache.Get(ctx, sessionKey(claims.ID), &user); err != nil {
		if cache.IsCacheMiss(err) {
			return nil, "", ErrSessionNotFound
		}
		return nil, "", fmt.Errorf("failed to load session: %w", err)
	}
	if user.ID != claims.Subject {
		return nil, "", ErrInvalidSession
	}

	return &user, claims.ID, nil
}

// Destroy 删除会话记录，会话不存在时不报错
func (m *SessionManager) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := m.cache.Delete(ctx, sessionKey(sid)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
