// Package accounts 账号注册、登录、注销以及账号删除级联
package accounts

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/anoixa/photo-share/database/models"
	accountrepo "github.com/anoixa/photo-share/database/repo/accounts"
	"github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/auth"
	"github.com/anoixa/photo-share/internal/services"
	"github.com/anoixa/photo-share/utils"
	cryptopackage "github.com/anoixa/photo-share/utils/crypto"
	"golang.org/x/sync/singleflight"
)

// PhotoCleaner 账号删除时需要的照片侧收尾操作
type PhotoCleaner interface {
	RemoveBlobs(owned []models.Photo)
	PublishLikeRemoval(ctx context.Context, photoIDs []string)
}

// RegisterRequest 注册信息
type RegisterRequest struct {
	LoginName   string `json:"login_name"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Occupation  string `json:"occupation"`
}

// LoginResult 登录结果
type LoginResult struct {
	User   *auth.SessionUser
	Token  string
	Expiry time.Time
}

// Service 账号服务
type Service struct {
	users     *accountrepo.Repository
	photos    *photos.Repository
	favorites *favorites.Repository
	cleaner   PhotoCleaner
	sessions  *auth.SessionManager
	hasher    *cryptopackage.Hasher

	countsGroup singleflight.Group
}

// NewService 创建账号服务，hasher 为 nil 时使用默认参数
func NewService(
	users *accountrepo.Repository,
	photoRepo *photos.Repository,
	favoriteRepo *favorites.Repository,
	cleaner PhotoCleaner,
	sessions *auth.SessionManager,
	hasher *cryptopackage.Hasher,
) *Service {
	if hasher == nil {
		hasher = cryptopackage.NewHasher(cryptopackage.DefaultParams)
	}
	return &Service{
		users:     users,
		photos:    photoRepo,
		favorites: favoriteRepo,
		cleaner:   cleaner,
		sessions:  sessions,
		hasher:    hasher,
	}
}

// Register 注册新用户，登录名区分大小写且必须唯一
// 登录名按原样保存，登录时需逐字匹配，全空白的登录名视为缺失
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if strings.TrimSpace(req.LoginName) == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return nil, services.Validation("login_name, password, first_name, last_name are required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, services.Internal("Failed to hash password", err)
	}

	user := &models.User{
		LoginName:   req.LoginName,
		Password:    hash,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Location:    req.Location,
		Description: req.Description,
		Occupation:  req.Occupation,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, accountrepo.ErrDuplicateLoginName) {
			return nil, services.Duplicate("Login name already exists. Please choose another.")
		}
		return nil, services.Internal("Failed to register user", err)
	}

	log.Printf("[Accounts] Registered user %s", utils.SanitizeLogLoginName(user.LoginName))
	return user, nil
}

// Login 校验凭证并创建会话
func (s *Service) Login(ctx context.Context, loginName, password string) (*LoginResult, error) {
	invalid := services.Validation("Invalid login information")

	user, err := s.users.GetUserByLoginName(ctx, loginName)
	if err != nil {
		return nil, services.Internal("Failed to load user", err)
	}
	if user == nil {
		log.Printf("[Accounts] Login failed for unknown user %s", utils.SanitizeLogLoginName(loginName))
		return nil, invalid
	}

	ok, err := s.hasher.Compare(password, user.Password)
	if err != nil || !ok {
		log.Printf("[Accounts] Login failed for user %s", utils.SanitizeLogLoginName(loginName))
		return nil, invalid
	}

	sessionUser := &auth.SessionUser{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		LoginName: user.LoginName,
	}
	token, expiry, err := s.sessions.Create(ctx, *sessionUser)
	if err != nil {
		return nil, services.Internal("Failed to create session", err)
	}

	return &LoginResult{User: sessionUser, Token: token, Expiry: expiry}, nil
}

// Logout 注销会话
func (s *Service) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return services.Validation("Not logged in")
	}
	if err := s.sessions.Destroy(ctx, sid); err != nil {
		return services.Internal("Failed to destroy session", err)
	}
	return nil
}

// UserExists 会话关联的用户是否仍然存在
func (s *Service) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.users.Exists(ctx, userID)
}

// DeleteAccount 删除账号并级联清理
// 各步骤不在同一事务内，中途失败留下的残余由一致性清理修复
func (s *Service) DeleteAccount(ctx context.Context, userID, sid string) error {
	owned, err := s.photos.ListPhotosOwnedBy(ctx, userID)
	if err != nil {
		return services.Internal("Failed to load photos", err)
	}

	s.cleaner.RemoveBlobs(owned)

	photoIDs := make([]string, 0, len(owned))
	for _, photo := range owned {
		photoIDs = append(photoIDs, photo.ID)
	}
	if _, err := s.photos.DeletePhotosByIDs(ctx, photoIDs); err != nil {
		return services.Internal("Failed to delete photos", err)
	}

	if _, err := s.photos.PullCommentsByAuthor(ctx, userID); err != nil {
		return services.Internal("Failed to delete comments", err)
	}

	liked, err := s.photos.PullLikesByUser(ctx, userID)
	if err != nil {
		return services.Internal("Failed to delete likes", err)
	}
	s.cleaner.PublishLikeRemoval(ctx, liked)

	if _, err := s.favorites.PullPhotosFromAll(ctx, photoIDs); err != nil {
		return services.Internal("Failed to clean favorites", err)
	}
	if _, err := s.favorites.DeleteByUser(ctx, userID); err != nil {
		return services.Internal("Failed to clean favorites", err)
	}

	if _, err := s.users.DeleteUser(ctx, userID); err != nil {
		return services.Internal("Failed to delete user", err)
	}

	if err := s.sessions.Destroy(ctx, sid); err != nil {
		log.Printf("[Accounts] Failed to destroy session of deleted user %s: %v", userID, err)
	}

	log.Printf("[Accounts] Deleted user %s with %d photos", userID, len(photoIDs))
	return nil
}
