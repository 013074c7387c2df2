package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/models"
	"gorm.io/gorm"
)

// ErrDuplicateLoginName 登录名已被占用
var ErrDuplicateLoginName = errors.New("login name already exists")

// Repository 账户仓库 - 封装所有账户相关的数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的账户仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// CreateUser 创建用户
// 登录名唯一约束由数据库保证，并发注册同名用户只有一个会成功
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	exists, err := r.LoginNameExists(ctx, user.LoginName)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateLoginName
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateLoginName
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// LoginNameExists 检查登录名是否已存在（区分大小写）
func (r *Repository) LoginNameExists(ctx context.Context, loginName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("login_name = ?", loginName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check login name: %w", err)
	}
	return count > 0, nil
}

// GetUserByID 通过ID获取用户
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByLoginName 通过登录名获取用户
func (r *Repository) GetUserByLoginName(ctx context.Context, loginName string) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).Where("login_name = ?", loginName).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// Exists 检查用户是否存在
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsers 按注册顺序列出全部用户
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUsersByIDs 批量获取用户，返回 id -> 用户 映射
func (r *Repository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// DeleteUser 删除用户记录，返回是否确实删除了一行
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete user: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
