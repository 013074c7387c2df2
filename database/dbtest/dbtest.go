// Package dbtest 为测试提供隔离的内存 SQLite 数据库
package dbtest

import (
	"fmt"
	"testing"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewProvider 创建已迁移的内存数据库，测试结束时关闭
// 每个测试使用独立的库名，连接池限制为 1，共享缓存模式下不会出现锁冲突
func NewProvider(t testing.TB) database.Provider {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	cfg := database.NewGormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	cfg.PrepareStmt = false

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	provider := database.NewGormProviderFromDB(db, "sqlite")
	if err := database.NewFactoryWithProvider(provider).AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = provider.Close() })
	return provider
}

// Photo 读取照片及其按时间排序的评论、点赞，不存在时返回 nil
func Photo(t testing.TB, db database.Provider, id string) *models.Photo {
	t.Helper()

	var photo models.Photo
	err := db.DB().
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("date_time ASC").Order("id ASC") }).
		Preload("Likes", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("user_id ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&photo).Error
	if err != nil {
		t.Fatalf("failed to load photo %s: %v", id, err)
	}
	if photo.ID == "" {
		return nil
	}
	return &photo
}

// FavoritePhotoIDs 按收藏时间返回用户收藏的照片 ID
func FavoritePhotoIDs(t testing.TB, db database.Provider, userID string) []string {
	t.Helper()

	ids := make([]string, 0)
	err := db.DB().Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("photo_id ASC").
		Pluck("photo_id", &ids).Error
	if err != nil {
		t.Fatalf("failed to list favorites of %s: %v", userID, err)
	}
	return ids
}

// UserIDs 返回全部用户 ID
func UserIDs(t testing.TB, db database.Provider) []string {
	t.Helper()

	var ids []string
	if err := db.DB().Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	return ids
}
