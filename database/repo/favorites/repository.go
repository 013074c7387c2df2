package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPhotoNotFound 收藏的照片不存在
var ErrPhotoNotFound = errors.New("photo not found")

// Repository 收藏仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的收藏仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Add 收藏照片，重复收藏为空操作
// 照片行加共享锁，与删除照片互斥，保证不会写入指向已删除照片的收藏
func (r *Repository) Add(ctx context.Context, userID, photoID string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var photo models.Photo
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ?", photoID).
			First(&photo).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhotoNotFound
			}
			return err
		}

		err = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Favorite{UserID: userID, PhotoID: photoID}).Error
		if err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		return nil
	})
}

// Remove 取消收藏，未收藏时为空操作
func (r *Repository) Remove(ctx context.Context, userID, photoID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListFavoritePhotos 返回用户收藏的、仍然存在的照片
func (r *Repository) ListFavoritePhotos(ctx context.Context, userID string) ([]models.Photo, error) {
	photos := make([]models.Photo, 0)
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.photo_id = photos.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at ASC").Order("photos.id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite photos: %w", err)
	}
	return photos, nil
}

// PullPhotosFromAll 从所有用户的收藏中移除指定照片
func (r *Repository) PullPhotosFromAll(ctx context.Context, photoIDs []string) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("photo_id IN ?", photoIDs).Delete(&models.Favorite{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to pull favorites: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByUser 删除用户自己的收藏列表
func (r *Repository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Favorite{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete favorites of user: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphans 删除照片或用户已不存在的收藏
func (r *Repository) DeleteOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.
		Where("photo_id NOT IN (?) OR user_id NOT IN (?)",
			db.Model(&models.Photo{}).Select("id"),
			db.Model(&models.User{}).Select("id")).
		Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}
