package photos

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("photo is not owned by user")
	ErrNotAuthor       = errors.New("comment is not authored by user")
)

// Repository 照片仓库 - 照片聚合（照片、评论、点赞）的全部数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的照片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

func orderComments(db *gorm.DB) *gorm.DB {
	return db.Order("date_time ASC").Order("id ASC")
}

func orderLikes(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("user_id ASC")
}

// lockPhoto 在事务内锁定照片行，照片不存在返回 ErrPhotoNotFound
// SQLite 不支持行锁，驱动会忽略 FOR 子句，写事务本身已串行
func lockPhoto(tx *gorm.DB, photoID, strength string) (*models.Photo, error) {
	var photo models.Photo
	err := tx.Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", photoID).
		First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &photo, nil
}

func likeUserIDs(tx *gorm.DB, photoID string) ([]string, error) {
	ids := make([]string, 0)
	err := orderLikes(tx.Model(&models.PhotoLike{})).
		Where("photo_id = ?", photoID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	return ids, nil
}

// CreatePhoto 创建照片记录
func (r *Repository) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// ListPhotosByUser 按上传时间列出用户的照片，附带评论与点赞
func (r *Repository) ListPhotosByUser(ctx context.Context, userID string) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).
		Preload("Comments", orderComments).
		Preload("Likes", orderLikes).
		Where("user_id = ?", userID).
		Order("date_time ASC").Order("id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// GetPhotosByIDs 批量获取照片（不含评论与点赞），缺失的 ID 被忽略
func (r *Repository) GetPhotosByIDs(ctx context.Context, ids []string) ([]models.Photo, error) {
	photos := make([]models.Photo, 0, len(ids))
	if len(ids) == 0 {
		return photos, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("date_time ASC").Order("id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load photos: %w", err)
	}
	return photos, nil
}

// DeletePhoto 删除照片及其评论、点赞，并从所有用户的收藏中移除
// 所有者校验与删除在同一事务内完成，返回被删除的照片以便清理文件
func (r *Repository) DeletePhoto(ctx context.Context, photoID, ownerID string) (*models.Photo, error) {
	var deleted *models.Photo

	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		photo, err := lockPhoto(tx, photoID, "UPDATE")
		if err != nil {
			return err
		}
		if photo.UserID != ownerID {
			return ErrNotOwner
		}

		if err := tx.Where("photo_id = ?", photoID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("photo_id = ?", photoID).Delete(&models.PhotoLike{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		if err := tx.Where("photo_id = ?", photoID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := tx.Where("id = ?", photoID).Delete(&models.Photo{}).Error; err != nil {
			return fmt.Errorf("failed to delete photo: %w", err)
		}

		deleted = photo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ListPhotosOwnedBy 列出用户拥有的照片（不含评论与点赞）
func (r *Repository) ListPhotosOwnedBy(ctx context.Context, userID string) ([]models.Photo, error) {
	var photos []models.Photo
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list owned photos: %w", err)
	}
	return photos, nil
}

// DeletePhotosByIDs 删除一组照片及其评论、点赞，收藏引用由调用方单独清理
func (r *Repository) DeletePhotosByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("photo_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("photo_id IN ?", ids).Delete(&models.PhotoLike{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Photo{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete photos: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// AddComment 向照片追加评论
// 共享锁保证评论写入时照片仍然存在，不会与删除照片交错产生悬空评论
func (r *Repository) AddComment(ctx context.Context, comment *models.Comment) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if _, err := lockPhoto(tx, comment.PhotoID, "SHARE"); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
}

// DeleteComment 删除评论，仅作者本人可删除
func (r *Repository) DeleteComment(ctx context.Context, photoID, commentID, authorID string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if _, err := lockPhoto(tx, photoID, "UPDATE"); err != nil {
			return err
		}

		var comment models.Comment
		err := tx.Where("id = ? AND photo_id = ?", commentID, photoID).First(&comment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if comment.UserID != authorID {
			return ErrNotAuthor
		}

		if err := tx.Where("id = ?", commentID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
}

// PullCommentsByAuthor 删除用户在任意照片下发表的全部评论
func (r *Repository) PullCommentsByAuthor(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Comment{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete comments of user: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListCommentsByAuthor 按时间列出用户发表的评论
func (r *Repository) ListCommentsByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := orderComments(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Like 点赞，返回集合是否发生变化以及变化后的完整点赞列表
// 重复点赞为空操作
func (r *Repository) Like(ctx context.Context, photoID, userID string) (bool, []string, error) {
	return r.mutateLikes(ctx, photoID, func(tx *gorm.DB) (int64, error) {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PhotoLike{PhotoID: photoID, UserID: userID})
		return result.RowsAffected, result.Error
	})
}

// Unlike 取消点赞，未点赞时为空操作
func (r *Repository) Unlike(ctx context.Context, photoID, userID string) (bool, []string, error) {
	return r.mutateLikes(ctx, photoID, func(tx *gorm.DB) (int64, error) {
		result := tx.Where("photo_id = ? AND user_id = ?", photoID, userID).
			Delete(&models.PhotoLike{})
		return result.RowsAffected, result.Error
	})
}

func (r *Repository) mutateLikes(ctx context.Context, photoID string, mutate func(tx *gorm.DB) (int64, error)) (bool, []string, error) {
	var changed bool
	var likes []string

	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if _, err := lockPhoto(tx, photoID, "UPDATE"); err != nil {
			return err
		}

		affected, err := mutate(tx)
		if err != nil {
			return fmt.Errorf("failed to update likes: %w", err)
		}
		changed = affected > 0

		likes, err = likeUserIDs(tx, photoID)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return changed, likes, nil
}

// LikeUserIDs 返回照片的点赞用户列表
func (r *Repository) LikeUserIDs(ctx context.Context, photoID string) ([]string, error) {
	return likeUserIDs(r.db.WithContext(ctx), photoID)
}

// PullLikesByUser 删除用户的全部点赞，返回受影响的照片 ID
func (r *Repository) PullLikesByUser(ctx context.Context, userID string) ([]string, error) {
	var photoIDs []string

	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.PhotoLike{}).
			Where("user_id = ?", userID).
			Order("photo_id ASC").
			Pluck("photo_id", &photoIDs).Error; err != nil {
			return err
		}
		if len(photoIDs) == 0 {
			return nil
		}
		return tx.Where("user_id = ?", userID).Delete(&models.PhotoLike{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete likes of user: %w", err)
	}
	return photoIDs, nil
}

// CountPhotosByUser 统计每个用户的照片数
func (r *Repository) CountPhotosByUser(ctx context.Context) (map[string]int64, error) {
	return groupCount(r.db.WithContext(ctx).Model(&models.Photo{}).
		Select("user_id AS user_id, COUNT(*) AS total").
		Group("user_id"))
}

// CountCommentedPhotosByUser 统计每个用户评论过的照片数（同一照片多条评论计一次）
func (r *Repository) CountCommentedPhotosByUser(ctx context.Context) (map[string]int64, error) {
	return groupCount(r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("user_id AS user_id, COUNT(DISTINCT photo_id) AS total").
		Group("user_id"))
}

func groupCount(query *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		UserID string
		Total  int64
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}

// DeleteOrphanComments 删除所属照片或作者已不存在的评论
func (r *Repository) DeleteOrphanComments(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.
		Where("photo_id NOT IN (?) OR user_id NOT IN (?)",
			db.Model(&models.Photo{}).Select("id"),
			db.Model(&models.User{}).Select("id")).
		Delete(&models.Comment{})
	return result.RowsAffected, result.Error
}

// DeleteOrphanLikes 删除照片或用户已不存在的点赞
func (r *Repository) DeleteOrphanLikes(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.
		Where("photo_id NOT IN (?) OR user_id NOT IN (?)",
			db.Model(&models.Photo{}).Select("id"),
			db.Model(&models.User{}).Select("id")).
		Delete(&models.PhotoLike{})
	return result.RowsAffected, result.Error
}

// ListOrphanPhotos 列出所有者已不存在的照片
func (r *Repository) ListOrphanPhotos(ctx context.Context) ([]models.Photo, error) {
	db := r.db.WithContext(ctx)

	var photos []models.Photo
	err := db.Where("user_id NOT IN (?)", db.Model(&models.User{}).Select("id")).
		Find(&photos).Error
	return photos, err
}
