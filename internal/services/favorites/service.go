// Package favorites 当前用户的收藏列表
package favorites

import (
	"context"
	"errors"
	"time"

	favoriterepo "github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/internal/services"
)

// FavoritePhoto 收藏列表中的照片
type FavoritePhoto struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	FileName string    `json:"file_name"`
	DateTime time.Time `json:"date_time"`
}

// Service 收藏服务，所有操作都限定在会话用户自己的收藏上
type Service struct {
	repo *favoriterepo.Repository
}

// NewService 创建收藏服务
func NewService(repo *favoriterepo.Repository) *Service {
	return &Service{repo: repo}
}

// Add 收藏照片，照片必须存在，重复收藏为空操作
func (s *Service) Add(ctx context.Context, userID, photoID string) error {
	if err := services.ValidateID(photoID, "Invalid photo ID"); err != nil {
		return err
	}

	if err := s.repo.Add(ctx, userID, photoID); err != nil {
		if errors.Is(err, favoriterepo.ErrPhotoNotFound) {
			return services.NotFound("Photo not found")
		}
		return services.Internal("Failed to add favorite", err)
	}
	return nil
}

// Remove 取消收藏，未收藏时为空操作
func (s *Service) Remove(ctx context.Context, userID, photoID string) error {
	if err := services.ValidateID(photoID, "Invalid photo ID"); err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, userID, photoID); err != nil {
		return services.Internal("Failed to remove favorite", err)
	}
	return nil
}

// List 按收藏时间返回收藏的照片
func (s *Service) List(ctx context.Context, userID string) ([]FavoritePhoto, error) {
	photos, err := s.repo.ListFavoritePhotos(ctx, userID)
	if err != nil {
		return nil, services.Internal("Failed to list favorites", err)
	}

	result := make([]FavoritePhoto, 0, len(photos))
	for _, photo := range photos {
		result = append(result, FavoritePhoto{
			ID:       photo.ID,
			UserID:   photo.UserID,
			FileName: photo.FileName,
			DateTime: photo.DateTime,
		})
	}
	return result, nil
}
