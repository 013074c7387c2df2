// Package photos 照片聚合的业务逻辑：上传、删除、评论、点赞以及跨实体视图
package photos

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/anoixa/photo-share/database/models"
	"github.com/anoixa/photo-share/database/repo/accounts"
	photorepo "github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/services"
	"github.com/anoixa/photo-share/storage"
	"github.com/anoixa/photo-share/utils"
	"github.com/anoixa/photo-share/utils/generator"
	"golang.org/x/sync/errgroup"
)

const likeLockStripes = 64

// 批量删除文件时的并发上限
const blobRemovalWorkers = 8

// Notifier 点赞集合变化的推送出口
type Notifier interface {
	PublishLikeUpdate(photoID string, likes []string)
}

// Blob 上传的文件内容
type Blob struct {
	Name string
	Size int64
	Body io.Reader
}

// Service 照片服务
type Service struct {
	repo     *photorepo.Repository
	users    *accounts.Repository
	storage  storage.Provider
	notifier Notifier

	// 同一照片的点赞变更与推送串行执行，保证事件顺序与提交顺序一致
	likeLocks [likeLockStripes]sync.Mutex
}

// NewService 创建照片服务，notifier 可为 nil
func NewService(repo *photorepo.Repository, users *accounts.Repository, store storage.Provider, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		storage:  store,
		notifier: notifier,
	}
}

func (s *Service) likeLock(photoID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(photoID))
	return &s.likeLocks[h.Sum32()%likeLockStripes]
}

// Upload 保存文件并创建照片记录
// 数据库写入失败时删除已保存的文件
func (s *Service) Upload(ctx context.Context, ownerID string, blob Blob) (*models.Photo, error) {
	if blob.Body == nil || blob.Size <= 0 {
		return nil, services.Validation("No file uploaded or upload error. File may be empty.")
	}

	fileName := generator.PhotoName(blob.Name, time.Now())
	if err := s.storage.SaveWithContext(ctx, fileName, blob.Body); err != nil {
		return nil, services.Internal("Error writing file", err)
	}

	photo := &models.Photo{
		UserID:   ownerID,
		FileName: fileName,
	}
	if err := s.repo.CreatePhoto(ctx, photo); err != nil {
		s.removeBlob(fileName)
		return nil, services.Internal("Error creating photo", err)
	}

	log.Printf("[Photos] User %s uploaded %s", ownerID, fileName)
	return photo, nil
}

// DeletePhoto 删除照片及其评论、点赞和所有收藏引用，仅所有者可操作
// 文件删除失败只记录日志，不回滚元数据
func (s *Service) DeletePhoto(ctx context.Context, photoID, requesterID string) error {
	if err := services.ValidateID(photoID, "Invalid photo ID"); err != nil {
		return err
	}

	photo, err := s.repo.DeletePhoto(ctx, photoID, requesterID)
	switch {
	case errors.Is(err, photorepo.ErrPhotoNotFound):
		return services.NotFound("Photo not found")
	case errors.Is(err, photorepo.ErrNotOwner):
		return services.Forbidden("You can only delete your own photos")
	case err != nil:
		return services.Internal("Failed to delete photo", err)
	}

	s.removeBlob(photo.FileName)
	return nil
}

// RemoveBlobs 尽力删除一组文件，供账号注销与一致性清理复用
func (s *Service) RemoveBlobs(photos []models.Photo) {
	var g errgroup.Group
	g.SetLimit(blobRemovalWorkers)
	for _, photo := range photos {
		fileName := photo.FileName
		g.Go(func() error {
			s.removeBlob(fileName)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) removeBlob(fileName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.storage.DeleteWithContext(ctx, fileName); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("[Photos] Failed to remove blob %s: %v", utils.SanitizeLogMessage(fileName), err)
	}
}

// AddComment 追加评论，去除首尾空白后为空的评论被拒绝
func (s *Service) AddComment(ctx context.Context, photoID, authorID, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, services.Validation("Comment cannot be empty")
	}
	if err := services.ValidateID(photoID, "Invalid photo ID"); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PhotoID: photoID,
		UserID:  authorID,
		Comment: body,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		if errors.Is(err, photorepo.ErrPhotoNotFound) {
			return nil, services.NotFound("No Photos Found")
		}
		return nil, services.Internal("Failed to add comment", err)
	}
	return comment, nil
}

// DeleteComment 删除评论，仅作者本人可操作
func (s *Service) DeleteComment(ctx context.Context, photoID, commentID, requesterID string) error {
	if services.ValidateID(photoID, "") != nil || services.ValidateID(commentID, "") != nil {
		return services.Validation("Invalid ID format")
	}

	err := s.repo.DeleteComment(ctx, photoID, commentID, requesterID)
	switch {
	case errors.Is(err, photorepo.ErrPhotoNotFound):
		return services.NotFound("Photo not found")
	case errors.Is(err, photorepo.ErrCommentNotFound):
		return services.NotFound("Comment not found")
	case errors.Is(err, photorepo.ErrNotAuthor):
		return services.Forbidden("You can only delete your own comments")
	case err != nil:
		return services.Internal("Failed to delete comment", err)
	}
	return nil
}

// Like 点赞，幂等
func (s *Service) Like(ctx context.Context, photoID, userID string) ([]string, error) {
	return s.mutateLikes(ctx, photoID, userID, s.repo.Like)
}

// Unlike 取消点赞，幂等
func (s *Service) Unlike(ctx context.Context, photoID, userID string) ([]string, error) {
	return s.mutateLikes(ctx, photoID, userID, s.repo.Unlike)
}

func (s *Service) mutateLikes(
	ctx context.Context,
	photoID, userID string,
	mutate func(ctx context.Context, photoID, userID string) (bool, []string, error),
) ([]string, error) {
	if userID == "" {
		return nil, services.Unauthorized("Unauthorized")
	}
	if err := services.ValidateID(photoID, "Invalid photo ID"); err != nil {
		return nil, err
	}

	lock := s.likeLock(photoID)
	lock.Lock()
	defer lock.Unlock()

	changed, likes, err := mutate(ctx, photoID, userID)
	if err != nil {
		if errors.Is(err, photorepo.ErrPhotoNotFound) {
			return nil, services.NotFound("Photo not found")
		}
		return nil, services.Internal("Failed to update likes", err)
	}

	if changed {
		s.publishLikes(photoID, likes)
	}
	return likes, nil
}

// PublishLikeRemoval 在点赞被批量移除后推送受影响照片的最新点赞集合
func (s *Service) PublishLikeRemoval(ctx context.Context, photoIDs []string) {
	for _, photoID := range photoIDs {
		lock := s.likeLock(photoID)
		lock.Lock()
		likes, err := s.repo.LikeUserIDs(ctx, photoID)
		if err != nil {
			lock.Unlock()
			log.Printf("[Photos] Failed to load likes of %s: %v", photoID, err)
			continue
		}
		s.publishLikes(photoID, likes)
		lock.Unlock()
	}
}

func (s *Service) publishLikes(photoID string, likes []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishLikeUpdate(photoID, likes)
}

// OpenBlob 打开照片文件
func (s *Service) OpenBlob(ctx context.Context, fileName string) (io.ReadSeeker, error) {
	if !storage.IsValidBlobName(fileName) {
		return nil, services.Validation("Invalid file name")
	}

	reader, err := s.storage.GetWithContext(ctx, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, services.NotFound("Image not found")
		}
		return nil, services.Internal("Failed to read image", err)
	}
	return reader, nil
}
