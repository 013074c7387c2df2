// Package consistency 修复中断的级联删除留下的悬空引用
package consistency

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/anoixa/photo-share/database/models"
	"github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/services"
	"github.com/anoixa/photo-share/utils"
)

// BlobRemover 尽力删除照片文件
type BlobRemover interface {
	RemoveBlobs(owned []models.Photo)
}

// Report 一次清理删除的行数
type Report struct {
	OrphanPhotos    int64 `json:"orphan_photos"`
	OrphanComments  int64 `json:"orphan_comments"`
	OrphanLikes     int64 `json:"orphan_likes"`
	OrphanFavorites int64 `json:"orphan_favorites"`
}

// Total 删除的总行数
func (r Report) Total() int64 {
	return r.OrphanPhotos + r.OrphanComments + r.OrphanLikes + r.OrphanFavorites
}

// Sweeper 一致性清理，可重复执行
type Sweeper struct {
	photos    *photos.Repository
	favorites *favorites.Repository
	blobs     BlobRemover

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSweeper 创建清理器
func NewSweeper(photoRepo *photos.Repository, favoriteRepo *favorites.Repository, blobs BlobRemover) *Sweeper {
	return &Sweeper{
		photos:    photoRepo,
		favorites: favoriteRepo,
		blobs:     blobs,
		stopCh:    make(chan struct{}),
	}
}

// Run 执行一次清理
// 先删除所有者已不存在的照片，随后的评论、点赞、收藏清理会覆盖这些照片留下的引用
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{}

	orphans, err := s.photos.ListOrphanPhotos(ctx)
	if err != nil {
		return nil, services.Internal("Failed to list orphan photos", err)
	}
	if len(orphans) > 0 {
		s.blobs.RemoveBlobs(orphans)

		ids := make([]string, 0, len(orphans))
		for _, photo := range orphans {
			ids = append(ids, photo.ID)
		}
		if report.OrphanPhotos, err = s.photos.DeletePhotosByIDs(ctx, ids); err != nil {
			return nil, services.Internal("Failed to delete orphan photos", err)
		}
	}

	if report.OrphanComments, err = s.photos.DeleteOrphanComments(ctx); err != nil {
		return nil, services.Internal("Failed to delete orphan comments", err)
	}
	if report.OrphanLikes, err = s.photos.DeleteOrphanLikes(ctx); err != nil {
		return nil, services.Internal("Failed to delete orphan likes", err)
	}
	if report.OrphanFavorites, err = s.favorites.DeleteOrphans(ctx); err != nil {
		return nil, services.Internal("Failed to delete orphan favorites", err)
	}

	if report.Total() > 0 {
		log.Printf("[Sweep] Removed %d photos, %d comments, %d likes, %d favorites",
			report.OrphanPhotos, report.OrphanComments, report.OrphanLikes, report.OrphanFavorites)
	}
	return report, nil
}

// Start 按固定间隔在后台清理，启动时立即执行一次
func (s *Sweeper) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	utils.SafeGo("consistency-sweeper", func() {
		defer ticker.Stop()
		s.runLogged()

		for {
			select {
			case <-ticker.C:
				s.runLogged()
			case <-s.stopCh:
				return
			}
		}
	})
	log.Printf("[Sweep] Started with interval %v", interval)
}

// Stop 停止后台清理
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Sweeper) runLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.Run(ctx); err != nil {
		log.Printf("[Sweep] Sweep failed: %v", err)
	}
}
