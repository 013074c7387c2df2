package accounts

import (
	"context"

	"github.com/anoixa/photo-share/internal/services"
	"golang.org/x/sync/errgroup"
)

// UserSummary 用户列表项
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserCounts 带照片数与评论数的用户列表项
// CommentCount 为带有该用户评论的照片数
type UserCounts struct {
	UserSummary
	PhotoCount   int64 `json:"photo_count"`
	CommentCount int64 `json:"comment_count"`
}

// UserDetail 用户详情
type UserDetail struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Occupation  string `json:"occupation"`
}

// ListUsers 列出全部用户
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, services.Internal("Failed to list users", err)
	}

	result := make([]UserSummary, 0, len(users))
	for _, user := range users {
		result = append(result, UserSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName})
	}
	return result, nil
}

// ListUsersWithCounts 列出全部用户及其计数
// 并发请求共享同一次计算，计算不随发起者的 ctx 取消
func (s *Service) ListUsersWithCounts(ctx context.Context) ([]UserCounts, error) {
	v, err, _ := s.countsGroup.Do("counts", func() (interface{}, error) {
		return s.computeCounts(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]UserCounts), nil
}

func (s *Service) computeCounts(ctx context.Context) ([]UserCounts, error) {
	var (
		users         []UserSummary
		photoCounts   map[string]int64
		commentCounts map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		photoCounts, err = s.photos.CountPhotosByUser(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		commentCounts, err = s.photos.CountCommentedPhotosByUser(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if services.KindOf(err) != services.KindInternal {
			return nil, err
		}
		return nil, services.Internal("Failed to count user activity", err)
	}

	result := make([]UserCounts, 0, len(users))
	for _, user := range users {
		result = append(result, UserCounts{
			UserSummary:  user,
			PhotoCount:   photoCounts[user.ID],
			CommentCount: commentCounts[user.ID],
		})
	}
	return result, nil
}

// GetUser 获取用户详情
func (s *Service) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	if err := services.ValidateID(id, "Invalid user ID format"); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, services.Internal("Failed to load user", err)
	}
	if user == nil {
		return nil, services.NotFound("User not found")
	}

	return &UserDetail{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Location:    user.Location,
		Description: user.Description,
		Occupation:  user.Occupation,
	}, nil
}
