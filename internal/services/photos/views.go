package photos

import (
	"context"
	"time"

	"github.com/anoixa/photo-share/internal/services"
)

// UserRef 评论作者的公开信息
type UserRef struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CommentView 带作者信息的评论，作者已删除时 User 为 nil
type CommentView struct {
	ID       string    `json:"id"`
	Comment  string    `json:"comment"`
	DateTime time.Time `json:"date_time"`
	User     *UserRef  `json:"user"`
}

// PhotoView 用户照片页的照片
type PhotoView struct {
	ID       string        `json:"id"`
	UserID   string        `json:"user_id"`
	FileName string        `json:"file_name"`
	DateTime time.Time     `json:"date_time"`
	Comments []CommentView `json:"comments"`
	Likes    []string      `json:"likes"`
}

// PhotoRef 评论所属照片
type PhotoRef struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	UserID   string `json:"user_id"`
}

// UserCommentView 用户发表的评论及其照片
type UserCommentView struct {
	ID       string    `json:"id"`
	Comment  string    `json:"comment"`
	DateTime time.Time `json:"date_time"`
	Photo    PhotoRef  `json:"photo"`
}

// RecentHighlight 最新照片
type RecentHighlight struct {
	ID       string    `json:"id"`
	FileName string    `json:"file_name"`
	DateTime time.Time `json:"date_time"`
}

// CommentedHighlight 评论最多的照片
type CommentedHighlight struct {
	ID           string `json:"id"`
	FileName     string `json:"file_name"`
	CommentCount int    `json:"commentCount"`
}

// Highlights 用户照片概览，没有照片时两项均为 nil
type Highlights struct {
	MostRecent   *RecentHighlight    `json:"mostRecent"`
	MostComments *CommentedHighlight `json:"mostComments"`
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	if err := services.ValidateID(userID, "Invalid user ID format"); err != nil {
		return err
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return services.Internal("Failed to load user", err)
	}
	if !exists {
		return services.NotFound("User not found")
	}
	return nil
}

// PhotosOfUser 返回用户的照片，评论附带作者信息
func (s *Service) PhotosOfUser(ctx context.Context, userID string) ([]PhotoView, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotosByUser(ctx, userID)
	if err != nil {
		return nil, services.Internal("Failed to load photos", err)
	}

	authorIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, photo := range photos {
		for _, comment := range photo.Comments {
			if _, ok := seen[comment.UserID]; !ok {
				seen[comment.UserID] = struct{}{}
				authorIDs = append(authorIDs, comment.UserID)
			}
		}
	}

	authors, err := s.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, services.Internal("Failed to load comment authors", err)
	}

	views := make([]PhotoView, 0, len(photos))
	for i := range photos {
		photo := &photos[i]
		comments := make([]CommentView, 0, len(photo.Comments))
		for _, comment := range photo.Comments {
			view := CommentView{
				ID:       comment.ID,
				Comment:  comment.Comment,
				DateTime: comment.DateTime,
			}
			if author, ok := authors[comment.UserID]; ok {
				view.User = &UserRef{ID: author.ID, FirstName: author.FirstName, LastName: author.LastName}
			}
			comments = append(comments, view)
		}

		views = append(views, PhotoView{
			ID:       photo.ID,
			UserID:   photo.UserID,
			FileName: photo.FileName,
			DateTime: photo.DateTime,
			Comments: comments,
			Likes:    photo.LikeUserIDs(),
		})
	}
	return views, nil
}

// CommentsOfUser 返回用户在任意照片下发表的评论
func (s *Service) CommentsOfUser(ctx context.Context, userID string) ([]UserCommentView, error) {
	if err := services.ValidateID(userID, "Invalid user ID format"); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListCommentsByAuthor(ctx, userID)
	if err != nil {
		return nil, services.Internal("Failed to load comments", err)
	}

	photoIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		photoIDs = append(photoIDs, comment.PhotoID)
	}
	photos, err := s.repo.GetPhotosByIDs(ctx, photoIDs)
	if err != nil {
		return nil, services.Internal("Failed to load photos", err)
	}
	byID := make(map[string]PhotoRef, len(photos))
	for _, photo := range photos {
		byID[photo.ID] = PhotoRef{ID: photo.ID, FileName: photo.FileName, UserID: photo.UserID}
	}

	views := make([]UserCommentView, 0, len(comments))
	for _, comment := range comments {
		photo, ok := byID[comment.PhotoID]
		if !ok {
			continue
		}
		views = append(views, UserCommentView{
			ID:       comment.ID,
			Comment:  comment.Comment,
			DateTime: comment.DateTime,
			Photo:    photo,
		})
	}
	return views, nil
}

// Highlights 返回用户最新的照片和评论最多的照片，并列时保留较早的一张
func (s *Service) Highlights(ctx context.Context, userID string) (*Highlights, error) {
	if err := services.ValidateID(userID, "Invalid user ID format"); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotosByUser(ctx, userID)
	if err != nil {
		return nil, services.Internal("Failed to load photos", err)
	}
	if len(photos) == 0 {
		return &Highlights{}, nil
	}

	recent, commented := &photos[0], &photos[0]
	for i := 1; i < len(photos); i++ {
		photo := &photos[i]
		if photo.DateTime.After(recent.DateTime) {
			recent = photo
		}
		if len(photo.Comments) > len(commented.Comments) {
			commented = photo
		}
	}

	return &Highlights{
		MostRecent: &RecentHighlight{
			ID:       recent.ID,
			FileName: recent.FileName,
			DateTime: recent.DateTime,
		},
		MostComments: &CommentedHighlight{
			ID:           commented.ID,
			FileName:     commented.FileName,
			CommentCount: len(commented.Comments),
		},
	}, nil
}
