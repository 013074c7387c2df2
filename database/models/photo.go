package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo 照片聚合根，评论和点赞随照片一同删除
type Photo struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	UserID   string    `gorm:"size:36;not null;index:idx_photos_user_date,priority:1" json:"user_id"`
	FileName string    `gorm:"uniqueIndex:idx_file_name;not null" json:"file_name"`
	DateTime time.Time `gorm:"column:date_time;not null;index:idx_photos_user_date,priority:2" json:"date_time"`

	Comments []Comment   `gorm:"foreignKey:PhotoID" json:"comments,omitempty"`
	Likes    []PhotoLike `gorm:"foreignKey:PhotoID" json:"-"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.DateTime.IsZero() {
		p.DateTime = time.Now()
	}
	return nil
}

// LikeUserIDs 返回点赞用户 ID 列表，保证非 nil
func (p *Photo) LikeUserIDs() []string {
	ids := make([]string, 0, len(p.Likes))
	for _, like := range p.Likes {
		ids = append(ids, like.UserID)
	}
	return ids
}

// Comment 照片下的评论，按 date_time、id 排序
type Comment struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	PhotoID  string    `gorm:"size:36;not null;index:idx_comments_photo_date,priority:1" json:"photo_id"`
	UserID   string    `gorm:"size:36;not null;index" json:"user_id"`
	Comment  string    `gorm:"type:text;not null" json:"comment"`
	DateTime time.Time `gorm:"column:date_time;not null;index:idx_comments_photo_date,priority:2" json:"date_time"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.DateTime.IsZero() {
		c.DateTime = time.Now()
	}
	return nil
}

// PhotoLike 点赞关系，(photo_id, user_id) 作为主键保证每个用户至多一次
type PhotoLike struct {
	PhotoID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}
