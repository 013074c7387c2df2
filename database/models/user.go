package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户账号
// LoginName 唯一且区分大小写
type User struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	LoginName   string `gorm:"uniqueIndex:idx_login_name;size:64;not null" json:"login_name"`
	Password    string `gorm:"not null" json:"-"`
	FirstName   string `gorm:"size:64;not null" json:"first_name"`
	LastName    string `gorm:"size:64;not null" json:"last_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Occupation  string `json:"occupation"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
