package models

import "time"

// Favorite 收藏关系，(user_id, photo_id) 作为主键
type Favorite struct {
	UserID    string `gorm:"primaryKey;size:36"`
	PhotoID   string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Photo{},
		&Comment{},
		&PhotoLike{},
		&Favorite{},
	}
}
