package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              string `gorm:"primaryKey;type:varchar(32)"`
	Email           string `gorm:"uniqueIndex;size:255;not null"`
	Name            string `gorm:"size:64"`
	PasswordHash    string `gorm:"size:100"`
	EmailVerifiedAt *time.Time
	GoogleID        *string `gorm:"uniqueIndex;size:64"` // 三方登录绑定，可空

	Roles []Role `gorm:"many2many:user_roles;"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string { return "users" }
