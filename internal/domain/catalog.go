package domain

import (
	"time"

	"gorm.io/gorm"
)

// 全局目录实体，职位按名称引用

type Skill struct {
	ID   string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name string `gorm:"uniqueIndex;size:255;not null" json:"name"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Skill) TableName() string { return "skills" }

type EmploymentBenefit struct {
	ID      string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name    string `gorm:"uniqueIndex;size:255;not null" json:"name"`
	IconRef string `gorm:"size:255" json:"iconRef"` // SVG，存公共桶

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (EmploymentBenefit) TableName() string { return "employment_benefits" }
