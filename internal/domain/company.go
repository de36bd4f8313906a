package domain

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID                 string `gorm:"primaryKey;type:varchar(32)"`
	Name               string `gorm:"size:255;not null"`
	RegistrationNumber string `gorm:"uniqueIndex;size:64;not null"`
	RegistrationDocRef string `gorm:"size:255;not null"` // 受限桶内的引用
	Industry           string `gorm:"size:255"`
	Size               string `gorm:"size:64"`
	Type               string `gorm:"size:64"`
	Address            string `gorm:"size:255"`
	LogoRef            string `gorm:"size:255"`
	BannerRef          string `gorm:"size:255"`
	Website            string `gorm:"size:255"`
	Facebook           string `gorm:"size:255"`
	Twitter            string `gorm:"size:255"`
	Instagram          string `gorm:"size:255"`
	Youtube            string `gorm:"size:255"`
	Linkedin           string `gorm:"size:255"`
	InviteToken        string `gorm:"uniqueIndex;size:64;not null"` // 仅创建时生成一次

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Company) TableName() string { return "companies" }

// 成员关系角色（区别于 RBAC 角色名）
const (
	MemberOwner  = "owner"
	MemberEditor = "editor"
)

// CompanyUser 统一 pivot：
//   - (company_id, user_id) 唯一 → 成员关系是集合
//   - (user_id, role) 唯一 → 一个用户最多拥有一家公司，
//     并发重复提交 onboarding 时第二条 owner 记录直接撞唯一键回滚
type CompanyUser struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CompanyID  string `gorm:"type:varchar(32);not null;uniqueIndex:uniq_company_member,priority:1"`
	UserID     string `gorm:"type:varchar(32);not null;uniqueIndex:uniq_company_member,priority:2;uniqueIndex:uniq_user_role,priority:1"`
	Role       string `gorm:"size:16;not null;uniqueIndex:uniq_user_role,priority:2"`
	AssignedAt time.Time
}

func (CompanyUser) TableName() string { return "company_user" }
