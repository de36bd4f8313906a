package domain

import "time"

// 预置角色/权限名。admin 角色与 manage roles 权限受保护，任何人不可改删
const (
	RoleAdmin         = "admin"
	RoleCompanyOwner  = "company owner"
	RoleCompanyEditor = "company editor"

	PermManageRoles         = "manage roles"
	PermViewAllCompanies    = "view all companies"
	PermViewCompany         = "view company"
	PermCreateCompany       = "create company"
	PermEditCompany         = "edit company"
	PermDeleteCompany       = "delete company"
	PermRestoreCompany      = "restore company"
	PermInviteCompanyEditor = "invite company editor"
	PermManageJobListings   = "manage job listings"
	PermManageListingConfig = "manage job listing configuration"
)

type Role struct {
	ID   string `gorm:"primaryKey;type:varchar(32)"`
	Name string `gorm:"uniqueIndex;size:64;not null"`

	Permissions []Permission `gorm:"many2many:role_permissions;"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID   string `gorm:"primaryKey;type:varchar(32)"`
	Name string `gorm:"uniqueIndex;size:64;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Permission) TableName() string { return "permissions" }
