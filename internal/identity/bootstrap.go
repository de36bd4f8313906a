package identity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	"jobboard/pkg/utils"
)

// 预置角色 → 权限集。admin 同时拿目录与职位配置权
var seedRoles = map[string][]string{
	domain.RoleAdmin: {
		domain.PermManageRoles,
		domain.PermViewAllCompanies,
		domain.PermCreateCompany,
		domain.PermEditCompany,
		domain.PermDeleteCompany,
		domain.PermRestoreCompany,
		domain.PermManageListingConfig,
	},
	domain.RoleCompanyOwner: {
		domain.PermViewCompany,
		domain.PermCreateCompany,
		domain.PermEditCompany,
		domain.PermDeleteCompany,
		domain.PermRestoreCompany,
		domain.PermInviteCompanyEditor,
		domain.PermManageJobListings,
	},
	domain.RoleCompanyEditor: {
		domain.PermViewCompany,
		domain.PermEditCompany,
		domain.PermManageJobListings,
	},
}

var seedPermissions = []string{
	domain.PermManageRoles,
	domain.PermViewAllCompanies,
	domain.PermViewCompany,
	domain.PermCreateCompany,
	domain.PermEditCompany,
	domain.PermDeleteCompany,
	domain.PermRestoreCompany,
	domain.PermInviteCompanyEditor,
	domain.PermManageJobListings,
	domain.PermManageListingConfig,
}

// Bootstrap 幂等初始化角色/权限；adminEmail 非空时顺带建引导管理员。
// 全程 create-if-absent，可反复执行
func (s *Store) Bootstrap(ctx context.Context, log *zap.Logger, adminEmail, adminPassword string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range seedPermissions {
			if err := firstOrCreatePermission(tx, name); err != nil {
				return err
			}
		}
		for roleName, permNames := range seedRoles {
			role, err := firstOrCreateRole(tx, roleName)
			if err != nil {
				return err
			}
			var perms []domain.Permission
			if err := tx.Where("name IN ?", permNames).Find(&perms).Error; err != nil {
				return err
			}
			if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
			log.Info("role seeded", zap.String("role", roleName), zap.Int("permissions", len(perms)))
		}
		if adminEmail != "" {
			if err := seedAdminUser(tx, log, adminEmail, adminPassword); err != nil {
				return err
			}
		}
		return nil
	})
}

// GrantAdmin 给既有用户挂 admin 角色
func (s *Store) GrantAdmin(ctx context.Context, email string) error {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.AssignRole(ctx, user.ID, domain.RoleAdmin)
}

func firstOrCreatePermission(tx *gorm.DB, name string) error {
	var perm domain.Permission
	err := tx.Where("name = ?", name).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&domain.Permission{ID: utils.NewID(), Name: name}).Error
	}
	return err
}

func firstOrCreateRole(tx *gorm.DB, name string) (*domain.Role, error) {
	var role domain.Role
	err := tx.Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = domain.Role{ID: utils.NewID(), Name: name}
		if err := tx.Create(&role).Error; err != nil {
			return nil, err
		}
		return &role, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func seedAdminUser(tx *gorm.DB, log *zap.Logger, email, password string) error {
	var user domain.User
	err := tx.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		user = domain.User{
			ID:              utils.NewID(),
			Email:           email,
			Name:            "Admin",
			PasswordHash:    utils.HashPassword(password),
			EmailVerifiedAt: &now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		log.Info("bootstrap admin created", zap.String("email", email))
	case err != nil:
		return err
	}
	var adminRole domain.Role
	if err := tx.First(&adminRole, "name = ?", domain.RoleAdmin).Error; err != nil {
		return err
	}
	return tx.Model(&user).Association("Roles").Append(&adminRole)
}
