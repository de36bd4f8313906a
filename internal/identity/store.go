package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/core/cache"
	"jobboard/internal/domain"
	"jobboard/pkg/utils"
)

// Store 身份与角色存取。权限判定只经由 用户→角色→权限 两层 m2m，
// 不支持用户直挂权限。保护逻辑不在这里，属于 policy 层
type Store struct {
	db    *gorm.DB
	cache *cache.Cache // 可空；命中时缓存权限投影
}

const permCacheTTL = 5 * time.Minute

func NewStore(db *gorm.DB, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

func (s *Store) DB() *gorm.DB { return s.db }

// AssignRole 幂等；角色不存在返回 domain.ErrNotFound
func (s *Store) AssignRole(ctx context.Context, userID, roleName string) error {
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := s.db.WithContext(ctx).Model(&user).Association("Roles").Append(role); err != nil {
		return err
	}
	s.invalidatePerms(ctx, userID)
	return nil
}

func (s *Store) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	return s.HasAnyRole(ctx, userID, roleName)
}

func (s *Store) HasAnyRole(ctx context.Context, userID string, roleNames ...string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name IN ?", userID, roleNames).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) HasPermission(ctx context.Context, userID, permName string) (bool, error) {
	perms, err := s.VisiblePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == permName {
			return true, nil
		}
	}
	return false, nil
}

// VisiblePermissions 用户可见权限投影，按需计算（短 TTL 缓存），不做进程级状态
func (s *Store) VisiblePermissions(ctx context.Context, userID string) ([]string, error) {
	load := func(ctx context.Context) (*[]string, error) {
		perms, err := s.loadPermissions(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &perms, nil
	}
	if s.cache == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return *out, nil
	}
	out, err := cache.GetOrLoadJSON[[]string](s.cache, ctx, permCacheKey(userID), permCacheTTL, load)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return *out, nil
}

func (s *Store) loadPermissions(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// IsLinkedTo 用户是否以指定关系挂在公司上；relation 为空则任意关系
func (s *Store) IsLinkedTo(ctx context.Context, userID, companyID, relation string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&domain.CompanyUser{}).
		Where("user_id = ? AND company_id = ?", userID, companyID)
	if relation != "" {
		q = q.Where("role = ?", relation)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

// CompanyOf 用户关联的公司（owner 优先）；没有则 (nil, nil)
func (s *Store) CompanyOf(ctx context.Context, userID string) (*domain.Company, error) {
	var link domain.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("CASE role WHEN 'owner' THEN 0 ELSE 1 END").
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var company domain.Company
	err = s.db.WithContext(ctx).First(&company, "id = ?", link.CompanyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 公司被软删后成员关系仍在
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *Store) Memberships(ctx context.Context, userID string) (map[string]string, error) {
	var links []domain.CompanyUser
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&links).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(links))
	for _, l := range links {
		out[l.CompanyID] = l.Role
	}
	return out, nil
}

// ---------- 角色/权限管理（admin 面） ----------

type RoleView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (s *Store) ListRoles(ctx context.Context) ([]RoleView, error) {
	var roles []domain.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	out := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		names := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			names = append(names, p.Name)
		}
		sort.Strings(names)
		out = append(out, RoleView{ID: r.ID, Name: r.Name, Permissions: names})
	}
	return out, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&domain.Permission{}).Order("name").Pluck("name", &names).Error
	return names, err
}

func (s *Store) CreateRole(ctx context.Context, name string, permNames []string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	perms, err := s.permsByNames(ctx, permNames)
	if err != nil {
		return nil, err
	}
	role := &domain.Role{ID: utils.NewID(), Name: name, Permissions: perms}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return role, nil
}

// SyncRolePermissions 全量替换角色的权限集
func (s *Store) SyncRolePermissions(ctx context.Context, roleID string, permNames []string) error {
	role, err := s.roleByID(ctx, roleID)
	if err != nil {
		return err
	}
	perms, err := s.permsByNames(ctx, permNames)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms); err != nil {
		return err
	}
	s.invalidateAllPerms(ctx)
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.roleByID(ctx, roleID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(role).Association("Permissions").Clear(); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", role.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(role).Error; err != nil {
			return err
		}
		s.invalidateAllPerms(ctx)
		return nil
	})
}

func (s *Store) CreatePermission(ctx context.Context, name string) (*domain.Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	perm := &domain.Permission{ID: utils.NewID(), Name: name}
	if err := s.db.WithContext(ctx).Create(perm).Error; err != nil {
		if domain.IsDupKey(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return perm, nil
}

func (s *Store) DeletePermission(ctx context.Context, permID string) error {
	var perm domain.Permission
	if err := s.db.WithContext(ctx).First(&perm, "id = ?", permID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", perm.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&perm).Error; err != nil {
			return err
		}
		s.invalidateAllPerms(ctx)
		return nil
	})
}

func (s *Store) RoleByID(ctx context.Context, id string) (*domain.Role, error) {
	return s.roleByID(ctx, id)
}

func (s *Store) PermissionByID(ctx context.Context, id string) (*domain.Permission, error) {
	var perm domain.Permission
	err := s.db.WithContext(ctx).First(&perm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// ---------- 内部 ----------

func (s *Store) roleByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := s.db.WithContext(ctx).First(&role, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) roleByID(ctx context.Context, id string) (*domain.Role, error) {
	var role domain.Role
	err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) permsByNames(ctx context.Context, names []string) ([]domain.Permission, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var perms []domain.Permission
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&perms).Error; err != nil {
		return nil, err
	}
	if len(perms) != len(uniq(names)) {
		return nil, domain.Invalid("permissions", "unknown permission name")
	}
	return perms, nil
}

func permCacheKey(userID string) string { return "perms:" + userID }

func (s *Store) invalidatePerms(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Del(ctx, permCacheKey(userID))
	}
}

// 角色权限集变化影响面未知，整体丢弃投影缓存
func (s *Store) invalidateAllPerms(ctx context.Context) {
	if s.cache != nil {
		s.cache.DelPrefix(ctx, "perms:")
	}
}

func uniq(in []string) []string {
	seen := map[string]struct{}{}
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

