package policy

import "jobboard/internal/domain"

// RBAC 角色/权限管理策略。保留实体守卫先于权限判断：
// 不论操作者是谁，改动 admin 角色或 manage roles 权限一律拒绝
type RBAC struct{}

func (RBAC) CanViewAny(a *Actor) bool { return a.Can(domain.PermManageRoles) }
func (RBAC) CanCreate(a *Actor) bool  { return a.Can(domain.PermManageRoles) }

func (RBAC) CanUpdateRole(a *Actor, roleName string) error {
	if err := GuardRole(roleName); err != nil {
		return err
	}
	if !a.Can(domain.PermManageRoles) {
		return Deny()
	}
	return nil
}

func (RBAC) CanDeleteRole(a *Actor, roleName string) error {
	if err := GuardRole(roleName); err != nil {
		return err
	}
	if !a.Can(domain.PermManageRoles) {
		return Deny()
	}
	return nil
}

func (RBAC) CanManagePermissions(a *Actor) bool { return a.Can(domain.PermManageRoles) }

func (RBAC) CanDeletePermission(a *Actor, permName string) error {
	if err := GuardPermission(permName); err != nil {
		return err
	}
	if !a.Can(domain.PermManageRoles) {
		return Deny()
	}
	return nil
}

// GuardRole 硬不变量，不是权限检查
func GuardRole(name string) error {
	if name == domain.RoleAdmin {
		return domain.ProtectedRole(name)
	}
	return nil
}

func GuardPermission(name string) error {
	if name == domain.PermManageRoles {
		return domain.ProtectedPermission(name)
	}
	return nil
}

// GuardRoleStrip 同步权限集时，admin 角色不得被剥夺 manage roles。
// （admin 角色本身已被 GuardRole 拦下，这里防的是未来放开改名后的横向破坏）
func GuardRoleStrip(roleName string, next []string) error {
	if roleName != domain.RoleAdmin {
		return nil
	}
	for _, p := range next {
		if p == domain.PermManageRoles {
			return nil
		}
	}
	return domain.ProtectedRole(roleName)
}
