package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/identity"
	"jobboard/internal/policy"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
)

// ---------- 角色 / 权限管理 ----------

func mountRBACActions(admin *gin.RouterGroup, d Deps) {
	ez := httpez.New(admin)
	var pol policy.RBAC

	// 角色-权限总览（管理页一次拉全）
	type rbacOut struct {
		Roles       []identity.RoleView `json:"roles"`
		Permissions []string            `json:"permissions"`
	}
	httpez.Register[struct{}, rbacOut](ez, d.DB, httpez.Action[struct{}, rbacOut]{
		Method: http.MethodGet,
		Path:   "/roles-permissions",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (rbacOut, error) {
			if !pol.CanViewAny(mdw.Actor(c)) {
				return rbacOut{}, policy.Deny()
			}
			roles, err := d.Store.ListRoles(c.Request.Context())
			if err != nil {
				return rbacOut{}, err
			}
			perms, err := d.Store.ListPermissions(c.Request.Context())
			if err != nil {
				return rbacOut{}, err
			}
			return rbacOut{Roles: roles, Permissions: perms}, nil
		},
	})

	type roleIn struct {
		Name        string   `json:"name"        binding:"required,max=64"`
		Permissions []string `json:"permissions"`
	}
	httpez.Register[roleIn, any](ez, d.DB, httpez.Action[roleIn, any]{
		Method: http.MethodPost,
		Path:   "/roles",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *roleIn) (any, error) {
			if !pol.CanCreate(mdw.Actor(c)) {
				return nil, policy.Deny()
			}
			return d.Store.CreateRole(c.Request.Context(), in.Name, in.Permissions)
		},
	})

	// 全量替换角色的权限集。保护实体守卫先于令牌检查
	type syncIn struct {
		Permissions []string `json:"permissions"`
	}
	httpez.Register[syncIn, gin.H](ez, d.DB, httpez.Action[syncIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/roles/:id/permissions",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *syncIn) (gin.H, error) {
			role, err := d.Store.RoleByID(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			if err := pol.CanUpdateRole(mdw.Actor(c), role.Name); err != nil {
				return nil, err
			}
			if err := policy.GuardRoleStrip(role.Name, in.Permissions); err != nil {
				return nil, err
			}
			if err := d.Store.SyncRolePermissions(c.Request.Context(), role.ID, in.Permissions); err != nil {
				return nil, err
			}
			return gin.H{"id": role.ID}, nil
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/roles/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			role, err := d.Store.RoleByID(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			if err := pol.CanDeleteRole(mdw.Actor(c), role.Name); err != nil {
				return nil, err
			}
			if err := d.Store.DeleteRole(c.Request.Context(), role.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": role.ID}, nil
		},
	})

	type permIn struct {
		Name string `json:"name" binding:"required,max=64"`
	}
	httpez.Register[permIn, any](ez, d.DB, httpez.Action[permIn, any]{
		Method: http.MethodPost,
		Path:   "/permissions",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *permIn) (any, error) {
			if !pol.CanManagePermissions(mdw.Actor(c)) {
				return nil, policy.Deny()
			}
			return d.Store.CreatePermission(c.Request.Context(), in.Name)
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/permissions/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			perm, err := d.Store.PermissionByID(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			if err := pol.CanDeletePermission(mdw.Actor(c), perm.Name); err != nil {
				return nil, err
			}
			if err := d.Store.DeletePermission(c.Request.Context(), perm.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": perm.ID}, nil
		},
	})

	// 给用户发角色（管理页的成员管理）
	type assignIn struct {
		Role string `json:"role" binding:"required"`
	}
	httpez.Register[assignIn, gin.H](ez, d.DB, httpez.Action[assignIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/roles",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *assignIn) (gin.H, error) {
			if !pol.CanCreate(mdw.Actor(c)) {
				return nil, policy.Deny()
			}
			uid := c.Param("id")
			if err := d.Store.AssignRole(c.Request.Context(), uid, in.Role); err != nil {
				return nil, err
			}
			return gin.H{"id": uid, "role": in.Role}, nil
		},
	})
}
