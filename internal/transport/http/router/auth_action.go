package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
	"jobboard/pkg/utils"
)

// ---------- 动作注册：/auth/register /auth/login /me ----------

func mountAuthActions(api *gin.RouterGroup, d Deps) {
	ezPublic := httpez.New(api)

	// /auth/register：注册即发 company owner 角色，入驻由该角色的令牌放行
	type registerIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"     binding:"required,max=64"`
	}
	type authOut struct {
		Token string `json:"token"`
		User  gin.H  `json:"user"`
	}
	httpez.Register[registerIn, authOut](ezPublic, d.DB, httpez.Action[registerIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (authOut, error) {
			u := domain.User{
				ID:           utils.NewID(),
				Email:        strings.ToLower(strings.TrimSpace(in.Email)),
				Name:         strings.TrimSpace(in.Name),
				PasswordHash: utils.HashPassword(in.Password),
			}
			if err := tx.Create(&u).Error; err != nil {
				if domain.IsDupKey(err) {
					return authOut{}, domain.ErrConflict
				}
				return authOut{}, err
			}
			if err := d.Store.AssignRole(c.Request.Context(), u.ID, domain.RoleCompanyOwner); err != nil {
				return authOut{}, err
			}
			tok, err := d.JWTer.Issue(u.ID)
			if err != nil || tok == "" {
				return authOut{}, httpez.Internal("issue token failed", err)
			}
			return authOut{
				Token: tok,
				User:  gin.H{"id": u.ID, "email": u.Email, "name": u.Name},
			}, nil
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.Register[loginIn, authOut](ezPublic, d.DB, httpez.Action[loginIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (authOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			var u domain.User
			err := tx.Where("email = ?", email).First(&u).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authOut{}, httpez.Unauthorized("invalid credentials")
			}
			if err != nil {
				return authOut{}, err
			}
			if !utils.CheckPassword(in.Password, u.PasswordHash) {
				return authOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, e := d.JWTer.Issue(u.ID)
			if e != nil || tok == "" {
				return authOut{}, httpez.Internal("issue token failed", e)
			}
			return authOut{
				Token: tok,
				User:  gin.H{"id": u.ID, "email": u.Email, "name": u.Name},
			}, nil
		},
	})
}

func mountMe(authed *gin.RouterGroup, d Deps) {
	ezAuth := httpez.New(authed)

	type meOut struct {
		ID          string   `json:"id"`
		Email       string   `json:"email"`
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
		CompanyID   string   `json:"companyId,omitempty"`
		// none：与公司无关的账号；onboarding：能建公司但还没有活跃公司；active：有活跃公司
		CompanyState string `json:"companyState"`
	}
	httpez.Register[struct{}, meOut](ezAuth, d.DB, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (meOut, error) {
			actor := mdw.Actor(c)
			var u domain.User
			if err := tx.Where("id = ?", actor.UserID).First(&u).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return meOut{}, httpez.NotFound("user not found")
				}
				return meOut{}, err
			}
			out := meOut{ID: u.ID, Email: u.Email, Name: u.Name, Permissions: actor.Permissions(), CompanyState: "none"}
			if actor.Can(domain.PermCreateCompany) {
				out.CompanyState = "onboarding"
			}
			if company, err := d.Store.CompanyOf(c.Request.Context(), u.ID); err == nil && company != nil {
				out.CompanyID = company.ID
				out.CompanyState = "active"
			}
			return out, nil
		},
	})
}
