package router

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/catalog"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
)

// ---------- 技能 / 福利目录管理 ----------

func mountCatalogActions(admin *gin.RouterGroup, d Deps) {
	ez := httpez.New(admin)

	// 配置总览（行内带 can 标志）
	ez.GET("/catalog", func(c *gin.Context) (any, error) {
		return d.Catalog.ListForConfiguration(c.Request.Context(), mdw.Actor(c))
	})

	type nameIn struct {
		Name string `json:"name" binding:"required,max=128"`
	}
	httpez.Register[nameIn, any](ez, d.DB, httpez.Action[nameIn, any]{
		Method: http.MethodPost,
		Path:   "/skills",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *nameIn) (any, error) {
			return d.Catalog.CreateSkill(c.Request.Context(), mdw.Actor(c), in.Name)
		},
	})
	httpez.Register[nameIn, any](ez, d.DB, httpez.Action[nameIn, any]{
		Method: http.MethodPut,
		Path:   "/skills/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *nameIn) (any, error) {
			return d.Catalog.UpdateSkill(c.Request.Context(), mdw.Actor(c), c.Param("id"), in.Name)
		},
	})
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/skills/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Catalog.DeleteSkill(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
	ez.GET("/skills/:id/history", func(c *gin.Context) (any, error) {
		return d.Catalog.SkillHistory(c.Request.Context(), mdw.Actor(c), c.Param("id"))
	})

	// 福利带 SVG 图标，走 multipart
	httpez.POSTFORM(ez, "/employment-benefits", func(c *gin.Context, form *multipart.Form) (any, error) {
		icon, err := readIcon(form, d)
		if err != nil {
			return nil, err
		}
		return d.Catalog.CreateBenefit(c.Request.Context(), mdw.Actor(c), formValue(form, "name"), icon)
	})
	httpez.PUTFORM(ez, "/employment-benefits/:id", func(c *gin.Context, form *multipart.Form) (any, error) {
		icon, err := readIcon(form, d)
		if err != nil {
			return nil, err
		}
		return d.Catalog.UpdateBenefit(c.Request.Context(), mdw.Actor(c), c.Param("id"), formValue(form, "name"), icon)
	})
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/employment-benefits/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Catalog.DeleteBenefit(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
	ez.GET("/employment-benefits/:id/history", func(c *gin.Context) (any, error) {
		return d.Catalog.BenefitHistory(c.Request.Context(), mdw.Actor(c), c.Param("id"))
	})
}

// readIcon 图标缺省返回 nil（更新时表示保留旧图标）
func readIcon(form *multipart.Form, d Deps) (*catalog.IconUpload, error) {
	fh := firstFile(form, "icon")
	if fh == nil {
		return nil, nil
	}
	if fh.Size > d.Uploads.BenefitIcon.MaxBytes {
		return nil, httpez.BadRequest("icon too large")
	}
	ct := fh.Header.Get("Content-Type")
	ok := false
	for _, m := range d.Uploads.BenefitIcon.Mimes {
		if ct == m {
			ok = true
			break
		}
	}
	if !ok {
		return nil, httpez.BadRequest("icon must be SVG")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &catalog.IconUpload{Name: fh.Filename, Data: data}, nil
}
