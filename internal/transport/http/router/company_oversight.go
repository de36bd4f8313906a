package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
)

// ---------- 公司总览（管理面） ----------

func mountCompanyOversight(admin *gin.RouterGroup, d Deps) {
	ez := httpez.New(admin)

	type listQ struct {
		Offset      int  `form:"offset,default=0"`
		Limit       int  `form:"limit,default=20"`
		WithDeleted bool `form:"with_deleted"`
	}
	type listOut struct {
		Total int64            `json:"total"`
		Items []domain.Company `json:"items"`
	}
	httpez.Register[listQ, listOut](ez, d.DB, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/companies",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			items, total, err := d.Companies.ListAll(c.Request.Context(), mdw.Actor(c), in.Offset, in.Limit, in.WithDeleted)
			if err != nil {
				return listOut{}, err
			}
			return listOut{Total: total, Items: items}, nil
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/companies/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Companies.SoftDelete(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/companies/:id/restore",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Companies.Restore(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// 硬删：连同成员关系和职位，资产尽力回收
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/companies/:id/force",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Companies.ForceDelete(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
