package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	"jobboard/internal/listing"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
)

// ---------- 职位管理（公司作用域） ----------

func mountListings(scoped *gin.RouterGroup, d Deps) {
	ez := httpez.New(scoped)

	httpez.Register[listing.Input, *domain.JobListing](ez, d.DB, httpez.Action[listing.Input, *domain.JobListing]{
		Method: http.MethodPost,
		Path:   "/job-listings",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listing.Input) (*domain.JobListing, error) {
			return d.Listings.Create(c.Request.Context(), mdw.Actor(c), *in)
		},
	})

	ez.GET("/job-listings", func(c *gin.Context) (any, error) {
		return d.Listings.List(c.Request.Context(), mdw.Actor(c))
	})

	ez.GET("/job-listings/:id", func(c *gin.Context) (any, error) {
		return d.Listings.Get(c.Request.Context(), mdw.Actor(c), c.Param("id"))
	})

	httpez.Register[listing.Input, *domain.JobListing](ez, d.DB, httpez.Action[listing.Input, *domain.JobListing]{
		Method: http.MethodPut,
		Path:   "/job-listings/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listing.Input) (*domain.JobListing, error) {
			return d.Listings.Update(c.Request.Context(), mdw.Actor(c), c.Param("id"), *in)
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/job-listings/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Listings.Delete(c.Request.Context(), mdw.Actor(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	setActive := func(active bool) func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
		return func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := d.Listings.SetActive(c.Request.Context(), mdw.Actor(c), id, active); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "isActive": active}, nil
		}
	}
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost, Path: "/job-listings/:id/activate", Binder: httpez.BindNone,
		Handler: setActive(true),
	})
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost, Path: "/job-listings/:id/deactivate", Binder: httpez.BindNone,
		Handler: setActive(false),
	})

	ez.GET("/job-listings/:id/history", func(c *gin.Context) (any, error) {
		return d.Listings.History(c.Request.Context(), mdw.Actor(c), c.Param("id"))
	})
}

// ---------- 公开职位搜索 ----------

func mountPublicJobs(api *gin.RouterGroup, d Deps) {
	ez := httpez.New(api)

	type searchQ struct {
		Q    string `form:"q"`
		Page int    `form:"page,default=1"`
		Size int    `form:"size,default=20"`
	}
	httpez.Register[searchQ, *listing.SearchResult](ez, d.DB, httpez.Action[searchQ, *listing.SearchResult]{
		Method: http.MethodGet,
		Path:   "/jobs",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *searchQ) (*listing.SearchResult, error) {
			return d.Listings.Search(c.Request.Context(), in.Q, in.Page, in.Size)
		},
	})
}
