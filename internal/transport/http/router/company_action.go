package router

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/company"
	"jobboard/internal/core/config"
	"jobboard/internal/core/storage"
	"jobboard/internal/domain"
	httpez "jobboard/internal/transport/http/ez"
	mdw "jobboard/internal/transport/http/middleware"
)

// readUpload 统一做大小/类型校验后把文件读进内存
func readUpload(fh *multipart.FileHeader, limit config.UploadLimit) (*company.FileUpload, error) {
	if fh.Size > limit.MaxBytes {
		return nil, httpez.BadRequest("file too large: " + fh.Filename)
	}
	ct := fh.Header.Get("Content-Type")
	ok := false
	for _, m := range limit.Mimes {
		if strings.EqualFold(ct, m) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, httpez.BadRequest("unsupported file type: " + ct)
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
	return &company.FileUpload{Name: fh.Filename, ContentType: ct, Data: data}, nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if fs := form.File[field]; len(fs) > 0 {
		return fs[0]
	}
	return nil
}

func formValue(form *multipart.Form, field string) string {
	if vs := form.Value[field]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// ---------- 入驻 ----------

func mountOnboarding(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	// POST /onboarding：multipart，一把梭（公司 + owner + editor 邀请）
	httpez.POSTFORM(ez, "/onboarding", func(c *gin.Context, form *multipart.Form) (any, error) {
		in := company.OnboardInput{
			Name:               formValue(form, "name"),
			RegistrationNumber: formValue(form, "registration_number"),
			Industry:           formValue(form, "industry"),
			Size:               formValue(form, "size"),
			Type:               formValue(form, "type"),
			Address:            formValue(form, "address"),
			Website:            formValue(form, "website"),
			Facebook:           formValue(form, "facebook"),
			Twitter:            formValue(form, "twitter"),
			Instagram:          formValue(form, "instagram"),
			Youtube:            formValue(form, "youtube"),
			Linkedin:           formValue(form, "linkedin"),
		}
		for _, e := range form.Value["team_emails[]"] {
			if e = strings.TrimSpace(e); e != "" {
				in.TeamEmails = append(in.TeamEmails, e)
			}
		}
		var err error
		if fh := firstFile(form, "registration_document"); fh != nil {
			if in.RegistrationDoc, err = readUpload(fh, d.Uploads.RegistrationDoc); err != nil {
				return nil, err
			}
		}
		if fh := firstFile(form, "logo"); fh != nil {
			if in.Logo, err = readUpload(fh, d.Uploads.Logo); err != nil {
				return nil, err
			}
		}
		if fh := firstFile(form, "banner"); fh != nil {
			if in.Banner, err = readUpload(fh, d.Uploads.Banner); err != nil {
				return nil, err
			}
		}
		return d.Companies.Onboard(c.Request.Context(), mdw.Actor(c), in)
	})
}

// ---------- 公司管理（已入驻） ----------

func mountCompany(scoped *gin.RouterGroup, d Deps) {
	ez := httpez.New(scoped)

	ez.GET("/company", func(c *gin.Context) (any, error) {
		co, err := d.Companies.Get(c.Request.Context(), mdw.Actor(c))
		if err != nil {
			return nil, err
		}
		return gin.H{
			"company":   co,
			"logoUrl":   storage.PublicURL(d.BaseURL, co.LogoRef),
			"bannerUrl": storage.PublicURL(d.BaseURL, co.BannerRef),
		}, nil
	})

	// multipart（文件替换），语义仍是整体替换
	httpez.PUTFORM(ez, "/company", func(c *gin.Context, form *multipart.Form) (any, error) {
		in := company.UpdateInput{
			Name:               formValue(form, "name"),
			RegistrationNumber: formValue(form, "registration_number"),
			Industry:           formValue(form, "industry"),
			Size:               formValue(form, "size"),
			Type:               formValue(form, "type"),
			Address:            formValue(form, "address"),
			Website:            formValue(form, "website"),
			Facebook:           formValue(form, "facebook"),
			Twitter:            formValue(form, "twitter"),
			Instagram:          formValue(form, "instagram"),
			Youtube:            formValue(form, "youtube"),
			Linkedin:           formValue(form, "linkedin"),
			RemoveBanner:       formValue(form, "remove_banner") == "1",
		}
		var err error
		if fh := firstFile(form, "registration_document"); fh != nil {
			if in.RegistrationDoc, err = readUpload(fh, d.Uploads.RegistrationDoc); err != nil {
				return nil, err
			}
		}
		if fh := firstFile(form, "logo"); fh != nil {
			if in.Logo, err = readUpload(fh, d.Uploads.Logo); err != nil {
				return nil, err
			}
		}
		if fh := firstFile(form, "banner"); fh != nil {
			if in.Banner, err = readUpload(fh, d.Uploads.Banner); err != nil {
				return nil, err
			}
		}
		return d.Companies.Update(c.Request.Context(), mdw.Actor(c), in)
	})

	// 自己的公司：软删 / 恢复。软删后成员关系还在，所以恢复路由也过得了闸
	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/company",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			actor := mdw.Actor(c)
			co, err := d.Store.CompanyOf(c.Request.Context(), actor.UserID)
			if err != nil {
				return nil, err
			}
			if co == nil {
				return nil, domain.ErrNotFound
			}
			if err := d.Companies.SoftDelete(c.Request.Context(), actor, co.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": co.ID}, nil
		},
	})

	httpez.Register[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/company/restore",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			actor := mdw.Actor(c)
			// CompanyOf 看不见软删的公司，恢复要从成员关系反查
			ms, err := d.Store.Memberships(c.Request.Context(), actor.UserID)
			if err != nil {
				return nil, err
			}
			var id string
			for companyID, role := range ms {
				if role == domain.MemberOwner {
					id = companyID
					break
				}
			}
			if id == "" {
				return nil, domain.ErrNotFound
			}
			if err := d.Companies.Restore(c.Request.Context(), actor, id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}

// mountRegistrationDocs 受限桶：注册文件不走公共 URL，按归属/权限放行后流式回发。
// 挂在鉴权分组（不过 onboarding 闸），管理面账号也从这里取
func mountRegistrationDocs(authed *gin.RouterGroup, d Deps) {
	authed.GET("/documents/registration/*ref", func(c *gin.Context) {
		ref := strings.TrimPrefix(c.Param("ref"), "/")
		rc, err := d.Companies.OpenRegistrationDoc(c.Request.Context(), mdw.Actor(c), ref)
		if err != nil {
			httpez.WriteErr(c, err)
			return
		}
		defer rc.Close()
		c.Header("Content-Type", "application/pdf")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, rc)
	})
}
