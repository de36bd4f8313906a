package ez

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	resp "jobboard/internal/transport/http/response"
)

/* ================== 轻封装 ================== */

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

func (e EZ) GET(path string, h func(c *gin.Context) (any, error)) {
	e.g.GET(path, func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			WriteErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	})
}

// POSTFORM / PUTFORM 处理 multipart/form-data（表单字段 + 文件）
func POSTFORM(e EZ, path string, h func(c *gin.Context, form *multipart.Form) (any, error)) {
	e.g.POST(path, formHandler(h))
}

func PUTFORM(e EZ, path string, h func(c *gin.Context, form *multipart.Form) (any, error)) {
	e.g.PUT(path, formHandler(h))
}

func formHandler(h func(c *gin.Context, form *multipart.Form) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "invalid multipart form: "+err.Error()))
			return
		}
		data, err := h(c, form)
		if err != nil {
			WriteErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	}
}

/* ================== Action（非 CRUD 一行注册） ================== */

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// WriteErr 业务错误 → 统一响应映射。
// 拒绝一律回笼统的 forbidden，不暴露缺了哪个权限；
// 保护实体Error是唯一的例外，它本来就要点名。
func WriteErr(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
		return
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusOK, resp.New(resp.CodeUnprocessable, resp.CodeMsgMap[resp.CodeUnprocessable],
			gin.H{"fields": ve.Fields}))
		return
	}
	var pe *domain.ProtectedEntityError
	if errors.As(err, &pe) {
		c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, pe.Error()))
		return
	}
	switch {
	case errors.Is(err, domain.ErrDenied):
		c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, ""))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, ""))
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusOK, resp.Error(resp.CodeConflict, ""))
	case errors.Is(err, domain.ErrNoCompany):
		c.JSON(http.StatusOK, resp.Error(resp.CodeNeedsCompany, ""))
	default:
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, ""))
	}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/auth/login"、"/job-listings/:id/activate"
	Binder  Binder // 绑定方式
	UseTx   bool   // 是否包事务（gorm.Transaction）
	Handler func(c *gin.Context, db *gorm.DB, in *I) (O, error)
}

// Register 在当前 EZ 下注册动作接口（传入 *gorm.DB）
func Register[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		run := func(tx *gorm.DB) (O, error) { return a.Handler(c, tx, &in) }
		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := run(tx)
				out = o
				return e
			})
		} else {
			out, err = run(db.WithContext(c))
		}
		if err != nil {
			WriteErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
