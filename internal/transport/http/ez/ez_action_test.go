package ez

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/domain"
	resp "jobboard/internal/transport/http/response"
)

func newEngine(t *testing.T) (*gin.Engine, EZ, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	r := gin.New()
	g := r.Group("/")
	return r, New(g), db
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, resp.Resp) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestActionSuccessEnvelope(t *testing.T) {
	r, e, db := newEngine(t)
	type in struct {
		Name string `json:"name" binding:"required"`
	}
	Register(e, db, Action[in, gin.H]{
		Method: "POST", Path: "/echo", Binder: BindJSON,
		Handler: func(c *gin.Context, db *gorm.DB, i *in) (gin.H, error) {
			return gin.H{"name": i.Name}, nil
		},
	})

	w, out := do(r, http.MethodPost, "/echo", `{"name":"go"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.CodeOK, out.Code)
	assert.Equal(t, map[string]any{"name": "go"}, out.Data)
}

func TestActionBindFailure(t *testing.T) {
	r, e, db := newEngine(t)
	type in struct {
		Name string `json:"name" binding:"required"`
	}
	Register(e, db, Action[in, gin.H]{
		Method: "POST", Path: "/echo", Binder: BindJSON,
		Handler: func(c *gin.Context, db *gorm.DB, i *in) (gin.H, error) {
			return gin.H{}, nil
		},
	})

	w, out := do(r, http.MethodPost, "/echo", `{}`)
	assert.Equal(t, http.StatusOK, w.Code, "the envelope carries the code, HTTP stays 200")
	assert.Equal(t, resp.CodeBadRequest, out.Code)
}

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"denied is generic", domain.ErrDenied, resp.CodeForbidden, resp.CodeMsgMap[resp.CodeForbidden]},
		{"not found", domain.ErrNotFound, resp.CodeNotFound, resp.CodeMsgMap[resp.CodeNotFound]},
		{"gorm not found", gorm.ErrRecordNotFound, resp.CodeNotFound, resp.CodeMsgMap[resp.CodeNotFound]},
		{"conflict", domain.ErrConflict, resp.CodeConflict, resp.CodeMsgMap[resp.CodeConflict]},
		{"needs company", domain.ErrNoCompany, resp.CodeNeedsCompany, resp.CodeMsgMap[resp.CodeNeedsCompany]},
		{"protected entity names itself", domain.ProtectedRole("admin"), resp.CodeForbidden,
			domain.ProtectedRole("admin").Error()},
		{"unknown errors do not leak", assertableErr{}, resp.CodeServerError, resp.CodeMsgMap[resp.CodeServerError]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, e, db := newEngine(t)
			Register(e, db, Action[struct{}, gin.H]{
				Method: "GET", Path: "/boom", Binder: BindNone,
				Handler: func(c *gin.Context, db *gorm.DB, _ *struct{}) (gin.H, error) {
					return nil, tc.err
				},
			})
			_, out := do(r, http.MethodGet, "/boom", "")
			assert.Equal(t, tc.wantCode, out.Code)
			assert.Equal(t, tc.wantMsg, out.Msg)
		})
	}
}

type assertableErr struct{}

func (assertableErr) Error() string { return "secret database detail" }

func TestValidationErrorCarriesFields(t *testing.T) {
	r, e, db := newEngine(t)
	Register(e, db, Action[struct{}, gin.H]{
		Method: "POST", Path: "/validate", Binder: BindNone,
		Handler: func(c *gin.Context, db *gorm.DB, _ *struct{}) (gin.H, error) {
			v := domain.NewValidation()
			v.Add("title", "this field is required")
			return nil, v.OrNil()
		},
	})

	_, out := do(r, http.MethodPost, "/validate", "")
	assert.Equal(t, resp.CodeUnprocessable, out.Code)
	data, ok := out.Data.(map[string]any)
	require.True(t, ok)
	fields, ok := data["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "title")
}

func TestGETHelper(t *testing.T) {
	r, e, _ := newEngine(t)
	e.GET("/ping", func(c *gin.Context) (any, error) {
		return gin.H{"pong": true}, nil
	})
	w, out := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.CodeOK, out.Code)
}
