package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "jobboard/internal/transport/http/response"
)

// HasCompanyFunc 判断用户是否已完成公司入驻
type HasCompanyFunc func(c *gin.Context, userID string) (bool, error)

// EnsureOnboarded 公司作用域路由的前置闸：没入驻的用户直接挡回，
// 避免每个 handler 重复判 no-company
func EnsureOnboarded(has HasCompanyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(KeyUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		ok, err := has(c, uid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, ""))
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeNeedsCompany, ""))
			return
		}
		c.Next()
	}
}
