package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard/internal/core/auth"
	"jobboard/internal/identity"
	"jobboard/internal/policy"
	resp "jobboard/internal/transport/http/response"
)

const KeyUserID = "userId"
const keyActor = "actor"

// AuthJWT 只认 uid。角色/权限一律回库查，token 不作为授权来源
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Next()
	}
}

// WithActor 每个请求加载一次操作者快照（权限 + 公司关联），
// 挂在 AuthJWT 之后
func WithActor(store *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(KeyUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		actor, err := store.LoadActor(c.Request.Context(), uid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, ""))
			return
		}
		c.Set(keyActor, actor)
		c.Next()
	}
}

// Actor 取出 WithActor 放入的快照；未挂中间件时返回 nil
func Actor(c *gin.Context) *policy.Actor {
	v, ok := c.Get(keyActor)
	if !ok {
		return nil
	}
	a, _ := v.(*policy.Actor)
	return a
}
