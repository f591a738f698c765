package middleware

import (
	"net/http"
	"strings"

	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

// Auth 校验 Bearer 令牌，并将用户信息写入上下文
func Auth(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Success: false,
				Message: "请先登录",
			})
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Success: false,
				Message: "登录已失效，请重新登录",
				Error:   err.Error(),
			})
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// UserID 返回当前请求的用户ID，未登录时为空
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// CurrentClaims 返回当前请求的令牌声明
func CurrentClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
