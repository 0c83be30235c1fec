package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/internal/pkg/jwt"
	"github.com/qs3c/wpr_server/internal/pkg/response"
)

const (
	ClaimsKey = "platformClaims"
)

// Auth 校验托管平台签发的 Bearer 令牌
// 浏览器建立 WebSocket 时无法带请求头，允许用 ?token= 传递
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.AuthError(c, "Missing or malformed authorization")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, secret)
		if err != nil {
			response.AuthError(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth 有令牌时解析，没有也放行
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := jwt.ParseToken(tokenString, secret); err == nil {
				c.Set(ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// GetClaims 从上下文获取平台身份
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}
