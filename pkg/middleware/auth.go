package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock_screener/pkg/auth"
)

// AuthMiddleware JWT认证中间件。
// 筛选查询与配置读取对外开放，配置写入和管理接口需要登录。
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		if !requiresAuth(path, method) {
			c.Next()
			return
		}

		// 从Authorization头获取token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "缺少Authorization头",
				"code":  "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		var tokenString string
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "无效的Authorization格式，应为 'Bearer <token>'",
				"code":  "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			logrus.Warnf("Token验证失败: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "无效的token",
				"code":  "INVALID_TOKEN",
			})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// requiresAuth 配置写入与 /api/v1 管理接口需要认证
func requiresAuth(path, method string) bool {
	if path == "/health" || path == "/api/v1/auth/login" {
		return false
	}
	if path == "/api/filter-config" && method == http.MethodPost {
		return true
	}
	if strings.HasPrefix(path, "/api/v1/") {
		return true
	}
	return false
}

// GetCurrentUser 从上下文中获取当前用户
func GetCurrentUser(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		return username.(string)
	}
	return ""
}
