package apis

import (
	"github.com/gin-gonic/gin"

	"stock_screener/controllers"
	"stock_screener/pkg/lixinger"
	"stock_screener/pkg/middleware"
	"stock_screener/pkg/websocket"
)

func SetupRoutes(r *gin.Engine, lixingerClient *lixinger.Client) {
	// 创建控制器实例
	stockController := controllers.NewStockController(lixingerClient)
	filterConfigController := &controllers.FilterConfigController{}
	authController := &controllers.AuthController{}

	// 初始化WebSocket管理器
	wsManager := websocket.GetGlobalWebSocketManager()

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Stock Screener API is running",
		})
	})

	// 添加认证中间件
	r.Use(middleware.AuthMiddleware())

	// WebSocket路由（配置变更推送）
	r.GET("/ws", wsManager.HandleWebSocket)

	// 筛选接口：stockCodes / metricsFilter / filterConfig 三种形态
	r.POST("/api/filter", stockController.Filter)

	// 筛选项配置
	r.GET("/api/filter-config", filterConfigController.GetFilterConfig)
	r.POST("/api/filter-config", filterConfigController.SaveFilterConfig)

	// 港股代码名称列表
	r.GET("/api/stocks", stockController.Stocks)

	// 认证路由
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authController.Login) // 用户登录
	}

	// API版本组（需要认证的管理接口）
	v1 := r.Group("/api/v1")
	{
		user := v1.Group("/user")
		{
			user.GET("/profile", authController.GetProfile) // 获取用户信息
		}

		// 配置变更历史
		v1.GET("/filter-config/history", filterConfigController.History)

		// WebSocket连接统计
		v1.GET("/ws/stats", wsManager.GetStats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "API endpoint not found"})
	})
}
