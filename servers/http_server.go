package servers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock_screener/apis"
	"stock_screener/pkg/config"
	"stock_screener/pkg/lixinger"
	"stock_screener/pkg/middleware"
)

type HTTPServer struct {
	engine         *gin.Engine
	port           string
	lixingerClient *lixinger.Client
}

// NewHTTPServer 创建HTTP服务器
func NewHTTPServer(lixingerClient *lixinger.Client) *HTTPServer {
	// 设置Gin模式
	if config.GlobalConfig.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.Use(middleware.Cors())

	// 设置路由
	apis.SetupRoutes(engine, lixingerClient)

	return &HTTPServer{
		engine:         engine,
		port:           config.GlobalConfig.Port,
		lixingerClient: lixingerClient,
	}
}

// Start 启动HTTP服务器
func (s *HTTPServer) Start() {
	addr := fmt.Sprintf(":%s", s.port)
	logrus.Infof("HTTP服务器启动在端口 %s", s.port)

	if err := s.engine.Run(addr); err != nil {
		logrus.Fatalf("HTTP服务器启动失败: %v", err)
	}
}
