package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"stock_screener/core"
	"stock_screener/models"
	"stock_screener/pkg/config"
	"stock_screener/pkg/database"
	"stock_screener/pkg/lixinger"
	"stock_screener/pkg/redis"
	"stock_screener/pkg/telegram"
	"stock_screener/pkg/websocket"
	"stock_screener/servers"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("启动股票筛选服务...")

	// 加载配置
	config.LoadConfig()

	// 初始化Redis
	if err := redis.InitRedis(); err != nil {
		if telegram.GlobalTelegramClient != nil {
			telegram.GlobalTelegramClient.SendServiceStatus("error", fmt.Sprintf("Redis初始化失败\n错误: %v\n服务即将停止", err))
		}
		logrus.Fatalf("Redis init fail: %v", err)
	}

	// 初始化MySQL（可选，用于配置变更历史）
	if err := database.InitMySQL(config.GlobalConfig); err != nil {
		logrus.Errorf("MySQL init fail: %v", err)
	}

	// 初始化Telegram客户端
	if err := telegram.InitTelegram(); err != nil {
		logrus.Errorf("Telegram init fail: %v", err)
	}

	// 初始化配置注册表并从Redis装入已保存的配置
	registry := core.InitRegistry()
	for _, filterType := range []string{models.FilterTypeFundamental, models.FilterTypeFS} {
		fields, err := redis.GlobalRedisClient.GetFilterConfig(filterType)
		if err != nil {
			logrus.Errorf("读取筛选项配置失败，类型 %s: %v", filterType, err)
			continue
		}
		registry.Seed(filterType, fields)
		logrus.Infof("已装入筛选项配置，类型: %s，共 %d 项", filterType, len(fields))
	}

	// 初始化理杏仁客户端
	lixingerClient := lixinger.NewClient()
	if config.GlobalConfig.LixingerToken == "" {
		logrus.Warn("未配置理杏仁API token，上游请求将失败")
	}

	// 启动WebSocket管理器并桥接配置变更通知
	websocket.InitializeGlobalWebSocketManager()
	updates := registry.Subscribe()
	go func() {
		for update := range updates {
			websocket.GlobalWebSocketManager.BroadcastFilterConfig(update)
			if telegram.GlobalTelegramClient != nil {
				if err := telegram.GlobalTelegramClient.SendConfigUpdate(update); err != nil {
					logrus.Warnf("发送配置变更通知失败: %v", err)
				}
			}
		}
	}()

	// 创建HTTP服务器
	server := servers.NewHTTPServer(lixingerClient)
	go func() {
		server.Start()
	}()

	if telegram.GlobalTelegramClient != nil {
		telegram.GlobalTelegramClient.SendServiceStatus("started", "股票筛选服务已启动")
	}
	logrus.Info("股票筛选服务启动完成!")

	// 优雅关闭
	gracefulShutdown(registry, updates)
}

// gracefulShutdown 优雅关闭
func gracefulShutdown(registry *core.ConfigRegistry, updates chan core.ConfigUpdate) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("正在关闭股票筛选服务...")

	// 停止HTTP服务器 (当前实现没有优雅关闭，直接退出)
	logrus.Info("HTTP服务器将随程序退出关闭")

	// 停止配置变更通知
	registry.Unsubscribe(updates)

	// 发送服务完全停止的Telegram通知
	if telegram.GlobalTelegramClient != nil {
		if err := telegram.GlobalTelegramClient.SendServiceStatus("stopped", "股票筛选服务已关闭"); err != nil {
			logrus.Errorf("发送关闭完成通知失败: %v", err)
		}
	}

	logrus.Info("股票筛选服务已关闭")
}
