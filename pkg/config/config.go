package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 服务配置
	LogLevel string
	Port     string

	// 理杏仁API配置
	LixingerToken          string // open.lixinger.com 开放平台token
	LixingerCompanyURL     string // 港股公司列表接口
	LixingerFundamentalURL string // 港股非金融基本面接口

	// 缓存配置
	FundamentalCacheExpireDays int // 基本面数据缓存天数

	// 批量请求配置
	BatchSize         int           // 每批股票代码数量
	MaxWorkers        int           // 批量请求最大并发数
	MaxRetries        int           // 单次请求最大重试次数
	InitialRetryDelay time.Duration // 首次重试等待，之后指数退避

	// 认证配置
	AdminUsername string // 管理员用户名
	AdminPassword string // 管理员密码
	JWTSecret     string // JWT密钥

	// Telegram通知配置（可选）
	TelegramBotToken string
	TelegramChatID   string

	// MySQL配置（可选，用于配置变更历史）
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string
}

var GlobalConfig *Config

func LoadConfig() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		logrus.Warn("未找到.env文件，使用环境变量")
	}

	GlobalConfig = &Config{
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("PORT", "8001"),

		LixingerToken:          getEnv("LIXINGER_TOKEN", ""),
		LixingerCompanyURL:     getEnv("LIXINGER_COMPANY_URL", "https://open.lixinger.com/api/hk/company"),
		LixingerFundamentalURL: getEnv("LIXINGER_FUNDAMENTAL_URL", "https://open.lixinger.com/api/hk/company/fundamental/non_financial"),

		FundamentalCacheExpireDays: getEnvInt("FUNDAMENTAL_CACHE_EXPIRE_DAYS", 3),

		BatchSize:         getEnvInt("BATCH_SIZE", 100),
		MaxWorkers:        getEnvInt("MAX_WORKERS", 10),
		MaxRetries:        getEnvInt("MAX_RETRIES", 5),
		InitialRetryDelay: getEnvDuration("INITIAL_RETRY_DELAY", "10s"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", "a1c9e2f7b3d8465a9c0e1f2a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		MySQLHost:     getEnv("MYSQL_HOST", ""),
		MySQLPort:     getEnv("MYSQL_PORT", "3306"),
		MySQLUser:     getEnv("MYSQL_USER", "root"),
		MySQLPassword: getEnv("MYSQL_PASSWORD", ""),
		MySQLDB:       getEnv("MYSQL_DB", "stock_screener"),
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(GlobalConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.Info("配置加载完成")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("无法解析环境变量 %s 的时间间隔值: %s，使用默认值: %s", key, value, defaultValue)
	}

	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}

	logrus.Errorf("无法解析默认时间间隔值: %s，使用10秒", defaultValue)
	return 10 * time.Second
}
