package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"stock_screener/core"
	"stock_screener/models"
	"stock_screener/pkg/config"
)

const (
	MaxMessageLength = 4096 // Telegram单条消息最大长度
)

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var GlobalTelegramClient *TelegramClient

// 获取中国时区
func getChinaLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		logrus.Warnf("无法加载中国时区，使用UTC: %v", err)
		return time.UTC
	}
	return loc
}

func formatTime(t time.Time) string {
	return t.In(getChinaLocation()).Format("2006-01-02 15:04:05")
}

// InitTelegram 初始化Telegram客户端，未配置token时跳过
func InitTelegram() error {
	if config.GlobalConfig.TelegramBotToken == "" {
		logrus.Warn("未配置Telegram Bot Token，跳过Telegram初始化")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(config.GlobalConfig.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("创建Telegram Bot失败: %v", err)
	}

	bot.Debug = false

	chatID, err := strconv.ParseInt(config.GlobalConfig.TelegramChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat ID格式错误: %v", err)
	}

	GlobalTelegramClient = &TelegramClient{
		bot:    bot,
		chatID: chatID,
	}

	go GlobalTelegramClient.startCommandListener()

	logrus.Info("Telegram客户端初始化成功")
	return nil
}

// SendMessage 发送普通消息
func (t *TelegramClient) SendMessage(text string) error {
	if t == nil || t.bot == nil {
		return fmt.Errorf("telegram客户端未初始化")
	}

	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength]
	}

	msg := tgbotapi.NewMessage(t.chatID, text)

	_, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("发送消息失败: %v", err)
	}

	return nil
}

// SendError 发送错误通知
func (t *TelegramClient) SendError(operation string, err error) error {
	message := fmt.Sprintf("%s\n\n错误详情: %v", operation, err)

	return t.SendMessage(message)
}

// SendServiceStatus 发送服务状态通知
func (t *TelegramClient) SendServiceStatus(status, message string) error {
	statusMap := map[string]string{
		"starting": "启动中",
		"started":  "已启动",
		"stopping": "停止中",
		"stopped":  "已停止",
		"error":    "错误",
	}

	statusText, exists := statusMap[status]
	if !exists {
		statusText = "信息"
	}

	text := fmt.Sprintf(`%s

%s

时间: %s`, statusText, message, formatTime(time.Now()))

	return t.SendMessage(text)
}

// SendConfigUpdate 配置变更通知
func (t *TelegramClient) SendConfigUpdate(update core.ConfigUpdate) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("筛选项配置已更新，类型: %s，共 %d 项\n", update.Type, len(update.Config)))
	for i := range update.Config {
		f := update.Config[i]
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", f.Label, f.Key))
	}
	sb.WriteString(fmt.Sprintf("\n时间: %s", formatTime(time.Now())))
	return t.SendMessage(sb.String())
}

// startCommandListener 启动命令监听
func (t *TelegramClient) startCommandListener() {
	if t == nil || t.bot == nil {
		logrus.Error("Telegram客户端未初始化，无法启动命令监听")
		return
	}

	logrus.Info("启动Telegram命令监听...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		// 只处理指定聊天的消息
		if update.Message.Chat.ID != t.chatID {
			continue
		}
		if update.Message.IsCommand() {
			t.handleCommand(update.Message)
		}
	}
}

// handleCommand 处理命令
func (t *TelegramClient) handleCommand(message *tgbotapi.Message) {
	command := message.Command()

	logrus.WithFields(logrus.Fields{
		"command": command,
		"user":    message.From.UserName,
	}).Info("收到Telegram命令")

	switch command {
	case "fields": // 查看当前筛选项配置
		t.handleFieldsCommand()
	case "start", "help":
		t.SendMessage("可用命令:\n/fields - 查看当前筛选项配置")
	default:
		t.SendMessage(fmt.Sprintf("未知命令: /%s", command))
	}
}

// handleFieldsCommand 列出两种类型的当前筛选项
func (t *TelegramClient) handleFieldsCommand() {
	var sb strings.Builder
	for _, filterType := range []string{models.FilterTypeFundamental, models.FilterTypeFS} {
		fields := core.GlobalRegistry.Fields(filterType)
		sb.WriteString(fmt.Sprintf("类型 %s（%d 项）:\n", filterType, len(fields)))
		if len(fields) == 0 {
			sb.WriteString("  (空)\n")
		}
		for i := range fields {
			sb.WriteString(fmt.Sprintf("  %s (%s)\n", fields[i].Label, fields[i].Key))
		}
	}
	t.SendMessage(sb.String())
}
