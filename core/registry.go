package core

import (
	"sync"

	"github.com/sirupsen/logrus"

	"stock_screener/models"
)

// ConfigUpdate 配置变更通知，广播给页面其他组件
type ConfigUpdate struct {
	Config []models.FilterField `json:"config"`
	Type   string               `json:"type"`
}

// ConfigRegistry 进程内筛选项配置的唯一持有者。
// 读取返回副本；替换仅在保存成功后由控制器调用，并向订阅者发布变更。
type ConfigRegistry struct {
	mu     sync.RWMutex
	fields map[string][]models.FilterField

	subsMu sync.Mutex
	subs   map[chan ConfigUpdate]bool
}

var GlobalRegistry *ConfigRegistry

// InitRegistry 初始化全局配置注册表
func InitRegistry() *ConfigRegistry {
	GlobalRegistry = NewConfigRegistry()
	return GlobalRegistry
}

func NewConfigRegistry() *ConfigRegistry {
	return &ConfigRegistry{
		fields: make(map[string][]models.FilterField),
		subs:   make(map[chan ConfigUpdate]bool),
	}
}

// Fields 返回指定类型当前配置的副本
func (r *ConfigRegistry) Fields(filterType string) []models.FilterField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := r.fields[filterType]
	out := make([]models.FilterField, len(fields))
	copy(out, fields)
	return out
}

// Seed 启动时装入持久化配置，不触发通知
func (r *ConfigRegistry) Seed(filterType string, fields []models.FilterField) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]models.FilterField, len(fields))
	copy(stored, fields)
	r.fields[filterType] = stored
}

// Replace 整体替换一种类型的配置并通知订阅者
func (r *ConfigRegistry) Replace(filterType string, fields []models.FilterField) {
	stored := make([]models.FilterField, len(fields))
	copy(stored, fields)

	r.mu.Lock()
	r.fields[filterType] = stored
	r.mu.Unlock()

	update := ConfigUpdate{Config: r.Fields(filterType), Type: filterType}

	r.subsMu.Lock()
	for ch := range r.subs {
		select {
		case ch <- update:
		default:
			logrus.Warn("配置变更订阅者缓冲区已满，本次通知丢弃")
		}
	}
	r.subsMu.Unlock()
}

// Subscribe 订阅配置变更
func (r *ConfigRegistry) Subscribe() chan ConfigUpdate {
	ch := make(chan ConfigUpdate, 16)
	r.subsMu.Lock()
	r.subs[ch] = true
	r.subsMu.Unlock()
	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (r *ConfigRegistry) Unsubscribe(ch chan ConfigUpdate) {
	r.subsMu.Lock()
	if r.subs[ch] {
		delete(r.subs, ch)
		close(ch)
	}
	r.subsMu.Unlock()
}
