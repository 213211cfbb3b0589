package database

import (
	"encoding/json"
	"time"

	"stock_screener/models"
)

// FilterConfigHistory 筛选项配置变更历史
type FilterConfigHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FilterType string    `gorm:"size:16;index" json:"type"`
	Config     string    `gorm:"type:text" json:"config"` // JSON序列化的字段列表
	Operator   string    `gorm:"size:64" json:"operator"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SaveFilterConfigHistory 记录一次配置保存，MySQL未启用时不做任何事
func SaveFilterConfigHistory(filterType string, fields []models.FilterField, operator string) error {
	if DB == nil {
		return nil
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	record := FilterConfigHistory{
		FilterType: filterType,
		Config:     string(data),
		Operator:   operator,
	}
	return DB.Create(&record).Error
}

// ListFilterConfigHistory 查询某类型最近的配置变更记录
func ListFilterConfigHistory(filterType string, limit int) ([]FilterConfigHistory, error) {
	if DB == nil {
		return []FilterConfigHistory{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var records []FilterConfigHistory
	err := DB.Where("filter_type = ?", filterType).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
