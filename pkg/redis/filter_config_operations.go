package redis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stock_screener/models"
)

// SetFilterConfig 持久化一种类型的筛选项配置，永不过期
func (c *Client) SetFilterConfig(filterType string, fields []models.FilterField) error {
	if c == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s:%s", KeyFilterConfig, filterType)
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.Set(key, data, 0).Err()
}

// GetFilterConfig 读取一种类型的筛选项配置，尚未保存过时返回空列表
func (c *Client) GetFilterConfig(filterType string) ([]models.FilterField, error) {
	if c == nil {
		return []models.FilterField{}, nil
	}

	key := fmt.Sprintf("%s:%s", KeyFilterConfig, filterType)
	data, err := c.Get(key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.FilterField{}, nil
		}
		return nil, err
	}

	var fields []models.FilterField
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
