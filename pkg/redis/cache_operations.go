package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"stock_screener/models"
	"stock_screener/pkg/config"
)

// 股票代码名称缓存当日有效
const stocksCacheExpiration = 24 * time.Hour

// fundamentalCacheEntry 按日期缓存的基本面数据，连同当时请求的指标列表
type fundamentalCacheEntry struct {
	Data        []models.StockRecord `json:"data"`
	MetricsList []string             `json:"metricsList"`
	SavedAt     string               `json:"savedAt"`
}

// SetFundamentalCache 按日期缓存基本面数据，过期天数取配置。
// Redis未初始化时缓存退化为不写不读。
func (c *Client) SetFundamentalCache(date string, records []models.StockRecord, metricsList []string) error {
	if c == nil {
		return nil
	}

	entry := fundamentalCacheEntry{
		Data:        records,
		MetricsList: metricsList,
		SavedAt:     time.Now().Format("2006-01-02 15:04:05"),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s:%s", CacheKeyFundamental, date)
	expiration := time.Duration(config.GlobalConfig.FundamentalCacheExpireDays) * 24 * time.Hour
	if err := c.Set(key, data, expiration).Err(); err != nil {
		return err
	}
	logrus.Infof("基本面数据已缓存，日期: %s, 指标: %v, 数据量: %d", date, metricsList, len(records))
	return nil
}

// GetFundamentalCache 读取指定日期的基本面缓存。
// 命中要求缓存的指标列表包含本次请求的全部指标，否则视为未命中返回 nil。
func (c *Client) GetFundamentalCache(date string, metricsList []string) ([]models.StockRecord, error) {
	if c == nil {
		return nil, nil
	}

	key := fmt.Sprintf("%s:%s", CacheKeyFundamental, date)
	data, err := c.Get(key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry fundamentalCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		logrus.Warnf("解析基本面缓存失败 %s: %v", key, err)
		return nil, nil
	}

	cached := make(map[string]bool, len(entry.MetricsList))
	for _, m := range entry.MetricsList {
		cached[m] = true
	}
	for _, m := range metricsList {
		if !cached[m] {
			logrus.Infof("基本面缓存指标不全，日期: %s, 缓存: %v, 请求: %v", date, entry.MetricsList, metricsList)
			return nil, nil
		}
	}

	return entry.Data, nil
}

// SetStocksCache 缓存当日的港股代码名称列表
func (c *Client) SetStocksCache(date string, stocks []models.StockInfo) error {
	if c == nil {
		return nil
	}

	key := fmt.Sprintf("%s:%s", CacheKeyStocks, date)
	data, err := json.Marshal(stocks)
	if err != nil {
		return err
	}
	return c.Set(key, data, stocksCacheExpiration).Err()
}

// GetStocksCache 读取指定日期的港股代码名称列表，未命中返回 nil
func (c *Client) GetStocksCache(date string) ([]models.StockInfo, error) {
	if c == nil {
		return nil, nil
	}

	key := fmt.Sprintf("%s:%s", CacheKeyStocks, date)
	data, err := c.Get(key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stocks []models.StockInfo
	if err := json.Unmarshal([]byte(data), &stocks); err != nil {
		logrus.Warnf("解析股票列表缓存失败 %s: %v", key, err)
		return nil, nil
	}
	return stocks, nil
}
