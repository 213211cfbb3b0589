package core

import (
	"encoding/json"
	"strconv"
	"strings"

	"stock_screener/models"
)

// metricValue 取指标值并转为 float64，不存在或无法解析时 ok 为 false
func metricValue(record models.StockRecord, name string) (float64, bool) {
	raw, exists := record[name]
	if !exists || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// FilterByMetrics 按指标范围筛选股票。条件格式 {指标名: [min, max]}，
// nil 边界表示该侧无界；指标缺失或非数字的记录一律剔除。
// 长度不为 2 的区间跳过不参与筛选。
func FilterByMetrics(records []models.StockRecord, filter models.MetricsFilter) []models.StockRecord {
	if len(records) == 0 || len(filter) == 0 {
		return records
	}

	filtered := make([]models.StockRecord, 0, len(records))
	for i := range records {
		record := records[i]
		matchesAll := true

		for metric, bounds := range filter {
			if len(bounds) != 2 {
				continue
			}

			value, ok := metricValue(record, metric)
			if !ok {
				matchesAll = false
				break
			}
			if bounds[0] != nil && value < *bounds[0] {
				matchesAll = false
				break
			}
			if bounds[1] != nil && value > *bounds[1] {
				matchesAll = false
				break
			}
		}

		if matchesAll {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
