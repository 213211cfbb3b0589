package core

import (
	"encoding/json"
	"strconv"
	"strings"

	"stock_screener/models"
)

// 指标候选字段名，按优先级排列：先可读名称，再旧版扁平 key
var (
	peTtmCandidates = []string{"PE-TTM", "pe_ttm"}
	pbCandidates    = []string{"PB", "pb"}
	dyrCandidates   = []string{"股息率", "DYR", "dyr"}
)

// RatingField 评分写入的字段名
const RatingField = "rating"

// 评分阈值
const (
	peTtmGoodMax = 15
	peTtmFairMax = 25
	pbGoodMax    = 2
	pbFairMax    = 3
	dyrGoodMin   = 3
)

// ResolveMetric 按候选名顺序取第一个存在且可解析为数字的指标值，取不到返回 0
func ResolveMetric(record models.StockRecord, candidates []string) float64 {
	for _, name := range candidates {
		raw, ok := record[name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// RateStock 计算单只股票的质量评分，范围 -10 ~ +30
func RateStock(record models.StockRecord) int {
	peTtm := ResolveMetric(record, peTtmCandidates)
	pb := ResolveMetric(record, pbCandidates)
	dyr := ResolveMetric(record, dyrCandidates)

	rating := 0

	switch {
	case peTtm > 0 && peTtm <= peTtmGoodMax:
		rating += 10
	case peTtm > peTtmGoodMax && peTtm <= peTtmFairMax:
		rating += 5
	case peTtm > peTtmFairMax:
		rating -= 5
	}

	switch {
	case pb > 0 && pb <= pbGoodMax:
		rating += 10
	case pb > pbGoodMax && pb <= pbFairMax:
		rating += 5
	case pb > pbFairMax:
		rating -= 5
	}

	switch {
	case dyr >= dyrGoodMin:
		rating += 10
	case dyr > 0:
		rating += 5
	}

	return rating
}

// AttachRatings 为每条记录写入 rating 字段，不改动其他字段
func AttachRatings(records []models.StockRecord) {
	for i := range records {
		records[i][RatingField] = RateStock(records[i])
	}
}
