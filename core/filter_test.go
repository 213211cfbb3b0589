package core

import (
	"testing"

	"stock_screener/models"
)

func fptr(v float64) *float64 { return &v }

func TestFilterByMetricsRange(t *testing.T) {
	records := []models.StockRecord{
		{"stockCode": "00001", "pe_ttm": 10.0},
		{"stockCode": "00002", "pe_ttm": 20.0},
		{"stockCode": "00003", "pe_ttm": 30.0},
	}

	filter := models.MetricsFilter{"pe_ttm": {fptr(10), fptr(20)}}
	got := FilterByMetrics(records, filter)

	if len(got) != 2 {
		t.Fatalf("筛选结果数量错误: 期望 2, 实际 %d", len(got))
	}
	if got[0].StockCode() != "00001" || got[1].StockCode() != "00002" {
		t.Errorf("筛选结果错误: %v", got)
	}
}

func TestFilterByMetricsOpenBounds(t *testing.T) {
	records := []models.StockRecord{
		{"stockCode": "00001", "pb": 0.5},
		{"stockCode": "00002", "pb": 2.5},
	}

	// 只有上界
	got := FilterByMetrics(records, models.MetricsFilter{"pb": {nil, fptr(1)}})
	if len(got) != 1 || got[0].StockCode() != "00001" {
		t.Errorf("上界筛选错误: %v", got)
	}

	// 只有下界
	got = FilterByMetrics(records, models.MetricsFilter{"pb": {fptr(2), nil}})
	if len(got) != 1 || got[0].StockCode() != "00002" {
		t.Errorf("下界筛选错误: %v", got)
	}
}

func TestFilterByMetricsMissingMetric(t *testing.T) {
	records := []models.StockRecord{
		{"stockCode": "00001", "dyr": 4.0},
		{"stockCode": "00002"},                // 指标缺失
		{"stockCode": "00003", "dyr": "none"}, // 非数字
	}

	got := FilterByMetrics(records, models.MetricsFilter{"dyr": {fptr(0), nil}})
	if len(got) != 1 || got[0].StockCode() != "00001" {
		t.Errorf("缺失指标的记录应被剔除: %v", got)
	}
}

func TestFilterByMetricsMalformedBounds(t *testing.T) {
	records := []models.StockRecord{
		{"stockCode": "00001", "pe_ttm": 100.0},
	}

	// 区间长度不为 2 时该条件跳过
	got := FilterByMetrics(records, models.MetricsFilter{"pe_ttm": {fptr(0)}})
	if len(got) != 1 {
		t.Errorf("畸形区间应跳过不参与筛选, 实际结果数 %d", len(got))
	}
}

func TestFilterByMetricsMultipleConditions(t *testing.T) {
	records := []models.StockRecord{
		{"stockCode": "00001", "pe_ttm": 10.0, "pb": 1.0},
		{"stockCode": "00002", "pe_ttm": 10.0, "pb": 5.0},
	}

	filter := models.MetricsFilter{
		"pe_ttm": {fptr(5), fptr(15)},
		"pb":     {nil, fptr(2)},
	}
	got := FilterByMetrics(records, filter)
	if len(got) != 1 || got[0].StockCode() != "00001" {
		t.Errorf("多条件筛选需全部满足: %v", got)
	}
}

func TestFilterByMetricsEmptyFilter(t *testing.T) {
	records := []models.StockRecord{{"stockCode": "00001"}}
	got := FilterByMetrics(records, models.MetricsFilter{})
	if len(got) != 1 {
		t.Error("空筛选条件应返回全部记录")
	}
}
