package models

import "encoding/json"

// StockRecord 单只股票的指标数据。上游返回的字段集合不固定，
// 历史上存在两种形态：扁平 key（pe_ttm、pb、dyr）和可读名称（"PE-TTM"、"股息率"），
// 因此用 map 承载，消费方按候选名逐个探测。
type StockRecord map[string]interface{}

// StockCode 股票代码，缺失时返回空串
func (r StockRecord) StockCode() string {
	if v, ok := r["stockCode"].(string); ok {
		return v
	}
	return ""
}

// StockName 股票名称，缺失时返回空串
func (r StockRecord) StockName() string {
	if v, ok := r["stockName"].(string); ok {
		return v
	}
	return ""
}

// SetStockName 覆盖股票名称
func (r StockRecord) SetStockName(name string) {
	r["stockName"] = name
}

// StockInfo 股票基础信息（代码+名称）
type StockInfo struct {
	StockCode string `json:"stockCode"`
	StockName string `json:"stockName"`
}

// MetricsList 请求的指标列表。浏览器端按基本面/财报分组发送对象形态，
// 旧版接口发送扁平数组，两种形态都接受。
type MetricsList struct {
	Fundamental []string `json:"fundamental"`
	FS          []string `json:"fs"`
}

// UnmarshalJSON 兼容 ["pe_ttm","pb"] 与 {"fundamental":[...],"fs":[...]} 两种形态
func (m *MetricsList) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		m.Fundamental = flat
		m.FS = nil
		return nil
	}

	type alias MetricsList
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = MetricsList(obj)
	return nil
}

// All 合并基本面与财报指标
func (m MetricsList) All() []string {
	out := make([]string, 0, len(m.Fundamental)+len(m.FS))
	out = append(out, m.Fundamental...)
	out = append(out, m.FS...)
	return out
}

// Empty 没有任何指标
func (m MetricsList) Empty() bool {
	return len(m.Fundamental) == 0 && len(m.FS) == 0
}

// MetricsFilter 筛选条件：指标名 -> [min, max]，nil 表示该侧无界
type MetricsFilter map[string][]*float64

// MetricNames 筛选条件涉及的指标名列表
func (f MetricsFilter) MetricNames() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return names
}
