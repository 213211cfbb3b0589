package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock_screener/core"
	"stock_screener/models"
	"stock_screener/pkg/lixinger"
	"stock_screener/pkg/redis"
	"stock_screener/pkg/utils"
)

type StockController struct {
	lixinger *lixinger.Client
}

func NewStockController(client *lixinger.Client) *StockController {
	return &StockController{lixinger: client}
}

// FilterRequest POST /api/filter 的请求体。按字段区分三种用法：
// stockCodes 查指定股票基本面；metricsFilter 按区间筛选全部港股；
// filterConfig 保存筛选项配置。
type FilterRequest struct {
	StockCodes    []string             `json:"stockCodes"`
	MetricsList   *models.MetricsList  `json:"metricsList"`
	MetricsFilter models.MetricsFilter `json:"metricsFilter"`
	FilterConfig  []models.FilterField `json:"filterConfig"`
	Type          string               `json:"type"`
	Date          string               `json:"date"`
}

// Filter 统一的筛选入口
func (s *StockController) Filter(ctx *gin.Context) {
	var req FilterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式错误"})
		return
	}

	date := req.Date
	if date == "" {
		date = utils.CurrentDate()
	}

	switch {
	case req.StockCodes != nil:
		s.handleFundamentals(ctx, &req, date)
	case req.MetricsFilter != nil:
		s.handleMetricsFilter(ctx, &req, date)
	case req.FilterConfig != nil:
		saveFilterConfig(ctx, req.FilterConfig, req.Type)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "缺少必要参数：需要提供 stockCodes、metricsFilter 或 filterConfig",
		})
	}
}

// handleFundamentals 接口一：获取指定股票的基本面数据并计算评分
func (s *StockController) handleFundamentals(ctx *gin.Context, req *FilterRequest, date string) {
	if len(req.StockCodes) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "stockCodes 必须是非空数组"})
		return
	}
	if req.MetricsList == nil || req.MetricsList.Empty() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "metricsList 必须是非空数组"})
		return
	}

	metrics := req.MetricsList.All()
	logrus.Infof("获取指定股票基本面数据 - 股票数=%d, 指标=%v, 日期=%s", len(req.StockCodes), metrics, date)

	records, err := s.lixinger.FetchFundamentals(req.StockCodes, metrics, date)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.attachStockNames(records)
	core.AttachRatings(records)

	ctx.JSON(http.StatusOK, gin.H{
		"total": len(records),
		"data":  records,
	})
}

// handleMetricsFilter 接口二：按指标区间筛选全部港股
func (s *StockController) handleMetricsFilter(ctx *gin.Context, req *FilterRequest, date string) {
	// 需要的指标列表优先取 metricsList，否则从筛选条件的键提取
	var required []string
	if req.MetricsList != nil && !req.MetricsList.Empty() {
		required = req.MetricsList.All()
	} else {
		required = req.MetricsFilter.MetricNames()
	}
	if len(required) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "metricsFilter 不能为空，且 metricsList 未提供"})
		return
	}

	logrus.Infof("筛选股票 - 筛选条件=%v, 日期=%s", req.MetricsFilter, date)

	stocks, err := s.allStocks(date)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "获取股票代码失败: " + err.Error()})
		return
	}

	records, err := s.fundamentalsWithCache(stocks, required, date)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filtered := core.FilterByMetrics(records, req.MetricsFilter)
	s.attachStockNames(filtered)
	core.AttachRatings(filtered)

	logrus.Infof("筛选完成，原始数据量: %d, 筛选后数据量: %d", len(records), len(filtered))

	ctx.JSON(http.StatusOK, gin.H{
		"total": len(filtered),
		"data":  filtered,
	})
}

// Stocks GET /api/stocks 返回全部港股代码与名称
func (s *StockController) Stocks(ctx *gin.Context) {
	stocks, err := s.allStocks(utils.CurrentDate())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"total": len(stocks),
		"data":  stocks,
	})
}

// allStocks 当日股票列表，优先读缓存
func (s *StockController) allStocks(date string) ([]models.StockInfo, error) {
	if cached, err := redis.GlobalRedisClient.GetStocksCache(date); err == nil && cached != nil {
		logrus.Debug("使用缓存的港股股票信息数据")
		return cached, nil
	}

	stocks, err := s.lixinger.FetchCompanies()
	if err != nil {
		return nil, err
	}
	if err := redis.GlobalRedisClient.SetStocksCache(date, stocks); err != nil {
		logrus.Warnf("写入股票列表缓存失败: %v", err)
	}
	return stocks, nil
}

// fundamentalsWithCache 全市场基本面数据，缓存未命中时分批拉取后写回
func (s *StockController) fundamentalsWithCache(stocks []models.StockInfo, metrics []string, date string) ([]models.StockRecord, error) {
	if cached, err := redis.GlobalRedisClient.GetFundamentalCache(date, metrics); err == nil && cached != nil {
		logrus.Infof("使用缓存的基本面数据进行筛选，日期: %s, 指标: %v", date, metrics)
		return cached, nil
	}

	codes := make([]string, 0, len(stocks))
	for i := range stocks {
		codes = append(codes, stocks[i].StockCode)
	}

	logrus.Infof("缓存未命中，批量获取基本面数据，日期: %s, 指标: %v", date, metrics)
	records, missing, err := s.lixinger.BatchFetchFundamentals(codes, metrics, date)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		logrus.Warnf("有 %d 个股票未返回基本面数据", len(missing))
	}

	if len(records) > 0 {
		if err := redis.GlobalRedisClient.SetFundamentalCache(date, records, metrics); err != nil {
			logrus.Warnf("写入基本面缓存失败: %v", err)
		}
	}
	return records, nil
}

// attachStockNames 为每条记录补充股票名称，缺失时回退为代码
func (s *StockController) attachStockNames(records []models.StockRecord) {
	stocks, err := s.allStocks(utils.CurrentDate())
	if err != nil {
		logrus.Warnf("获取股票名称映射失败: %v", err)
		stocks = nil
	}

	nameByCode := make(map[string]string, len(stocks))
	for i := range stocks {
		nameByCode[stocks[i].StockCode] = stocks[i].StockName
	}

	for i := range records {
		code := records[i].StockCode()
		if name, ok := nameByCode[code]; ok && name != "" {
			records[i].SetStockName(name)
		} else if records[i].StockName() == "" {
			records[i].SetStockName(code)
		}
	}
}
