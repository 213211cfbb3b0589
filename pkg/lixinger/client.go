// Package lixinger 封装理杏仁开放平台接口，含 429 限流重试与分批并发拉取。
package lixinger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"stock_screener/models"
	"stock_screener/pkg/config"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpStatusTooMany  = 429
)

type Client struct {
	httpClient     *http.Client
	token          string
	companyURL     string
	fundamentalURL string

	maxRetries        int
	initialRetryDelay time.Duration
	batchSize         int
	maxWorkers        int
}

// NewClient 从全局配置创建客户端
func NewClient() *Client {
	cfg := config.GlobalConfig
	return &Client{
		httpClient:        &http.Client{Timeout: defaultHTTPTimeout},
		token:             cfg.LixingerToken,
		companyURL:        cfg.LixingerCompanyURL,
		fundamentalURL:    cfg.LixingerFundamentalURL,
		maxRetries:        cfg.MaxRetries,
		initialRetryDelay: cfg.InitialRetryDelay,
		batchSize:         cfg.BatchSize,
		maxWorkers:        cfg.MaxWorkers,
	}
}

// request 发送POST请求。429 按指数退避重试；
// 其他HTTP错误尝试取响应体中的 message/error/msg 字段拼入错误信息。
func (c *Client) request(url string, payload map[string]interface{}) ([]byte, error) {
	payload["token"] = c.token
	requestData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	retryDelay := c.initialRetryDelay
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}

		resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(requestData))
		if err != nil {
			lastErr = err
			logrus.Warnf("请求失败，重试中 (第%d次): %v", attempt+1, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == httpStatusTooMany {
			lastErr = fmt.Errorf("理杏仁API限流 (429)")
			logrus.Warnf("API限流 (429)，%s后重试 (第%d次)", retryDelay, attempt+1)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("理杏仁API错误: %s", upstreamErrorMessage(body, resp.StatusCode))
		}

		return body, nil
	}

	return nil, fmt.Errorf("理杏仁API请求失败: %v", lastErr)
}

// upstreamErrorMessage 理杏仁可能在 message、error 或 msg 字段返回错误说明
func upstreamErrorMessage(body []byte, statusCode int) string {
	for _, field := range []string{"message", "error", "msg"} {
		if v := gjson.GetBytes(body, field); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// FetchCompanies 获取所有港股公司的代码与名称
func (c *Client) FetchCompanies() ([]models.StockInfo, error) {
	body, err := c.request(c.companyURL, map[string]interface{}{
		"fsTableType": "non_financial",
	})
	if err != nil {
		return nil, err
	}

	total := gjson.GetBytes(body, "total").Int()
	logrus.Infof("请求到所有公司数据，公司数量: %d", total)

	companies := gjson.GetBytes(body, "data")
	if !companies.Exists() || !companies.IsArray() {
		return nil, fmt.Errorf("公司列表响应缺少 data 数组")
	}

	var stocks []models.StockInfo
	companies.ForEach(func(_, company gjson.Result) bool {
		code := company.Get("stockCode").String()
		if code == "" {
			return true
		}
		name := company.Get("name").String()
		if name == "" {
			name = company.Get("nameCn").String()
		}
		if name == "" {
			name = company.Get("stockName").String()
		}
		if name == "" {
			name = code
		}
		stocks = append(stocks, models.StockInfo{StockCode: code, StockName: name})
		return true
	})

	return stocks, nil
}

// FetchFundamentals 获取一组股票指定日期的基本面数据
func (c *Client) FetchFundamentals(stockCodes []string, metricsList []string, date string) ([]models.StockRecord, error) {
	body, err := c.request(c.fundamentalURL, map[string]interface{}{
		"stockCodes":  stockCodes,
		"metricsList": metricsList,
		"date":        date,
	})
	if err != nil {
		return nil, err
	}

	raw := gjson.GetBytes(body, "data")
	if !raw.Exists() {
		return []models.StockRecord{}, nil
	}

	var records []models.StockRecord
	if err := json.Unmarshal([]byte(raw.Raw), &records); err != nil {
		return nil, fmt.Errorf("解析基本面数据失败: %v", err)
	}
	return records, nil
}

// batchResult 单批请求结果
type batchResult struct {
	batchNum int
	records  []models.StockRecord
	missing  []string
	err      error
}

// BatchFetchFundamentals 按每批 batchSize 个股票代码并发拉取基本面数据，
// 结果按批次号合并保持顺序，并统计未返回数据的股票代码；
// 仅当所有批次都失败时返回错误。
func (c *Client) BatchFetchFundamentals(stockCodes []string, metricsList []string, date string) ([]models.StockRecord, []string, error) {
	if len(stockCodes) == 0 {
		return []models.StockRecord{}, nil, nil
	}

	batchSize := c.batchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	var batches [][]string
	for i := 0; i < len(stockCodes); i += batchSize {
		end := i + batchSize
		if end > len(stockCodes) {
			end = len(stockCodes)
		}
		batches = append(batches, stockCodes[i:end])
	}
	totalBatches := len(batches)
	logrus.Infof("开始并行批量获取基本面数据，共 %d 个股票，分 %d 批", len(stockCodes), totalBatches)

	workers := c.maxWorkers
	if workers <= 0 || workers > totalBatches {
		workers = totalBatches
	}

	jobs := make(chan int, totalBatches)
	results := make(chan batchResult, totalBatches)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchNum := range jobs {
				results <- c.fetchSingleBatch(batches[batchNum], batchNum, totalBatches, metricsList, date)
			}
		}()
	}

	for i := 0; i < totalBatches; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]batchResult, 0, totalBatches)
	failedBatches := 0
	for r := range results {
		if r.err != nil {
			failedBatches++
		}
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].batchNum < collected[j].batchNum })

	if failedBatches == totalBatches {
		return nil, nil, fmt.Errorf("所有批次请求都失败了")
	}
	if failedBatches > 0 {
		logrus.Warnf("有 %d/%d 批请求失败", failedBatches, totalBatches)
	}

	var allRecords []models.StockRecord
	var missingCodes []string
	for i := range collected {
		if collected[i].err != nil {
			continue
		}
		allRecords = append(allRecords, collected[i].records...)
		missingCodes = append(missingCodes, collected[i].missing...)
	}

	logrus.Infof("批量获取完成，共 %d 条基本面数据，缺失股票数量: %d", len(allRecords), len(missingCodes))
	return allRecords, missingCodes, nil
}

func (c *Client) fetchSingleBatch(batch []string, batchNum, totalBatches int, metricsList []string, date string) batchResult {
	logrus.Debugf("请求第 %d/%d 批，股票数量: %d", batchNum+1, totalBatches, len(batch))

	records, err := c.FetchFundamentals(batch, metricsList, date)
	if err != nil {
		logrus.Errorf("第 %d 批请求失败: %v", batchNum+1, err)
		return batchResult{batchNum: batchNum, err: err}
	}

	var missing []string
	if len(records) != len(batch) {
		received := make(map[string]bool, len(records))
		for i := range records {
			if code := records[i].StockCode(); code != "" {
				received[code] = true
			}
		}
		for _, code := range batch {
			if !received[code] {
				missing = append(missing, code)
			}
		}
	}

	return batchResult{batchNum: batchNum, records: records, missing: missing}
}
