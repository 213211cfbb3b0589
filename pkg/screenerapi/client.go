// Package screenerapi 筛选服务自身HTTP接口的客户端，供配置编辑器调用。
package screenerapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"stock_screener/models"
)

const defaultTimeout = 60 * time.Second

// 校验请求携带的样本股票代码数量
const testSampleSize = 3

type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
}

// NewClient 创建客户端，baseURL 形如 http://localhost:8001
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetAuthToken 设置写操作所需的JWT
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// FilterByCodes 按股票代码与指标列表请求筛选数据，返回原始响应体。
// 非2xx或响应体带 error 字段都视为失败，错误信息取响应体文本。
func (c *Client) FilterByCodes(stockCodes []string, metrics models.MetricsList, date string) (string, error) {
	body, err := c.post("/api/filter", map[string]interface{}{
		"stockCodes":  stockCodes,
		"metricsList": metrics,
		"date":        date,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Stocks 获取服务端的港股代码名称列表
func (c *Client) Stocks() ([]models.StockInfo, error) {
	body, err := c.get("/api/stocks")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []models.StockInfo `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析股票列表失败: %v", err)
	}
	return resp.Data, nil
}

// SaveFilterConfig 保存一种类型的筛选项配置
func (c *Client) SaveFilterConfig(fields []models.FilterField, filterType string) error {
	_, err := c.post("/api/filter-config", map[string]interface{}{
		"filterConfig": fields,
		"type":         filterType,
	})
	return err
}

// ForType 返回绑定了筛选类型的编辑器后端适配器
func (c *Client) ForType(filterType string) *TypedBackend {
	return &TypedBackend{client: c, filterType: filterType}
}

// TypedBackend 把编辑器的 key 集合请求转成对应类型的 metricsList 请求
type TypedBackend struct {
	client     *Client
	filterType string
}

// TestFilterKeys 用 key 集合发起一次校验性的筛选请求。
// 筛选接口要求非空的 stockCodes，因此先取少量样本股票代码。
func (b *TypedBackend) TestFilterKeys(keys []string, date string) (string, error) {
	stocks, err := b.client.Stocks()
	if err != nil {
		return "", fmt.Errorf("获取样本股票代码失败: %v", err)
	}
	if len(stocks) == 0 {
		return "", errors.New("没有可用的股票代码")
	}
	if len(stocks) > testSampleSize {
		stocks = stocks[:testSampleSize]
	}
	codes := make([]string, len(stocks))
	for i := range stocks {
		codes[i] = stocks[i].StockCode
	}

	var metrics models.MetricsList
	switch b.filterType {
	case models.FilterTypeFS:
		metrics.FS = keys
	default:
		metrics.Fundamental = keys
	}
	return b.client.FilterByCodes(codes, metrics, date)
}

// SaveFilterConfig 持久化整组筛选项配置
func (b *TypedBackend) SaveFilterConfig(fields []models.FilterField, filterType string) error {
	return b.client.SaveFilterConfig(fields, filterType)
}

func (c *Client) post(path string, payload map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("请求失败 (%d): %s", resp.StatusCode, responseErrorText(body))
	}
	// 部分错误也可能带2xx返回，响应体中有 error 字段同样视为失败
	if gjson.GetBytes(body, "error").Exists() {
		return nil, fmt.Errorf("请求失败: %s", responseErrorText(body))
	}
	return body, nil
}

func responseErrorText(body []byte) string {
	if v := gjson.GetBytes(body, "error"); v.Exists() && v.String() != "" {
		return v.String()
	}
	return string(body)
}
