package screenerapi

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"stock_screener/models"
)

func TestFilterByCodesSendsRequest(t *testing.T) {
	var gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"total":1,"data":[{"stockCode":"00700"}]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	metrics := models.MetricsList{Fundamental: []string{"pe_ttm", "pb"}}
	body, err := c.FilterByCodes([]string{"00700"}, metrics, "2026-08-21")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}

	if gotPath != "/api/filter" {
		t.Errorf("请求路径错误: %s", gotPath)
	}
	if got := gjson.GetBytes(gotBody, "metricsList.fundamental.#").Int(); got != 2 {
		t.Errorf("metricsList 内容错误: %s", gotBody)
	}
	if got := gjson.GetBytes(gotBody, "date").String(); got != "2026-08-21" {
		t.Errorf("date 字段错误: %s", got)
	}
	if !strings.Contains(body, "00700") {
		t.Errorf("应返回原始响应体: %s", body)
	}
}

func TestFilterByCodesErrorField(t *testing.T) {
	// 2xx但响应体带 error 字段也视为失败
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"metricsList 必须是非空数组"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.FilterByCodes(nil, models.MetricsList{Fundamental: []string{"pb"}}, "")
	if err == nil {
		t.Fatal("响应体带 error 字段时应失败")
	}
	if !strings.Contains(err.Error(), "metricsList") {
		t.Errorf("错误信息应取自响应体: %v", err)
	}
}

func TestFilterByCodesNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		fmt.Fprint(w, `{"error":"内部错误"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.FilterByCodes([]string{"00700"}, models.MetricsList{}, ""); err == nil {
		t.Fatal("非2xx响应应失败")
	}
}

func TestSaveFilterConfig(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"success":true,"message":"配置已保存"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetAuthToken("test-jwt")
	fields := []models.FilterField{
		{Key: "pe_ttm", Label: "市盈率", MinID: "pe_ttmMin", MaxID: "pe_ttmMax"},
	}
	if err := c.SaveFilterConfig(fields, models.FilterTypeFundamental); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	if gotPath != "/api/filter-config" {
		t.Errorf("请求路径错误: %s", gotPath)
	}
	if gotAuth != "Bearer test-jwt" {
		t.Errorf("应携带认证头: %q", gotAuth)
	}
	if got := gjson.GetBytes(gotBody, "type").String(); got != "fundamental" {
		t.Errorf("type 字段错误: %s", got)
	}
	if got := gjson.GetBytes(gotBody, "filterConfig.0.minId").String(); got != "pe_ttmMin" {
		t.Errorf("filterConfig 内容错误: %s", gotBody)
	}
}

func TestTypedBackendPlacesKeysByType(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/stocks" {
			fmt.Fprint(w, `{"total":1,"data":[{"stockCode":"00700","stockName":"腾讯控股"}]}`)
			return
		}
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	// 基本面类型的 key 放入 fundamental 分组
	if _, err := c.ForType(models.FilterTypeFundamental).TestFilterKeys([]string{"pe_ttm"}, "2026-08-21"); err != nil {
		t.Fatalf("测试请求失败: %v", err)
	}
	if got := gjson.GetBytes(gotBody, "metricsList.fundamental.0").String(); got != "pe_ttm" {
		t.Errorf("基本面 key 放置错误: %s", gotBody)
	}
	// 校验请求必须携带非空的样本股票代码
	if got := gjson.GetBytes(gotBody, "stockCodes.0").String(); got != "00700" {
		t.Errorf("校验请求应携带样本股票代码: %s", gotBody)
	}

	// 财报类型的 key 放入 fs 分组
	if _, err := c.ForType(models.FilterTypeFS).TestFilterKeys([]string{"revenue"}, "2026-08-21"); err != nil {
		t.Fatalf("测试请求失败: %v", err)
	}
	if got := gjson.GetBytes(gotBody, "metricsList.fs.0").String(); got != "revenue" {
		t.Errorf("财报 key 放置错误: %s", gotBody)
	}
}

func TestTypedBackendLimitsSampleCodes(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/stocks" {
			fmt.Fprint(w, `{"total":5,"data":[
				{"stockCode":"00001"},{"stockCode":"00002"},{"stockCode":"00003"},
				{"stockCode":"00004"},{"stockCode":"00005"}
			]}`)
			return
		}
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.ForType(models.FilterTypeFundamental).TestFilterKeys([]string{"pb"}, ""); err != nil {
		t.Fatalf("测试请求失败: %v", err)
	}

	if got := gjson.GetBytes(gotBody, "stockCodes.#").Int(); got != testSampleSize {
		t.Errorf("样本股票代码数量错误: 期望 %d, 实际 %d", testSampleSize, got)
	}
}

func TestTypedBackendNoStocksAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.ForType(models.FilterTypeFundamental).TestFilterKeys([]string{"pb"}, ""); err == nil {
		t.Fatal("没有可用股票代码时应失败")
	}
}
