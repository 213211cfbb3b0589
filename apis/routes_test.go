package apis

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"stock_screener/core"
	"stock_screener/models"
	"stock_screener/pkg/config"
	"stock_screener/pkg/lixinger"
	"stock_screener/pkg/screenerapi"
)

// newUpstream 模拟理杏仁接口：公司列表 + 按请求代码回显的基本面数据
func newUpstream(t *testing.T, fundamentalCodes *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company":
			fmt.Fprint(w, `{"total":5,"data":[
				{"stockCode":"00001","name":"长和"},
				{"stockCode":"00002","name":"中电控股"},
				{"stockCode":"00003","name":"煤气公司"},
				{"stockCode":"00004","name":"九龙仓"},
				{"stockCode":"00700","name":"腾讯控股"}
			]}`)
		case "/fundamental":
			body, _ := io.ReadAll(r.Body)
			codes := gjson.GetBytes(body, "stockCodes").Array()
			atomic.StoreInt64(fundamentalCodes, int64(len(codes)))

			var sb strings.Builder
			sb.WriteString(`{"data":[`)
			for i, code := range codes {
				if i > 0 {
					sb.WriteString(",")
				}
				fmt.Fprintf(&sb, `{"stockCode":%q,"pe_ttm":10,"pb":1,"dyr":4}`, code.String())
			}
			sb.WriteString(`]}`)
			fmt.Fprint(w, sb.String())
		default:
			w.WriteHeader(404)
		}
	}))
}

// 编辑器的测试操作经由自身API客户端打到真实路由，全链路应成功
func TestEditorTestAgainstRealRoutes(t *testing.T) {
	var fundamentalCodes int64
	upstream := newUpstream(t, &fundamentalCodes)
	defer upstream.Close()

	config.GlobalConfig = &config.Config{
		LogLevel:                   "info",
		LixingerToken:              "test-token",
		LixingerCompanyURL:         upstream.URL + "/company",
		LixingerFundamentalURL:     upstream.URL + "/fundamental",
		FundamentalCacheExpireDays: 3,
		BatchSize:                  100,
		MaxWorkers:                 2,
		MaxRetries:                 2,
		InitialRetryDelay:          time.Millisecond,
		JWTSecret:                  "test-secret",
	}

	registry := core.InitRegistry()
	registry.Seed(models.FilterTypeFundamental, []models.FilterField{
		{Key: "pe_ttm", Label: "市盈率", MinID: "pe_ttmMin", MaxID: "pe_ttmMax"},
	})

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetupRoutes(engine, lixinger.NewClient())
	server := httptest.NewServer(engine)
	defer server.Close()

	client := screenerapi.NewClient(server.URL)
	editor := core.NewEditor(models.FilterTypeFundamental, client.ForType(models.FilterTypeFundamental), registry)

	body, err := editor.Test("2026-08-21")
	if err != nil {
		t.Fatalf("测试请求失败: %v", err)
	}

	if got := gjson.Get(body, "total").Int(); got == 0 {
		t.Errorf("应返回样本股票数据: %s", body)
	}
	if !gjson.Get(body, "data.0.rating").Exists() {
		t.Errorf("返回数据应附带评分字段: %s", body)
	}
	if gjson.Get(body, "data.0.stockName").String() == "" {
		t.Errorf("返回数据应附带股票名称: %s", body)
	}

	// 校验请求只取少量样本股票代码
	if got := atomic.LoadInt64(&fundamentalCodes); got == 0 || got > 3 {
		t.Errorf("样本股票代码数量错误: %d", got)
	}
}
