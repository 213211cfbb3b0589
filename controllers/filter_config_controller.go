package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock_screener/core"
	"stock_screener/models"
	"stock_screener/pkg/database"
	"stock_screener/pkg/middleware"
	"stock_screener/pkg/redis"
)

type FilterConfigController struct{}

// SaveFilterConfigRequest POST /api/filter-config 的请求体
type SaveFilterConfigRequest struct {
	FilterConfig []models.FilterField `json:"filterConfig" binding:"required"`
	Type         string               `json:"type"`
}

// GetFilterConfig 获取一种类型的筛选项配置，type 不传时默认基本面
func (f *FilterConfigController) GetFilterConfig(ctx *gin.Context) {
	filterType := ctx.DefaultQuery("type", models.FilterTypeFundamental)
	if !models.ValidFilterType(filterType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "不支持的筛选类型: " + filterType})
		return
	}

	logrus.Debugf("获取用户筛选项配置，类型: %s", filterType)
	fields := core.GlobalRegistry.Fields(filterType)
	ctx.JSON(http.StatusOK, gin.H{"data": fields})
}

// SaveFilterConfig 保存一种类型的筛选项配置
func (f *FilterConfigController) SaveFilterConfig(ctx *gin.Context) {
	var req SaveFilterConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "filterConfig 必须是数组"})
		return
	}
	saveFilterConfig(ctx, req.FilterConfig, req.Type)
}

// History 查询某类型最近的配置变更记录
func (f *FilterConfigController) History(ctx *gin.Context) {
	filterType := ctx.DefaultQuery("type", models.FilterTypeFundamental)
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	records, err := database.ListFilterConfigHistory(filterType, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": records})
}

// saveFilterConfig 校验并持久化配置，成功后更新注册表并触发变更通知。
// POST /api/filter 的 filterConfig 形态与 POST /api/filter-config 共用此流程。
func saveFilterConfig(ctx *gin.Context, fields []models.FilterField, filterType string) {
	if filterType == "" {
		filterType = models.FilterTypeFundamental
	}
	if !models.ValidFilterType(filterType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "不支持的筛选类型: " + filterType})
		return
	}

	if err := models.ValidateFilterConfig(fields); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i := range fields {
		fields[i].FillIDs()
	}

	if err := redis.GlobalRedisClient.SetFilterConfig(filterType, fields); err != nil {
		logrus.Errorf("保存筛选项配置失败: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "保存配置失败: " + err.Error()})
		return
	}

	core.GlobalRegistry.Replace(filterType, fields)

	operator := middleware.GetCurrentUser(ctx)
	if err := database.SaveFilterConfigHistory(filterType, fields, operator); err != nil {
		logrus.Warnf("记录配置变更历史失败: %v", err)
	}

	logrus.Infof("筛选项配置已保存，类型: %s，共 %d 项", filterType, len(fields))
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "配置已保存"})
}
