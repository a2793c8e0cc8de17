package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"SanctionsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SearchHandler struct {
	searchService *service.SearchService
	exportService *service.ExportService
	logger        *logrus.Logger
}

func NewSearchHandler(db *gorm.DB, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: service.NewSearchService(db, logger),
		exportService: service.NewExportService(db, logger),
		logger:        logger,
	}
}

// parseSearchParams 筛查与导出共用同一套查询参数
func parseSearchParams(c *gin.Context) (service.SearchParams, error) {
	params := service.SearchParams{
		Name:           c.Query("name"),
		Exact:          c.Query("exact") == "true",
		ExcludeAliases: c.Query("exclude_aliases") == "true",
		DOB:            c.Query("dob"),
		Nationality:    c.Query("nationality"),
		GovID:          c.Query("gov_id"),
	}
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 0 || threshold > 100 {
			return params, fmt.Errorf("无效的阈值: %s（应为0-100整数）", raw)
		}
		params.Threshold = threshold
	}
	return params, nil
}

// SearchHandler 筛查登记库
// @Summary 按姓名/出生日期/国籍/证件号筛查制裁实体
// @Param name query string false "姓名"
// @Param exact query bool false "精确匹配模式"
// @Param threshold query int false "模糊分数阈值（默认80）"
// @Param exclude_aliases query bool false "只比对主名称"
// @Param dob query string false "出生日期（子串）"
// @Param nationality query string false "国籍（子串）"
// @Param gov_id query string false "证件号（子串）"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/search [get]
func (h *SearchHandler) SearchHandler(c *gin.Context) {
	params, err := parseSearchParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrNoCriteria) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Errorf("筛查失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}

// ExportHandler 筛查结果导出CSV（与/api/search同参数同语义）
// @Summary 按相同筛查条件导出命中实体为CSV
// @Produce text/csv
// @Success 200
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/export [get]
func (h *SearchHandler) ExportHandler(c *gin.Context) {
	params, err := parseSearchParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// 条件校验先于响应头写出，保证缺条件时还能回JSON错误
	if !params.HasCriteria() {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNoCriteria.Error()})
		return
	}

	filename := fmt.Sprintf("sanctions_export_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := h.exportService.ExportCSV(c.Request.Context(), params, c.Writer); err != nil {
		// 列头可能已写出，此处只能记日志并中断
		h.logger.Errorf("导出失败: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}
