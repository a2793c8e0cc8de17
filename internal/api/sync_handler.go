package api

import (
	"fmt"
	"net/http"

	"SanctionsSync/internal/config"
	"SanctionsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SyncHandler struct {
	syncService *service.SyncService
	logger      *logrus.Logger
}

func NewSyncHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		syncService: service.NewSyncService(db, logger, cfg),
		logger:      logger,
	}
}

// SyncSourceHandler 同步指定来源清单
// @Summary 摄取单个来源清单（增量合并，不清库）
// @Param source path string true "来源名称（ofac/un/eu/uk）"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /sync/source/{source} [post]
func (h *SyncHandler) SyncSourceHandler(c *gin.Context) {
	sourceName := c.Param("source")

	result, err := h.syncService.SyncSource(c.Request.Context(), sourceName)
	if err != nil {
		h.logger.Errorf("同步%s失败: %v", sourceName, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s同步成功", result.Source),
		"result":  result,
	})
}

// SyncAllHandler 全量重载：清空登记库后按固定顺序摄取全部来源
// @Summary 全量同步所有来源清单
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /sync/all [post]
func (h *SyncHandler) SyncAllHandler(c *gin.Context) {
	summary, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Errorf("全量同步失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"summary": summary,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "全量同步完成",
		"summary": summary,
	})
}
