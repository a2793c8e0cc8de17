package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SanctionsSync/internal/adapter"
	"SanctionsSync/internal/config"
	"SanctionsSync/internal/interfaces"
	"SanctionsSync/internal/model"
	"SanctionsSync/internal/repository"
	"SanctionsSync/internal/utils/download"

	// 各来源适配器在init中向注册表登记工厂函数
	_ "SanctionsSync/internal/adapter/eu"
	_ "SanctionsSync/internal/adapter/ofac"
	_ "SanctionsSync/internal/adapter/uk"
	_ "SanctionsSync/internal/adapter/un"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	cfg     *config.Config
	repo    interfaces.EntityRepository
	fetcher *download.Fetcher
}

func NewSyncService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *SyncService {
	return &SyncService{
		db:      db,
		logger:  logger,
		cfg:     cfg,
		repo:    repository.NewEntityRepository(db, logger, cfg.Sync.BatchSize),
		fetcher: download.NewFetcher(cfg.Sync.CacheDir, logger),
	}
}

// SourceResult 单来源摄取结果
type SourceResult struct {
	Source  string `json:"source"`
	Parsed  int    `json:"parsed"`  // 解析出的实体数
	Stored  int    `json:"stored"`  // 通过入库闸口的实体数
	Skipped bool   `json:"skipped"` // 获取失败整体跳过
	Error   string `json:"error,omitempty"`
}

// RunSummary 一次全量同步的汇总
type RunSummary struct {
	RunUUID string         `json:"run_uuid"`
	Status  string         `json:"status"`
	Sources []SourceResult `json:"sources"`
}

// SyncSource 同步单个来源清单（下载->解析->规范化->入库）
func (s *SyncService) SyncSource(ctx context.Context, sourceName string) (*SourceResult, error) {
	sourceName = strings.ToLower(strings.TrimSpace(sourceName))

	factory, ok := adapter.GetFactory(sourceName)
	if !ok {
		return nil, fmt.Errorf("未支持的来源: %s（已注册: %v）", sourceName, adapter.ListFactories())
	}
	srcCfg, ok := s.cfg.Sources[sourceName]
	if !ok {
		return nil, fmt.Errorf("未获取到来源配置: %s", sourceName)
	}

	ad := factory(&srcCfg, s.logger)
	result := &SourceResult{Source: ad.GetName()}

	doc, err := s.fetcher.Fetch(ctx, ad.GetName(), &srcCfg)
	if err != nil {
		result.Skipped = true
		result.Error = err.Error()
		return result, fmt.Errorf("%s获取清单失败: %w", ad.GetName(), err)
	}

	parsed, err := ad.Parse(doc)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("%s解析失败: %w", ad.GetName(), err)
	}
	result.Parsed = len(parsed)

	entities := model.PrepareForStore(parsed, ad.Source(), s.logger)
	result.Stored = len(entities)

	if err := s.repo.UpsertEntities(ctx, entities, ad.Source()); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("%s入库失败: %w", ad.GetName(), err)
	}

	s.logger.Infof("%s同步完成，解析%d个实体，入库%d个", ad.GetName(), result.Parsed, result.Stored)
	return result, nil
}

// SyncAll 全量重载：清空登记库后按固定顺序逐来源摄取，并记录批次
// 单来源失败记录后继续下一来源；数据库连接丢失则中止整轮
func (s *SyncService) SyncAll(ctx context.Context) (*RunSummary, error) {
	run := &model.SourceRun{
		RunUUID:   uuid.NewString(),
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("创建批次记录失败: %w", err)
	}
	summary := &RunSummary{RunUUID: run.RunUUID, Status: "finished"}

	if err := s.repo.ClearAll(ctx); err != nil {
		summary.Status = "failed"
		s.finishRun(run, summary)
		return summary, fmt.Errorf("全量重载前清库失败: %w", err)
	}

	var fatal error
	for _, sourceName := range s.cfg.Sync.SourceOrder {
		result, err := s.SyncSource(ctx, sourceName)
		if result == nil {
			result = &SourceResult{Source: sourceName, Skipped: true, Error: err.Error()}
		}
		summary.Sources = append(summary.Sources, *result)

		if err != nil {
			if repository.IsConnectionLost(err) {
				fatal = err
				break
			}
			s.logger.Errorf("来源%s同步失败，继续下一来源: %v", sourceName, err)
		}
	}

	if fatal != nil {
		summary.Status = "failed"
		s.finishRun(run, summary)
		return summary, fmt.Errorf("同步中止: %w", fatal)
	}
	s.finishRun(run, summary)
	s.logger.Infof("全量同步完成，批次%s，共%d个来源", run.RunUUID, len(summary.Sources))
	return summary, nil
}

func (s *SyncService) finishRun(run *model.SourceRun, summary *RunSummary) {
	now := time.Now()
	run.Status = summary.Status
	run.FinishedAt = &now
	if stats, err := json.Marshal(summary.Sources); err == nil {
		run.Stats = datatypes.JSON(stats)
	}
	if err := s.db.Save(run).Error; err != nil {
		s.logger.Errorf("更新批次记录%s失败: %v", run.RunUUID, err)
	}
}
