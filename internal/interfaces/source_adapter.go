package interfaces

import (
	"context"

	"SanctionsSync/internal/config"
	"SanctionsSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceAdapter 所有来源清单必须实现的核心接口
type SourceAdapter interface {
	GetName() string                                 // 来源名称
	Source() model.SourceList                        // 来源枚举
	Parse(doc []byte) ([]*model.ParsedEntity, error) // 解析原始XML文档为规范化实体
}

// Factory 适配器工厂函数，供注册表按来源名构建适配器
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) SourceAdapter

// EntityRepository 登记库通用写接口
type EntityRepository interface {
	UpsertEntities(ctx context.Context, entities []*model.ParsedEntity, source model.SourceList) error
	ClearAll(ctx context.Context) error
}
