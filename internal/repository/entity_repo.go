package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SanctionsSync/internal/interfaces"
	"SanctionsSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lostConnMarkers 驱动层连接断开的错误特征，命中即判定本轮同步不可续作
var lostConnMarkers = []string{
	"closed the connection",
	"connection already closed",
	"no connection",
}

// IsConnectionLost 判断错误是否为数据库连接丢失（不可重试，应终止整轮同步）
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range lostConnMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

type EntityRepository struct {
	db        *gorm.DB
	logger    *logrus.Logger
	batchSize int
}

func NewEntityRepository(db *gorm.DB, logger *logrus.Logger, batchSize int) interfaces.EntityRepository {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &EntityRepository{db: db, logger: logger, batchSize: batchSize}
}

// UpsertEntities 分批事务入库：主表按uid冲突更新，子表冲突忽略
// 任一批次失败只回滚该批并继续下一批，保证单条坏数据不拖垮整个来源
func (r *EntityRepository) UpsertEntities(ctx context.Context, entities []*model.ParsedEntity, source model.SourceList) error {
	total := len(entities)
	if total == 0 {
		r.logger.Warnf("%s: 无实体可入库", source)
		return nil
	}

	var stored, failedBatches int
	for start := 0; start < total; start += r.batchSize {
		end := start + r.batchSize
		if end > total {
			end = total
		}
		batch := entities[start:end]

		if err := r.upsertBatch(ctx, batch); err != nil {
			if IsConnectionLost(err) {
				return fmt.Errorf("%s: 数据库连接丢失，同步中止: %w", source, err)
			}
			failedBatches++
			r.logger.Errorf("%s: 批次[%d:%d]入库失败已回滚: %v", source, start, end, err)
			continue
		}
		stored += len(batch)
		r.logger.Infof("%s: 已入库%d/%d个实体", source, stored, total)
	}

	if failedBatches > 0 {
		return fmt.Errorf("%s: %d个批次入库失败（其余已提交）", source, failedBatches)
	}
	return nil
}

func (r *EntityRepository) upsertBatch(ctx context.Context, batch []*model.ParsedEntity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, parsed := range batch {
			if err := upsertOne(tx, parsed); err != nil {
				return fmt.Errorf("实体%s: %w", parsed.UID, err)
			}
		}
		return nil
	})
}

func upsertOne(tx *gorm.DB, parsed *model.ParsedEntity) error {
	var primaryName *string
	if name := strings.TrimSpace(parsed.PrimaryName); name != "" {
		primaryName = &name
	}
	entity := model.Entity{
		UID:         parsed.UID,
		PrimaryName: primaryName,
		Type:        parsed.Type,
		SourceList:  parsed.Source,
		UpdatedAt:   time.Now(),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"primary_name", "type", "source", "updated_at"}),
	}).Create(&entity).Error; err != nil {
		return fmt.Errorf("保存主表失败: %w", err)
	}

	// gorm会话不可跨Create复用，冲突子句每次新建
	ignore := clause.OnConflict{DoNothing: true}

	for _, alias := range parsed.Aliases {
		row := model.Alias{EntityUID: parsed.UID, Name: alias.Name, Type: alias.Type, Script: alias.Script}
		if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
			return fmt.Errorf("保存别名失败: %w", err)
		}
	}
	for _, addr := range parsed.Addresses {
		row := model.Address{
			EntityUID:  parsed.UID,
			Street:     addr.Street,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			FullText:   addr.FullText,
			Region:     addr.Region,
			Place:      addr.Place,
			POBox:      addr.POBox,
		}
		if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
			return fmt.Errorf("保存地址失败: %w", err)
		}
	}
	for _, program := range parsed.Programs {
		row := model.Program{EntityUID: parsed.UID, Program: program}
		if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
			return fmt.Errorf("保存制裁计划失败: %w", err)
		}
	}
	for _, ident := range parsed.Identifiers {
		row := model.Identifier{
			EntityUID:      parsed.UID,
			DocType:        ident.DocType,
			DocNumber:      ident.DocNumber,
			IssuingCountry: ident.IssuingCountry,
			Comment:        ident.Comment,
		}
		if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
			return fmt.Errorf("保存证件失败: %w", err)
		}
	}
	for _, feat := range parsed.Features {
		row := model.Feature{EntityUID: parsed.UID, Type: feat.Type, Value: feat.Value}
		if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
			return fmt.Errorf("保存特征失败: %w", err)
		}
	}
	return nil
}

// ClearAll 清空登记库全部数据并复位自增序列（全量重载前调用）
func (r *EntityRepository) ClearAll(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	// postgres用TRUNCATE级联清空并复位序列，sqlite逐表删除后清sqlite_sequence
	if r.db.Dialector.Name() == "postgres" {
		tables := []string{
			(model.Alias{}).TableName(),
			(model.Address{}).TableName(),
			(model.Program{}).TableName(),
			(model.Identifier{}).TableName(),
			(model.Feature{}).TableName(),
			(model.Entity{}).TableName(),
		}
		quoted := make([]string, len(tables))
		for i, t := range tables {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("清空登记库失败: %w", err)
		}
		r.logger.Info("登记库已清空（TRUNCATE）")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.Alias{}, &model.Address{}, &model.Program{},
			&model.Identifier{}, &model.Feature{}, &model.Entity{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("清空子表失败: %w", err)
			}
		}
		// sqlite 自增计数挂在 sqlite_sequence，表不存在时忽略
		tx.Exec("DELETE FROM sqlite_sequence")
		r.logger.Info("登记库已清空")
		return nil
	})
}
