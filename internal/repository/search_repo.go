package repository

import (
	"context"

	"SanctionsSync/internal/model"

	"gorm.io/gorm"
)

// EntityNames 单个实体参与模糊比对的全部名称（主名称在前，别名按入库顺序在后）
type EntityNames struct {
	UID   string
	Names []string
}

// SearchRepository 筛查侧只读仓储：名称装载、精确命中、结构化过滤与详情回填
type SearchRepository interface {
	// LoadAllNames 装载全库名称集，uid顺序与主表一致，供内存模糊比对
	LoadAllNames(ctx context.Context, includeAliases bool) ([]EntityNames, error)
	// ExactNameUIDs 名称精确命中（大小写不敏感）的uid集合
	ExactNameUIDs(ctx context.Context, name string, includeAliases bool) (map[string]struct{}, error)
	// UIDsWithFeatureLike 特征类型与取值双模糊匹配的uid集合
	UIDsWithFeatureLike(ctx context.Context, typePattern, valuePattern string) (map[string]struct{}, error)
	// UIDsWithIdentifierLike 证件号模糊匹配的uid集合
	UIDsWithIdentifierLike(ctx context.Context, numberPattern string) (map[string]struct{}, error)
	// GetEntityDetail 按uid取实体及全部子表
	GetEntityDetail(ctx context.Context, uid string) (*model.Entity, error)
}

type searchRepository struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

// LoadAllNames 装载全库名称集。一次性读两张表在内存分组，避免逐实体N+1查询
func (r *searchRepository) LoadAllNames(ctx context.Context, includeAliases bool) ([]EntityNames, error) {
	type nameRow struct {
		UID         string
		PrimaryName *string
	}
	var rows []nameRow
	if err := r.db.WithContext(ctx).Model(&model.Entity{}).
		Select("uid, primary_name").
		Order("uid ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]EntityNames, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		en := EntityNames{UID: row.UID}
		if row.PrimaryName != nil && *row.PrimaryName != "" {
			en.Names = append(en.Names, *row.PrimaryName)
		}
		index[row.UID] = len(result)
		result = append(result, en)
	}

	if includeAliases {
		var aliases []model.Alias
		if err := r.db.WithContext(ctx).
			Select("entity_uid, name").
			Order("id ASC").
			Find(&aliases).Error; err != nil {
			return nil, err
		}
		for _, alias := range aliases {
			if i, ok := index[alias.EntityUID]; ok && alias.Name != "" {
				result[i].Names = append(result[i].Names, alias.Name)
			}
		}
	}
	return result, nil
}

// ExactNameUIDs 主名称命中，可选并入别名命中
func (r *searchRepository) ExactNameUIDs(ctx context.Context, name string, includeAliases bool) (map[string]struct{}, error) {
	uids := make(map[string]struct{})

	var primary []string
	if err := r.db.WithContext(ctx).Model(&model.Entity{}).
		Where("LOWER(primary_name) = LOWER(?)", name).
		Pluck("uid", &primary).Error; err != nil {
		return nil, err
	}
	for _, uid := range primary {
		uids[uid] = struct{}{}
	}

	if includeAliases {
		var byAlias []string
		if err := r.db.WithContext(ctx).Model(&model.Alias{}).
			Where("LOWER(name) = LOWER(?)", name).
			Distinct().
			Pluck("entity_uid", &byAlias).Error; err != nil {
			return nil, err
		}
		for _, uid := range byAlias {
			uids[uid] = struct{}{}
		}
	}
	return uids, nil
}

func (r *searchRepository) UIDsWithFeatureLike(ctx context.Context, typePattern, valuePattern string) (map[string]struct{}, error) {
	var uids []string
	if err := r.db.WithContext(ctx).Model(&model.Feature{}).
		Where("type LIKE ? AND value LIKE ?", typePattern, valuePattern).
		Distinct().
		Pluck("entity_uid", &uids).Error; err != nil {
		return nil, err
	}
	return toSet(uids), nil
}

func (r *searchRepository) UIDsWithIdentifierLike(ctx context.Context, numberPattern string) (map[string]struct{}, error) {
	var uids []string
	if err := r.db.WithContext(ctx).Model(&model.Identifier{}).
		Where("doc_number LIKE ?", numberPattern).
		Distinct().
		Pluck("entity_uid", &uids).Error; err != nil {
		return nil, err
	}
	return toSet(uids), nil
}

// GetEntityDetail 按uid取实体及全部子表
func (r *searchRepository) GetEntityDetail(ctx context.Context, uid string) (*model.Entity, error) {
	var entity model.Entity
	if err := r.preloadAll(r.db.WithContext(ctx)).
		Where("uid = ?", uid).
		First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *searchRepository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Aliases").
		Preload("Addresses").
		Preload("Programs").
		Preload("Identifiers").
		Preload("Features")
}

func toSet(uids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return set
}
