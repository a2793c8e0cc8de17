package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"SanctionsSync/internal/fuzzy"
	"SanctionsSync/internal/model"
	"SanctionsSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNoCriteria 未提供任何检索条件（调用方应映射为400而非500）
var ErrNoCriteria = errors.New("至少需要提供一个检索条件（姓名/出生日期/国籍/证件号）")

// MaxResults 单次筛查返回上限
const MaxResults = 50

// SearchParams 筛查请求参数
type SearchParams struct {
	Name           string // 姓名（模糊或精确）
	Exact          bool   // 精确匹配模式（大小写不敏感等值）
	Threshold      int    // 模糊分数阈值，<=0时取默认值
	ExcludeAliases bool   // 名称比对只看主名称
	DOB            string // 出生日期过滤（子串）
	Nationality    string // 国籍过滤（子串）
	GovID          string // 证件号过滤（子串）
}

// HasCriteria 至少有一个维度的条件
func (p *SearchParams) HasCriteria() bool {
	return p.Name != "" || p.DOB != "" || p.Nationality != "" || p.GovID != ""
}

// SearchResult 单条筛查命中（完整实体档案 + 命中信息）
type SearchResult struct {
	UID         string           `json:"uid"`
	PrimaryName string           `json:"primary_name"`
	Type        model.EntityType `json:"type"`
	Source      model.SourceList `json:"source"`
	Score       int              `json:"score"`
	MatchedOn   string           `json:"matched_on,omitempty"`
	Aliases     []AliasView      `json:"aliases"`
	Addresses   []string         `json:"addresses"`
	Programs    []string         `json:"programs"`
	Identifiers []IdentifierView `json:"identifiers"`
	Features    []FeatureView    `json:"additional_info"`
}

type AliasView struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Script string `json:"script,omitempty"`
}

type IdentifierView struct {
	DocType   string `json:"doc_type"`
	DocNumber string `json:"doc_number"`
	Country   string `json:"country,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

type FeatureView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type SearchService struct {
	logger *logrus.Logger
	repo   repository.SearchRepository
}

func NewSearchService(db *gorm.DB, logger *logrus.Logger) *SearchService {
	return &SearchService{
		logger: logger,
		repo:   repository.NewSearchRepository(db),
	}
}

// rankedHit 名称检索阶段的中间命中（保持排序语义，过滤阶段只收窄不重排）
type rankedHit struct {
	uid       string
	score     int
	matchedOn string
}

// Search 执行筛查：名称检索定序，结构化过滤收窄，最后回填完整档案
func (s *SearchService) Search(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	if !params.HasCriteria() {
		return nil, ErrNoCriteria
	}

	var ranked []rankedHit
	if params.Name != "" {
		var err error
		ranked, err = s.searchByName(ctx, params)
		if err != nil {
			return nil, err
		}
		// 名称无命中即整体无命中，结构化过滤不充当兜底
		if len(ranked) == 0 {
			return []SearchResult{}, nil
		}
	}

	filterSet, filtered, err := s.applyFilters(ctx, params)
	if err != nil {
		return nil, err
	}

	if ranked == nil {
		// 纯结构化检索：uid升序保证结果稳定
		uids := make([]string, 0, len(filterSet))
		for uid := range filterSet {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		for _, uid := range uids {
			ranked = append(ranked, rankedHit{uid: uid})
		}
	} else if filtered {
		narrowed := ranked[:0]
		for _, hit := range ranked {
			if _, ok := filterSet[hit.uid]; ok {
				narrowed = append(narrowed, hit)
			}
		}
		ranked = narrowed
	}

	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}
	return s.enrich(ctx, ranked)
}

// searchByName 名称检索。精确模式走SQL等值，模糊模式全量装载后逐实体取最优名
func (s *SearchService) searchByName(ctx context.Context, params SearchParams) ([]rankedHit, error) {
	if params.Exact {
		uids, err := s.repo.ExactNameUIDs(ctx, params.Name, !params.ExcludeAliases)
		if err != nil {
			return nil, fmt.Errorf("精确名称检索失败: %w", err)
		}
		sorted := make([]string, 0, len(uids))
		for uid := range uids {
			sorted = append(sorted, uid)
		}
		sort.Strings(sorted)
		hits := make([]rankedHit, 0, len(sorted))
		for _, uid := range sorted {
			hits = append(hits, rankedHit{uid: uid, score: 100, matchedOn: params.Name})
		}
		return hits, nil
	}

	threshold := params.Threshold
	if threshold <= 0 {
		threshold = fuzzy.DefaultThreshold
	}

	allNames, err := s.repo.LoadAllNames(ctx, !params.ExcludeAliases)
	if err != nil {
		return nil, fmt.Errorf("装载名称集失败: %w", err)
	}

	var hits []rankedHit
	for _, en := range allNames {
		score, matched := fuzzy.BestMatch(params.Name, en.Names)
		if score >= threshold {
			hits = append(hits, rankedHit{uid: en.UID, score: score, matchedOn: matched})
		}
	}
	// 分数降序；同分保持装载顺序（稳定排序）
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	s.logger.Infof("模糊检索\"%s\"（阈值%d）：%d/%d个实体命中", params.Name, threshold, len(hits), len(allNames))
	return hits, nil
}

// applyFilters 结构化过滤，多条件按交集（AND）合并
func (s *SearchService) applyFilters(ctx context.Context, params SearchParams) (map[string]struct{}, bool, error) {
	var combined map[string]struct{}
	applied := false

	merge := func(set map[string]struct{}) {
		if !applied {
			combined = set
			applied = true
			return
		}
		for uid := range combined {
			if _, ok := set[uid]; !ok {
				delete(combined, uid)
			}
		}
	}

	if params.DOB != "" {
		set, err := s.repo.UIDsWithFeatureLike(ctx, "%Date of Birth%", "%"+params.DOB+"%")
		if err != nil {
			return nil, false, fmt.Errorf("出生日期过滤失败: %w", err)
		}
		merge(set)
	}
	if params.Nationality != "" {
		set, err := s.repo.UIDsWithFeatureLike(ctx, "%Nationality%", "%"+params.Nationality+"%")
		if err != nil {
			return nil, false, fmt.Errorf("国籍过滤失败: %w", err)
		}
		merge(set)
	}
	if params.GovID != "" {
		set, err := s.repo.UIDsWithIdentifierLike(ctx, "%"+params.GovID+"%")
		if err != nil {
			return nil, false, fmt.Errorf("证件号过滤失败: %w", err)
		}
		merge(set)
	}
	return combined, applied, nil
}

// enrich 按命中顺序回填完整实体档案
func (s *SearchService) enrich(ctx context.Context, hits []rankedHit) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		entity, err := s.repo.GetEntityDetail(ctx, hit.uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warnf("命中实体%s已不存在，跳过", hit.uid)
				continue
			}
			return nil, fmt.Errorf("回填实体%s失败: %w", hit.uid, err)
		}
		results = append(results, buildResult(entity, hit.score, hit.matchedOn))
	}
	return results, nil
}

func buildResult(entity *model.Entity, score int, matchedOn string) SearchResult {
	result := SearchResult{
		UID:         entity.UID,
		Type:        entity.Type,
		Source:      entity.SourceList,
		Score:       score,
		MatchedOn:   matchedOn,
		Aliases:     make([]AliasView, 0, len(entity.Aliases)),
		Addresses:   make([]string, 0, len(entity.Addresses)),
		Programs:    make([]string, 0, len(entity.Programs)),
		Identifiers: make([]IdentifierView, 0, len(entity.Identifiers)),
		Features:    make([]FeatureView, 0, len(entity.Features)),
	}
	if entity.PrimaryName != nil {
		result.PrimaryName = *entity.PrimaryName
	}
	for _, alias := range entity.Aliases {
		result.Aliases = append(result.Aliases, AliasView{Name: alias.Name, Type: alias.Type, Script: alias.Script})
	}
	for _, addr := range entity.Addresses {
		result.Addresses = append(result.Addresses, addr.FullText)
	}
	for _, program := range entity.Programs {
		result.Programs = append(result.Programs, program.Program)
	}
	for _, ident := range entity.Identifiers {
		result.Identifiers = append(result.Identifiers, IdentifierView{
			DocType:   ident.DocType,
			DocNumber: ident.DocNumber,
			Country:   ident.IssuingCountry,
			Comment:   ident.Comment,
		})
	}
	for _, feat := range entity.Features {
		result.Features = append(result.Features, FeatureView{Type: feat.Type, Value: feat.Value})
	}
	return result
}
