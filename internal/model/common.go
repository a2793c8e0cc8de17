package model

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// SourceList 来源清单枚举
type SourceList string

const (
	SourceOFAC SourceList = "OFAC"
	SourceUN   SourceList = "UN"
	SourceEU   SourceList = "EU"
	SourceUK   SourceList = "UK"
)

// EntityType 实体类型枚举
type EntityType string

const (
	TypeIndividual EntityType = "Individual"
	TypeEntity     EntityType = "Entity"
	TypeUnknown    EntityType = "Unknown"
)

// NormalizeEntityType 把来源侧的自由文本类型折叠到三值枚举
func NormalizeEntityType(raw string) EntityType {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case t == "":
		return TypeUnknown
	case strings.Contains(t, "individual") || strings.Contains(t, "person"):
		return TypeIndividual
	case strings.Contains(t, "entity") || strings.Contains(t, "enterprise") ||
		strings.Contains(t, "organisation") || strings.Contains(t, "organization") ||
		strings.Contains(t, "legal"):
		return TypeEntity
	default:
		return TypeUnknown
	}
}

// ParsedAlias 等子记录均为可比较的值结构体，直接作为去重map的键（全字段元组等值）
type ParsedAlias struct {
	Name   string
	Type   string
	Script string
}

type ParsedAddress struct {
	Street     string
	City       string
	Country    string
	PostalCode string
	FullText   string
	Region     string
	Place      string
	POBox      string
}

type ParsedIdentifier struct {
	DocType        string
	DocNumber      string
	IssuingCountry string
	Comment        string
}

type ParsedFeature struct {
	Type  string
	Value string
}

// ParsedEntity 各来源适配器的统一产出（规范化实体，入库前的内存形态）
// 可选字段以空串表示缺失
type ParsedEntity struct {
	UID         string
	PrimaryName string
	Type        EntityType
	Source      SourceList
	Aliases     []ParsedAlias
	Addresses   []ParsedAddress
	Identifiers []ParsedIdentifier
	Features    []ParsedFeature
	Programs    []string
}

// HasIdentity uid 与主名称至少存在其一才允许入库
func (e *ParsedEntity) HasIdentity() bool {
	return e.UID != "" || e.PrimaryName != ""
}

// EnsureUID 无自然ID时按 来源+截断净化后的主名称 确定性降级，保证重复摄取得到同一uid
func (e *ParsedEntity) EnsureUID() {
	if e.UID != "" {
		return
	}
	name := []rune(e.PrimaryName)
	if len(name) > 40 {
		name = name[:40]
	}
	r := strings.NewReplacer(" ", "_", "/", "_", ":", "_")
	e.UID = fmt.Sprintf("%s_NO_UID_%s", e.Source, r.Replace(string(name)))
}

// Dedup 子集合按全字段元组去重（保序），计划名按无序集合去重
func (e *ParsedEntity) Dedup() {
	e.Aliases = dedupTuples(e.Aliases)
	e.Addresses = dedupTuples(e.Addresses)
	e.Identifiers = dedupTuples(e.Identifiers)
	e.Features = dedupTuples(e.Features)
	e.Programs = dedupTuples(e.Programs)
}

func dedupTuples[T comparable](items []T) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[T]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// PrepareForStore 入库前的统一闸口：丢弃无身份记录（告警）、补齐降级uid、全量去重
func PrepareForStore(entities []*ParsedEntity, source SourceList, logger *logrus.Logger) []*ParsedEntity {
	out := make([]*ParsedEntity, 0, len(entities))
	for _, e := range entities {
		e.Source = source
		if !e.HasIdentity() {
			logger.Warnf("%s实体既无uid也无主名称，已丢弃", source)
			continue
		}
		e.EnsureUID()
		e.Dedup()
		out = append(out, e)
	}
	return out
}
