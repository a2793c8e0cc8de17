package uk

import (
	"encoding/xml"
	"fmt"
	"strings"

	"SanctionsSync/internal/adapter"
	"SanctionsSync/internal/config"
	"SanctionsSync/internal/interfaces"
	"SanctionsSync/internal/model"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register("uk", NewUKAdapter)
}

type Adapter struct {
	cfg    *config.SourceConfig
	logger *logrus.Logger
}

func NewUKAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{cfg: cfg, logger: logger}
}

func (a *Adapter) GetName() string          { return "UK" }
func (a *Adapter) Source() model.SourceList { return model.SourceUK }

// ========== UK OFSI Consolidated List 结构映射 ==========
// 行式格式：同一目标的多行记录共享GroupID，每行可携带一个名称变体

type ukDocument struct {
	Targets []ukTarget `xml:"FinancialSanctionsTarget"`
}

type ukTarget struct {
	GroupID              string   `xml:"GroupID"`
	GroupTypeDescription string   `xml:"GroupTypeDescription"`
	Title                string   `xml:"Title"`
	Name1                string   `xml:"Name1"`
	Name2                string   `xml:"Name2"`
	Name3                string   `xml:"Name3"`
	Name4                string   `xml:"Name4"`
	Name5                string   `xml:"Name5"`
	Name6                string   `xml:"Name6"`
	AliasType            string   `xml:"AliasType"`
	NameNonLatinScript   string   `xml:"NameNonLatinScript"`
	NonLatinScriptType   string   `xml:"NonLatinScriptType"`
	NonLatinScriptLang   string   `xml:"NonLatinScriptLanguage"`
	RegimeName           string   `xml:"RegimeName"`
	UKSanctionsListRef   string   `xml:"UKSanctionsListRef"`
	UNRef                string   `xml:"UNRef"`
	Address1             string   `xml:"Address1"`
	Address2             string   `xml:"Address2"`
	Address3             string   `xml:"Address3"`
	Address4             string   `xml:"Address4"`
	Address5             string   `xml:"Address5"`
	Address6             string   `xml:"Address6"`
	PostCode             string   `xml:"PostCode"`
	Country              string   `xml:"Country"`
	StatementOfReasons   string   `xml:"UKStatementOfReasons"`
	OtherInformation     string   `xml:"OtherInformation"`
	DOBDates             []string `xml:"Individual_DateOfBirth>Date"`
	TownOfBirth          string   `xml:"Individual_TownOfBirth"`
	CountryOfBirth       string   `xml:"Individual_CountryOfBirth"`
	Nationalities        []string `xml:"Individual_Nationality>Nationality"`
	Position             string   `xml:"Individual_Position"`
	Gender               string   `xml:"Individual_Gender"`
	PassportNumber       string   `xml:"Individual_PassportNumber"`
	NINumber             string   `xml:"Individual_NINumber"`
	EntityType           string   `xml:"Entity_Type"`
	BusinessRegNumber    string   `xml:"Entity_BusinessRegNumber"`
	DateListed           string   `xml:"DateListed"`
	LastUpdated          string   `xml:"LastUpdated"`
}

// Parse 解析 UK OFSI 清单：先按GroupID聚合（保留首现顺序），再逐组折叠成实体
func (a *Adapter) Parse(doc []byte) ([]*model.ParsedEntity, error) {
	var d ukDocument
	if err := xml.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("UK XML解析失败: %w", err)
	}

	groups := make(map[string][]*ukTarget)
	var order []string
	for i := range d.Targets {
		groupID := strings.TrimSpace(d.Targets[i].GroupID)
		if groupID == "" {
			continue
		}
		if _, seen := groups[groupID]; !seen {
			order = append(order, groupID)
		}
		groups[groupID] = append(groups[groupID], &d.Targets[i])
	}
	a.logger.Infof("UK: 共%d行记录，聚合为%d个目标组", len(d.Targets), len(order))

	entities := make([]*model.ParsedEntity, 0, len(order))
	for _, groupID := range order {
		entities = append(entities, a.convertGroup(groupID, groups[groupID]))
	}
	a.logger.Infof("UK: 解析完成，共提取%d个实体", len(entities))
	return entities, nil
}

func (a *Adapter) convertGroup(groupID string, rows []*ukTarget) *model.ParsedEntity {
	e := &model.ParsedEntity{
		UID:    "UK-" + groupID,
		Source: model.SourceUK,
		Type:   model.NormalizeEntityType(strings.TrimSpace(rows[0].GroupTypeDescription)),
	}

	var candidates []model.ParsedAlias
	for idx, row := range rows {
		candidates = append(candidates, nameCandidates(row)...)

		if regime := strings.TrimSpace(row.RegimeName); regime != "" {
			e.Programs = append(e.Programs, regime)
		}

		// 标识、地址与各项特征只在首行取一次，后续行仅贡献名称变体与制裁方案
		if idx == 0 {
			a.convertFirstRow(row, e)
		}
	}

	a.pickPrimary(candidates, e)
	return e
}

// nameCandidates 一行最多产出两个名称候选：拉丁拼写（Title+Name1..6）与非拉丁原文
func nameCandidates(row *ukTarget) []model.ParsedAlias {
	var out []model.ParsedAlias

	name := joinNonEmpty([]string{
		strings.TrimSpace(row.Name1),
		strings.TrimSpace(row.Name2),
		strings.TrimSpace(row.Name3),
		strings.TrimSpace(row.Name4),
		strings.TrimSpace(row.Name5),
		strings.TrimSpace(row.Name6),
	}, " ")
	if title := strings.TrimSpace(row.Title); title != "" && name != "" {
		name = title + " " + name
	}
	if name != "" {
		aliasType := strings.TrimSpace(row.AliasType)
		if aliasType == "" {
			aliasType = "Alias"
		}
		out = append(out, model.ParsedAlias{Name: name, Type: aliasType})
	}

	if nonLatin := strings.TrimSpace(row.NameNonLatinScript); nonLatin != "" {
		script := joinNonEmpty([]string{
			strings.TrimSpace(row.NonLatinScriptType),
			strings.TrimSpace(row.NonLatinScriptLang),
		}, ", ")
		if script == "" {
			script = "Escritura No Latina"
		}
		out = append(out, model.ParsedAlias{
			Name:   nonLatin,
			Type:   "Nombre en Escritura Original",
			Script: script,
		})
	}
	return out
}

// pickPrimary 首个标注"Primary Name"的候选当选；无标注时按出现顺序取第一个
func (a *Adapter) pickPrimary(candidates []model.ParsedAlias, e *model.ParsedEntity) {
	if len(candidates) == 0 {
		return
	}

	primaryIdx := -1
	for i, c := range candidates {
		if strings.Contains(strings.ToLower(c.Type), "primary name") {
			primaryIdx = i
			break
		}
	}

	if primaryIdx >= 0 {
		e.PrimaryName = candidates[primaryIdx].Name
		primaryLower := strings.ToLower(e.PrimaryName)
		for _, c := range candidates {
			if strings.ToLower(c.Name) != primaryLower {
				e.Aliases = append(e.Aliases, c)
			}
		}
		return
	}
	e.PrimaryName = candidates[0].Name
	e.Aliases = append(e.Aliases, candidates[1:]...)
}

func (a *Adapter) convertFirstRow(row *ukTarget, e *model.ParsedEntity) {
	if ref := strings.TrimSpace(row.UKSanctionsListRef); ref != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "UKSanctionsListRef", DocNumber: ref, IssuingCountry: "UK",
		})
	}
	if unRef := strings.TrimSpace(row.UNRef); unRef != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "UNRef (from UK list)", DocNumber: unRef, IssuingCountry: "UN",
		})
	}

	street := strings.TrimSpace(row.Address1)
	postal := strings.TrimSpace(row.PostCode)
	country := strings.TrimSpace(row.Country)
	full := joinNonEmpty([]string{
		street,
		strings.TrimSpace(row.Address2),
		strings.TrimSpace(row.Address3),
		strings.TrimSpace(row.Address4),
		strings.TrimSpace(row.Address5),
		strings.TrimSpace(row.Address6),
		postal,
		country,
	}, ", ")
	if full != "" {
		e.Addresses = append(e.Addresses, model.ParsedAddress{
			Street:     street,
			PostalCode: postal,
			Country:    country,
			FullText:   full,
		})
	}

	addFeature := func(featType, value string) {
		if v := strings.TrimSpace(value); v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: featType, Value: v})
		}
	}

	addFeature("UK Statement Of Reasons", row.StatementOfReasons)
	addFeature("Other Information", row.OtherInformation)
	for _, date := range row.DOBDates {
		addFeature("Date of Birth", date)
	}
	pob := joinNonEmpty([]string{
		strings.TrimSpace(row.TownOfBirth),
		strings.TrimSpace(row.CountryOfBirth),
	}, ", ")
	addFeature("Place of Birth", pob)
	for _, nat := range row.Nationalities {
		addFeature("Nationality", nat)
	}
	addFeature("Position", row.Position)
	addFeature("Gender", row.Gender)
	addFeature("Entity Specific Type (UK)", row.EntityType)
	// 时间戳只留日期部分
	addFeature("Date Listed", splitDate(row.DateListed))
	addFeature("Last Updated", splitDate(row.LastUpdated))

	if passport := strings.TrimSpace(row.PassportNumber); passport != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "Passport Number", DocNumber: passport,
		})
	}
	if ni := strings.TrimSpace(row.NINumber); ni != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "National Insurance Number", DocNumber: ni, IssuingCountry: "UK",
		})
	}
	if reg := strings.TrimSpace(row.BusinessRegNumber); reg != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "Business Registration Number", DocNumber: reg,
		})
	}
}

func splitDate(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
