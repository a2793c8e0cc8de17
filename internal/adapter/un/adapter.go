package un

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
	adapter.Register("un", NewUNAdapter)
}

type Adapter struct {
	cfg    *config.SourceConfig
	logger *logrus.Logger
}

func NewUNAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{cfg: cfg, logger: logger}
}

func (a *Adapter) GetName() string          { return "UN" }
func (a *Adapter) Source() model.SourceList { return model.SourceUN }

// ========== UN Consolidated List 结构映射（个人与机构两段独立处理） ==========

type unDocument struct {
	Individuals []unIndividual `xml:"INDIVIDUALS>INDIVIDUAL"`
	Entities    []unEntity     `xml:"ENTITIES>ENTITY"`
}

type unIndividual struct {
	DataID             string      `xml:"DATAID"`
	ReferenceNumber    string      `xml:"REFERENCE_NUMBER"`
	FirstName          string      `xml:"FIRST_NAME"`
	SecondName         string      `xml:"SECOND_NAME"`
	ThirdName          string      `xml:"THIRD_NAME"`
	UNListType         string      `xml:"UN_LIST_TYPE"`
	NameOriginalScript string      `xml:"NAME_ORIGINAL_SCRIPT"`
	Aliases            []unAlias   `xml:"INDIVIDUAL_ALIAS"`
	Addresses          []unAddress `xml:"INDIVIDUAL_ADDRESS"`
	TitleValues        []string    `xml:"TITLE>VALUE"`
	DesignationValues  []string    `xml:"DESIGNATION>VALUE"`
	NationalityValues  []string    `xml:"NATIONALITY>VALUE"`
	DatesOfBirth       []unDOB     `xml:"INDIVIDUAL_DATE_OF_BIRTH"`
	PlacesOfBirth      []unPOB     `xml:"INDIVIDUAL_PLACE_OF_BIRTH"`
	Comments           string      `xml:"COMMENTS1"`
	ListedOn           string      `xml:"LISTED_ON"`
}

type unEntity struct {
	DataID          string      `xml:"DATAID"`
	ReferenceNumber string      `xml:"REFERENCE_NUMBER"`
	FirstName       string      `xml:"FIRST_NAME"`
	UNListType      string      `xml:"UN_LIST_TYPE"`
	Aliases         []unAlias   `xml:"ENTITY_ALIAS"`
	Addresses       []unAddress `xml:"ENTITY_ADDRESS"`
	Comments        string      `xml:"COMMENTS1"`
	ListedOn        string      `xml:"LISTED_ON"`
}

type unAlias struct {
	AliasName string `xml:"ALIAS_NAME"`
	Quality   string `xml:"QUALITY"`
}

type unAddress struct {
	Street  string `xml:"STREET"`
	City    string `xml:"CITY"`
	Country string `xml:"COUNTRY"`
	Note    string `xml:"NOTE"`
}

type unDOB struct {
	TypeOfDate string `xml:"TYPE_OF_DATE"`
	Year       string `xml:"YEAR"`
	Month      string `xml:"MONTH"`
	Day        string `xml:"DAY"`
}

type unPOB struct {
	City          string `xml:"CITY"`
	StateProvince string `xml:"STATE_PROVINCE"`
	Country       string `xml:"COUNTRY"`
}

// Parse 解析 UN 综合制裁清单
func (a *Adapter) Parse(doc []byte) ([]*model.ParsedEntity, error) {
	var d unDocument
	if err := xml.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("UN XML解析失败: %w", err)
	}

	entities := make([]*model.ParsedEntity, 0, len(d.Individuals)+len(d.Entities))
	for i := range d.Individuals {
		entities = append(entities, a.convertIndividual(&d.Individuals[i]))
	}
	for i := range d.Entities {
		entities = append(entities, a.convertEntity(&d.Entities[i]))
	}
	a.logger.Infof("UN: 解析完成，共提取%d个实体", len(entities))
	return entities, nil
}

// deriveUID uid优先取DATAID，缺失时带前缀降级到参考号
func deriveUID(dataID, refNumber string) string {
	if id := strings.TrimSpace(dataID); id != "" {
		return "UN-" + id
	}
	if ref := strings.TrimSpace(refNumber); ref != "" {
		return "UN-REF-" + ref
	}
	return ""
}

func (a *Adapter) convertIndividual(node *unIndividual) *model.ParsedEntity {
	e := &model.ParsedEntity{
		UID:    deriveUID(node.DataID, node.ReferenceNumber),
		Source: model.SourceUN,
		Type:   model.TypeIndividual,
	}

	// 主名称 = 一/二/三段名按空格拼接（空段跳过）
	e.PrimaryName = joinNonEmpty([]string{
		strings.TrimSpace(node.FirstName),
		strings.TrimSpace(node.SecondName),
		strings.TrimSpace(node.ThirdName),
	}, " ")

	a.convertAliases(node.Aliases, node.NameOriginalScript, e)
	a.convertAddresses(node.Addresses, e)

	if len(node.TitleValues) > 0 {
		if title := strings.TrimSpace(node.TitleValues[0]); title != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Title", Value: title})
		}
	}
	for _, desig := range node.DesignationValues {
		if v := strings.TrimSpace(desig); v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Designation", Value: v})
		}
	}
	if len(node.NationalityValues) > 0 {
		if nat := strings.TrimSpace(node.NationalityValues[0]); nat != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Nationality", Value: nat})
		}
	}

	// 多个出生日期节点只取首个（与既有口径一致），且必须有年份
	if len(node.DatesOfBirth) > 0 {
		dobNode := node.DatesOfBirth[0]
		if year := strings.TrimSpace(dobNode.Year); year != "" {
			dob := joinNonEmpty([]string{
				year,
				strings.TrimSpace(dobNode.Month),
				strings.TrimSpace(dobNode.Day),
			}, "-")
			label := strings.TrimSpace(fmt.Sprintf("Date of Birth (%s)", strings.TrimSpace(dobNode.TypeOfDate)))
			e.Features = append(e.Features, model.ParsedFeature{Type: label, Value: dob})
		}
	}

	for _, pob := range node.PlacesOfBirth {
		v := joinNonEmpty([]string{
			strings.TrimSpace(pob.City),
			strings.TrimSpace(pob.StateProvince),
			strings.TrimSpace(pob.Country),
		}, ", ")
		if v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Place of Birth", Value: v})
		}
	}

	a.appendCommon(strings.TrimSpace(node.Comments), strings.TrimSpace(node.ListedOn),
		strings.TrimSpace(node.UNListType), strings.TrimSpace(node.ReferenceNumber), e)
	return e
}

func (a *Adapter) convertEntity(node *unEntity) *model.ParsedEntity {
	e := &model.ParsedEntity{
		UID:         deriveUID(node.DataID, node.ReferenceNumber),
		Source:      model.SourceUN,
		Type:        model.TypeEntity,
		PrimaryName: strings.TrimSpace(node.FirstName),
	}
	a.convertAliases(node.Aliases, "", e)
	a.convertAddresses(node.Addresses, e)
	a.appendCommon(strings.TrimSpace(node.Comments), strings.TrimSpace(node.ListedOn),
		strings.TrimSpace(node.UNListType), strings.TrimSpace(node.ReferenceNumber), e)
	return e
}

// convertAliases 显式别名节点按QUALITY定型；原文名单独收录并打专属标签
func (a *Adapter) convertAliases(aliases []unAlias, originalScript string, e *model.ParsedEntity) {
	for _, alias := range aliases {
		name := strings.TrimSpace(alias.AliasName)
		if name == "" {
			continue
		}
		aliasType := strings.TrimSpace(alias.Quality)
		if aliasType == "" {
			aliasType = "Alias"
		}
		e.Aliases = append(e.Aliases, model.ParsedAlias{Name: name, Type: aliasType})
	}
	if original := strings.TrimSpace(originalScript); original != "" {
		e.Aliases = append(e.Aliases, model.ParsedAlias{
			Name:   original,
			Type:   "Nombre en Escritura Original",
			Script: "Original Script",
		})
	}
}

func (a *Adapter) convertAddresses(addresses []unAddress, e *model.ParsedEntity) {
	for _, addr := range addresses {
		street := strings.TrimSpace(addr.Street)
		city := strings.TrimSpace(addr.City)
		country := strings.TrimSpace(addr.Country)
		full := joinNonEmpty([]string{street, city, country, strings.TrimSpace(addr.Note)}, ", ")
		if full == "" {
			continue
		}
		e.Addresses = append(e.Addresses, model.ParsedAddress{
			Street:   street,
			City:     city,
			Country:  country,
			FullText: full,
		})
	}
}

func (a *Adapter) appendCommon(comments, listedOn, listType, refNumber string, e *model.ParsedEntity) {
	if comments != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Comments", Value: comments})
	}
	if listedOn != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Listed On", Value: listedOn})
	}
	if listType != "" {
		e.Programs = append(e.Programs, listType)
	}
	if refNumber != "" {
		e.Programs = append(e.Programs, "UN Ref: "+refNumber)
	}
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
