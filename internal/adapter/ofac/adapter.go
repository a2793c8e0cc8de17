package ofac

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
	adapter.Register("ofac", NewOFACAdapter)
}

type Adapter struct {
	cfg    *config.SourceConfig
	logger *logrus.Logger
}

func NewOFACAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{cfg: cfg, logger: logger}
}

func (a *Adapter) GetName() string          { return "OFAC" }
func (a *Adapter) Source() model.SourceList { return model.SourceOFAC }

// ========== SDN Enhanced XML 结构映射（按本地名匹配，namespace差异由解码器抹平） ==========

type sdnDocument struct {
	ReferenceValues []referenceValue `xml:"referenceValues>referenceValue"`
	Entities        []sdnEntity      `xml:"entities>entity"`
}

type referenceValue struct {
	RefID string `xml:"refId,attr"`
	Value string `xml:"value"`
}

// refNode 形如 <entityType refId="91001">Individual</entityType> 的引用节点
type refNode struct {
	RefID string `xml:"refId,attr"`
	Text  string `xml:",chardata"`
}

type sdnEntity struct {
	ID                string             `xml:"id,attr"`
	GeneralInfo       generalInfo        `xml:"generalInfo"`
	SanctionsPrograms []refNode          `xml:"sanctionsPrograms>sanctionsProgram"`
	Names             []sdnName          `xml:"names>name"`
	Addresses         []sdnAddress       `xml:"addresses>address"`
	IdentityDocuments []identityDocument `xml:"identityDocuments>identityDocument"`
	Features          []sdnFeature       `xml:"features>feature"`
}

type generalInfo struct {
	IdentityID string  `xml:"identityId"`
	EntityType refNode `xml:"entityType"`
	Remarks    string  `xml:"remarks"`
	Title      string  `xml:"title"`
}

type sdnName struct {
	IsPrimary    string           `xml:"isPrimary"`
	AliasType    refNode          `xml:"aliasType"`
	Translations []sdnTranslation `xml:"translations>translation"`
}

type sdnTranslation struct {
	IsPrimary         string  `xml:"isPrimary"`
	FormattedFullName string  `xml:"formattedFullName"`
	Script            refNode `xml:"script"`
}

type sdnAddress struct {
	Country      refNode              `xml:"country"`
	Translations []addressTranslation `xml:"translations>translation"`
}

type addressTranslation struct {
	Parts []addressPart `xml:"addressParts>addressPart"`
}

type addressPart struct {
	Type  refNode `xml:"type"`
	Value string  `xml:"value"`
}

type identityDocument struct {
	Type           refNode `xml:"type"`
	DocumentNumber string  `xml:"documentNumber"`
	IssuingCountry refNode `xml:"issuingCountry"`
	Comments       string  `xml:"comments"`
}

type sdnFeature struct {
	Type      featureType `xml:"type"`
	Value     string      `xml:"value"`
	ValueDate struct {
		FromDateBegin string `xml:"fromDateBegin"`
	} `xml:"valueDate"`
}

type featureType struct {
	FeatureTypeID string `xml:"featureTypeId,attr"`
	Text          string `xml:",chardata"`
}

// addressPartSlots 地址片段分类表：片段词（小写包含匹配）-> 规范化字段槽位
// 未命中任何槽位的片段仍会参与完整地址文本拼接
var addressPartSlots = []struct {
	fragment string
	assign   func(addr *model.ParsedAddress, v string)
}{
	{"address1", func(addr *model.ParsedAddress, v string) { addr.Street = v }},
	{"city", func(addr *model.ParsedAddress, v string) { addr.City = v }},
	{"postal code", func(addr *model.ParsedAddress, v string) { addr.PostalCode = v }},
	{"state/province", func(addr *model.ParsedAddress, v string) { addr.Region = v }},
	{"country", func(addr *model.ParsedAddress, v string) {
		if addr.Country == "" { // country引用节点优先，片段只做兜底
			addr.Country = v
		}
	}},
}

// Parse 解析 OFAC SDN Enhanced 文档
func (a *Adapter) Parse(doc []byte) ([]*model.ParsedEntity, error) {
	var d sdnDocument
	if err := xml.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("OFAC XML解析失败: %w", err)
	}

	refs := buildReferenceMap(d.ReferenceValues)
	a.logger.Infof("OFAC: 已缓存%d个引用值", len(refs))

	if len(d.Entities) == 0 {
		a.logger.Warn("OFAC: 未找到任何<entity>节点")
		return []*model.ParsedEntity{}, nil
	}

	entities := make([]*model.ParsedEntity, 0, len(d.Entities))
	for i := range d.Entities {
		entities = append(entities, a.convertEntity(&d.Entities[i], refs))
	}
	a.logger.Infof("OFAC: 解析完成，共提取%d个实体", len(entities))
	return entities, nil
}

func (a *Adapter) convertEntity(node *sdnEntity, refs ReferenceMap) *model.ParsedEntity {
	e := &model.ParsedEntity{
		UID:    strings.TrimSpace(node.GeneralInfo.IdentityID),
		Source: model.SourceOFAC,
	}

	rawType := refs.Resolve(node.GeneralInfo.EntityType.RefID, node.GeneralInfo.EntityType.Text)
	e.Type = model.NormalizeEntityType(rawType)
	if e.Type == model.TypeUnknown && rawType != "" {
		// 枚举折叠会丢掉 Vessel/Aircraft 这类细分类型，补存为特征
		e.Features = append(e.Features, model.ParsedFeature{Type: "Subject Type", Value: rawType})
	}
	if remarks := strings.TrimSpace(node.GeneralInfo.Remarks); remarks != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Remarks", Value: remarks})
	}
	if title := strings.TrimSpace(node.GeneralInfo.Title); title != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Title", Value: title})
	}

	for _, prog := range node.SanctionsPrograms {
		if name := refs.Resolve(prog.RefID, prog.Text); name != "" {
			e.Programs = append(e.Programs, name)
		}
	}

	a.convertNames(node, refs, e)

	for _, addr := range node.Addresses {
		if parsed, ok := a.convertAddress(&addr, refs); ok {
			e.Addresses = append(e.Addresses, parsed)
		}
	}

	for _, idDoc := range node.IdentityDocuments {
		number := strings.TrimSpace(idDoc.DocumentNumber)
		if number == "" {
			continue
		}
		docType := refs.Resolve(idDoc.Type.RefID, idDoc.Type.Text)
		if docType == "" {
			docType = "Unknown"
		}
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType:        docType,
			DocNumber:      number,
			IssuingCountry: refs.Resolve(idDoc.IssuingCountry.RefID, idDoc.IssuingCountry.Text),
			Comment:        strings.TrimSpace(idDoc.Comments),
		})
	}

	for _, feat := range node.Features {
		featType := refs.Resolve(feat.Type.FeatureTypeID, feat.Type.Text)
		value := strings.TrimSpace(feat.Value)
		if value == "" {
			// 日期型特征没有value，降级取起始日期
			value = strings.TrimSpace(feat.ValueDate.FromDateBegin)
		}
		if featType != "" && value != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: featType, Value: value})
		}
	}

	return e
}

// convertNames 主名称判定：名称组与译名都标记primary才算主名称（首个命中即定），
// 其余译名全部降为别名；无人命中时提升首个别名
func (a *Adapter) convertNames(node *sdnEntity, refs ReferenceMap, e *model.ParsedEntity) {
	for _, name := range node.Names {
		isPrimaryName := strings.TrimSpace(name.IsPrimary) == "true"
		aliasType := refs.Resolve(name.AliasType.RefID, name.AliasType.Text)
		if aliasType == "" {
			aliasType = "AKA"
		}
		for _, trans := range name.Translations {
			fullName := strings.TrimSpace(trans.FormattedFullName)
			if fullName == "" {
				continue
			}
			isPrimaryTrans := strings.TrimSpace(trans.IsPrimary) == "true"
			script := refs.Resolve(trans.Script.RefID, trans.Script.Text)
			if strings.EqualFold(script, "latin") {
				script = ""
			}
			switch {
			case isPrimaryName && isPrimaryTrans && e.PrimaryName == "":
				e.PrimaryName = fullName
			case !isPrimaryName || (!isPrimaryTrans && e.PrimaryName != fullName):
				e.Aliases = append(e.Aliases, model.ParsedAlias{Name: fullName, Type: aliasType, Script: script})
			}
		}
	}
	if e.PrimaryName == "" && len(e.Aliases) > 0 {
		e.PrimaryName = e.Aliases[0].Name
	}
}

func (a *Adapter) convertAddress(node *sdnAddress, refs ReferenceMap) (model.ParsedAddress, bool) {
	var addr model.ParsedAddress
	addr.Country = refs.Resolve(node.Country.RefID, node.Country.Text)

	var collected []string
	if len(node.Translations) > 0 {
		// 与上游约定一致：只取首个译文的地址片段
		for _, part := range node.Translations[0].Parts {
			value := strings.TrimSpace(part.Value)
			if value == "" {
				continue
			}
			collected = append(collected, value)
			partType := strings.ToLower(refs.Resolve(part.Type.RefID, part.Type.Text))
			if partType == "" {
				continue
			}
			for _, slot := range addressPartSlots {
				if strings.Contains(partType, slot.fragment) {
					slot.assign(&addr, value)
					break
				}
			}
		}
	}

	addr.FullText = strings.Join(collected, ", ")
	if addr.Street == "" && len(collected) > 0 {
		addr.Street = collected[0]
	}
	if addr.FullText == "" && addr.Country == "" && addr.City == "" {
		return addr, false
	}
	return addr, true
}
