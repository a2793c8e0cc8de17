package eu

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
	adapter.Register("eu", NewEUAdapter)
}

type Adapter struct {
	cfg    *config.SourceConfig
	logger *logrus.Logger
}

func NewEUAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.SourceAdapter {
	return &Adapter{cfg: cfg, logger: logger}
}

func (a *Adapter) GetName() string          { return "EU" }
func (a *Adapter) Source() model.SourceList { return model.SourceEU }

// ========== EU Consolidated Financial Sanctions 结构映射（属性为主的扁平格式） ==========

type euDocument struct {
	Entities []euSanctionEntity `xml:"sanctionEntity"`
}

type euSanctionEntity struct {
	LogicalID         string             `xml:"logicalId,attr"`
	EUReferenceNumber string             `xml:"euReferenceNumber,attr"`
	UnitedNationID    string             `xml:"unitedNationId,attr"`
	SubjectType       euSubjectType      `xml:"subjectType"`
	Regulation        euRegulation       `xml:"regulation"`
	Remark            string             `xml:"remark"`
	NameAliases       []euNameAlias      `xml:"nameAlias"`
	Citizenships      []euCitizenship    `xml:"citizenship"`
	Birthdates        []euBirthdate      `xml:"birthdate"`
	Addresses         []euAddress        `xml:"address"`
	Identifications   []euIdentification `xml:"identification"`
}

type euSubjectType struct {
	Code string `xml:"code,attr"`
}

type euRegulation struct {
	Programme string `xml:"programme,attr"`
}

type euNameAlias struct {
	Strong       string `xml:"strong,attr"`
	WholeName    string `xml:"wholeName,attr"`
	FirstName    string `xml:"firstName,attr"`
	LastName     string `xml:"lastName,attr"`
	NameLanguage string `xml:"nameLanguage,attr"`
	Function     string `xml:"function,attr"`
	Title        string `xml:"title,attr"`
	Gender       string `xml:"gender,attr"`
}

type euCitizenship struct {
	CountryDescription string `xml:"countryDescription,attr"`
}

type euBirthdate struct {
	Birthdate          string `xml:"birthdate,attr"`
	Year               string `xml:"year,attr"`
	MonthOfYear        string `xml:"monthOfYear,attr"`
	DayOfMonth         string `xml:"dayOfMonth,attr"`
	City               string `xml:"city,attr"`
	Place              string `xml:"place,attr"`
	CountryDescription string `xml:"countryDescription,attr"`
}

type euAddress struct {
	Street             string `xml:"street,attr"`
	City               string `xml:"city,attr"`
	ZipCode            string `xml:"zipCode,attr"`
	CountryDescription string `xml:"countryDescription,attr"`
	Region             string `xml:"region,attr"`
	Place              string `xml:"place,attr"`
	POBox              string `xml:"poBox,attr"`
}

type euIdentification struct {
	TypeCode           string `xml:"identificationTypeCode,attr"`
	TypeDescription    string `xml:"identificationTypeDescription,attr"`
	Number             string `xml:"number,attr"`
	LatinNumber        string `xml:"latinNumber,attr"`
	CountryDescription string `xml:"countryDescription,attr"`
	IssuedBy           string `xml:"issuedBy,attr"`
	NameOnDocument     string `xml:"nameOnDocument,attr"`
	Remark             string `xml:"remark"`
}

// Parse 解析 EU 综合金融制裁清单
func (a *Adapter) Parse(doc []byte) ([]*model.ParsedEntity, error) {
	var d euDocument
	if err := xml.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("EU XML解析失败: %w", err)
	}

	entities := make([]*model.ParsedEntity, 0, len(d.Entities))
	for i := range d.Entities {
		entities = append(entities, a.convertEntity(&d.Entities[i], len(entities)+1))
	}
	a.logger.Infof("EU: 解析完成，共提取%d个实体", len(entities))
	return entities, nil
}

func (a *Adapter) convertEntity(node *euSanctionEntity, seq int) *model.ParsedEntity {
	e := &model.ParsedEntity{Source: model.SourceEU}

	// uid 四级降级：logicalId -> EU参考号 -> UN编号 -> 本轮解析序号
	logicalID := strings.TrimSpace(node.LogicalID)
	euRef := strings.TrimSpace(node.EUReferenceNumber)
	unID := strings.TrimSpace(node.UnitedNationID)
	switch {
	case logicalID != "":
		e.UID = "EU-" + logicalID
	case euRef != "":
		e.UID = "EU-REF-" + euRef
	case unID != "":
		e.UID = "EU-UNID-" + unID
	default:
		e.UID = fmt.Sprintf("EU-TEMP-%d", seq)
	}

	// 参考号本身也作为可检索的标识证件存一份
	if euRef != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "EU Reference Number", DocNumber: euRef, IssuingCountry: "EU",
		})
	}
	if unID != "" {
		e.Identifiers = append(e.Identifiers, model.ParsedIdentifier{
			DocType: "UN ID (from EU list)", DocNumber: unID, IssuingCountry: "UN",
		})
	}

	rawType := strings.TrimSpace(node.SubjectType.Code)
	e.Type = model.NormalizeEntityType(rawType)
	if e.Type == model.TypeUnknown && rawType != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Subject Type", Value: rawType})
	}

	if programme := strings.TrimSpace(node.Regulation.Programme); programme != "" {
		e.Programs = append(e.Programs, programme)
	}
	if remark := strings.TrimSpace(node.Remark); remark != "" {
		e.Features = append(e.Features, model.ParsedFeature{Type: "Remark", Value: remark})
	}

	a.convertNames(node.NameAliases, e)

	for _, c := range node.Citizenships {
		if country := strings.TrimSpace(c.CountryDescription); country != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Nationality/Citizenship", Value: country})
		}
	}

	for _, bd := range node.Birthdates {
		if dob := formatBirthdate(&bd); dob != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Date of Birth", Value: dob})
		}
		pob := joinNonEmpty([]string{
			strings.TrimSpace(bd.City),
			strings.TrimSpace(bd.Place),
			strings.TrimSpace(bd.CountryDescription),
		}, ", ")
		if pob != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Place of Birth", Value: pob})
		}
	}

	for _, addr := range node.Addresses {
		if parsed, ok := convertAddress(&addr); ok {
			e.Addresses = append(e.Addresses, parsed)
		}
	}

	for _, ident := range node.Identifications {
		if parsed, ok := convertIdentification(&ident); ok {
			e.Identifiers = append(e.Identifiers, parsed)
		}
	}

	return e
}

// convertNames 主名称判定：首个strong="true"且有名字的别名节点胜出；
// 全部弱别名时退而取首个有名字的节点。其余有名字的节点按AKA收录
func (a *Adapter) convertNames(aliases []euNameAlias, e *model.ParsedEntity) {
	names := make([]string, len(aliases))
	for i, na := range aliases {
		name := strings.TrimSpace(na.WholeName)
		if name == "" {
			name = strings.TrimSpace(joinNonEmpty([]string{
				strings.TrimSpace(na.FirstName),
				strings.TrimSpace(na.LastName),
			}, " "))
		}
		names[i] = name
	}

	for i, na := range aliases {
		if strings.EqualFold(strings.TrimSpace(na.Strong), "true") && names[i] != "" {
			e.PrimaryName = names[i]
			break
		}
	}
	if e.PrimaryName == "" {
		for _, name := range names {
			if name != "" {
				e.PrimaryName = name
				break
			}
		}
	}

	primaryLower := strings.ToLower(e.PrimaryName)
	for i, na := range aliases {
		name := names[i]
		if name == "" {
			continue
		}
		if strings.ToLower(name) != primaryLower {
			script := strings.TrimSpace(na.NameLanguage)
			if strings.EqualFold(script, "EN") {
				script = ""
			}
			e.Aliases = append(e.Aliases, model.ParsedAlias{Name: name, Type: "AKA", Script: script})
		}
		if v := strings.TrimSpace(na.Function); v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Function/Role", Value: v})
		}
		if v := strings.TrimSpace(na.Title); v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Title", Value: v})
		}
		if v := strings.TrimSpace(na.Gender); v != "" {
			e.Features = append(e.Features, model.ParsedFeature{Type: "Gender", Value: v})
		}
	}
}

// formatBirthdate 完整birthdate属性优先；否则按年/年-月/年-月-日逐级拼装，月日补零
func formatBirthdate(bd *euBirthdate) string {
	if full := strings.TrimSpace(bd.Birthdate); full != "" {
		return full
	}
	year := strings.TrimSpace(bd.Year)
	if year == "" {
		return ""
	}
	dob := year
	month := strings.TrimSpace(bd.MonthOfYear)
	day := strings.TrimSpace(bd.DayOfMonth)
	if month != "" {
		dob += "-" + zeroPad2(month)
		if day != "" {
			dob += "-" + zeroPad2(day)
		}
	}
	return dob
}

func zeroPad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func convertAddress(node *euAddress) (model.ParsedAddress, bool) {
	street := strings.TrimSpace(node.Street)
	city := strings.TrimSpace(node.City)
	zip := strings.TrimSpace(node.ZipCode)
	country := strings.TrimSpace(node.CountryDescription)
	region := strings.TrimSpace(node.Region)
	place := strings.TrimSpace(node.Place)
	poBox := strings.TrimSpace(node.POBox)

	full := joinNonEmpty([]string{street, poBox, city, zip, place, region, country}, ", ")
	if full == "" {
		return model.ParsedAddress{}, false
	}
	return model.ParsedAddress{
		Street:     street,
		City:       city,
		Country:    country,
		PostalCode: zip,
		Region:     region,
		Place:      place,
		POBox:      poBox,
		FullText:   full,
	}, true
}

func convertIdentification(node *euIdentification) (model.ParsedIdentifier, bool) {
	number := strings.TrimSpace(node.Number)
	if number == "" {
		number = strings.TrimSpace(node.LatinNumber)
	}
	if number == "" {
		return model.ParsedIdentifier{}, false
	}

	docType := strings.TrimSpace(node.TypeDescription)
	if docType == "" {
		docType = strings.TrimSpace(node.TypeCode)
	}
	if docType == "" {
		docType = "Unknown"
	}

	var commentParts []string
	if issuedBy := strings.TrimSpace(node.IssuedBy); issuedBy != "" {
		commentParts = append(commentParts, "Issued by: "+issuedBy)
	}
	if nameOnDoc := strings.TrimSpace(node.NameOnDocument); nameOnDoc != "" {
		commentParts = append(commentParts, "Name on document: "+nameOnDoc)
	}
	if remark := strings.TrimSpace(node.Remark); remark != "" {
		commentParts = append(commentParts, remark)
	}

	return model.ParsedIdentifier{
		DocType:        docType,
		DocNumber:      number,
		IssuingCountry: strings.TrimSpace(node.CountryDescription),
		Comment:        strings.Join(commentParts, "; "),
	}, true
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
