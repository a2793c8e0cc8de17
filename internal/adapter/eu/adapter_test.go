package eu

import (
	"testing"

	"SanctionsSync/internal/config"
	"SanctionsSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEU = `<?xml version="1.0" encoding="utf-8"?>
<export generationDate="2024-01-15">
  <sanctionEntity logicalId="13" euReferenceNumber="EU.27.28" unitedNationId="QDi.001">
    <regulation programme="TAQA"/>
    <subjectType code="person"/>
    <remark>Review pursuant to regulation</remark>
    <nameAlias strong="false" wholeName="Seif al-Adl" nameLanguage="EN"/>
    <nameAlias strong="true" wholeName="Saif al-Adel" nameLanguage="EN" function="Military chief" gender="M"/>
    <nameAlias strong="false" wholeName="سيف العدل" nameLanguage="AR"/>
    <nameAlias strong="false" firstName="Saif" lastName="Adel"/>
    <citizenship countryDescription="EGYPT"/>
    <birthdate year="1960" monthOfYear="4" dayOfMonth="1" city="Monufia" countryDescription="EGYPT"/>
    <address street="Main St 5" city="Cairo" zipCode="1100" countryDescription="EGYPT"/>
    <identification identificationTypeCode="passport" identificationTypeDescription="National passport"
      number="P1234" countryDescription="EGYPT" issuedBy="Cairo office">
      <remark>expired</remark>
    </identification>
  </sanctionEntity>
  <sanctionEntity>
    <subjectType code="enterprise"/>
    <nameAlias strong="false" wholeName="ACME HOLDING"/>
    <identification identificationTypeCode="regNumber" latinNumber="REG-77"/>
  </sanctionEntity>
</export>`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewEUAdapter(&config.SourceConfig{}, logrus.New()).(*Adapter)
}

func TestParseSanctionEntity(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleEU))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	e := entities[0]
	assert.Equal(t, "EU-13", e.UID)
	assert.Equal(t, model.TypeIndividual, e.Type)
	// strong="true"的别名当选主名称，弱别名即使先出现也不行
	assert.Equal(t, "Saif al-Adel", e.PrimaryName)
	assert.Equal(t, []string{"TAQA"}, e.Programs)
}

func TestParseNameAliases(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleEU))
	require.NoError(t, err)

	e := entities[0]
	require.Len(t, e.Aliases, 3)
	assert.Equal(t, model.ParsedAlias{Name: "Seif al-Adl", Type: "AKA"}, e.Aliases[0])
	// EN语言标识归一化为空，其他语言保留
	assert.Equal(t, model.ParsedAlias{Name: "سيف العدل", Type: "AKA", Script: "AR"}, e.Aliases[1])
	// wholeName缺失时由姓名两段拼接
	assert.Equal(t, model.ParsedAlias{Name: "Saif Adel", Type: "AKA"}, e.Aliases[2])

	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Function/Role", Value: "Military chief"})
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Gender", Value: "M"})
}

func TestParseStructuredFields(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleEU))
	require.NoError(t, err)

	e := entities[0]
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Remark", Value: "Review pursuant to regulation"})
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Nationality/Citizenship", Value: "EGYPT"})
	// 月日补零
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Date of Birth", Value: "1960-04-01"})
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Place of Birth", Value: "Monufia, EGYPT"})

	require.Len(t, e.Addresses, 1)
	assert.Equal(t, "Main St 5, Cairo, 1100, EGYPT", e.Addresses[0].FullText)

	// 参考号证件 + UN编号证件 + passport
	require.Len(t, e.Identifiers, 3)
	assert.Equal(t, model.ParsedIdentifier{
		DocType: "EU Reference Number", DocNumber: "EU.27.28", IssuingCountry: "EU",
	}, e.Identifiers[0])
	assert.Equal(t, model.ParsedIdentifier{
		DocType: "UN ID (from EU list)", DocNumber: "QDi.001", IssuingCountry: "UN",
	}, e.Identifiers[1])
	assert.Equal(t, model.ParsedIdentifier{
		DocType:        "National passport",
		DocNumber:      "P1234",
		IssuingCountry: "EGYPT",
		Comment:        "Issued by: Cairo office; expired",
	}, e.Identifiers[2])
}

func TestParseFallbacks(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleEU))
	require.NoError(t, err)

	e := entities[1]
	// 无logicalId/参考号/UN编号，降级到本轮序号
	assert.Equal(t, "EU-TEMP-2", e.UID)
	assert.Equal(t, model.TypeEntity, e.Type)
	// 全部为弱别名时取首个
	assert.Equal(t, "ACME HOLDING", e.PrimaryName)
	assert.Empty(t, e.Aliases)
	// number缺失回退latinNumber，类型描述缺失回退代码
	require.Len(t, e.Identifiers, 1)
	assert.Equal(t, "regNumber", e.Identifiers[0].DocType)
	assert.Equal(t, "REG-77", e.Identifiers[0].DocNumber)
}
