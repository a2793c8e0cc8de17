package ofac

import (
	"testing"

	"SanctionsSync/internal/config"
	"SanctionsSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSDN = `<?xml version="1.0" encoding="utf-8"?>
<sanctionsData>
  <referenceValues>
    <referenceValue refId="91001"><value>Individual</value></referenceValue>
    <referenceValue refId="92001"><value>SDGT</value></referenceValue>
    <referenceValue refId="93001"><value>AKA</value></referenceValue>
    <referenceValue refId="93002"><value>Latin</value></referenceValue>
    <referenceValue refId="93003"><value>Arabic</value></referenceValue>
    <referenceValue refId="94001"><value>Passport</value></referenceValue>
    <referenceValue refId="94002"><value>Iraq</value></referenceValue>
    <referenceValue refId="95001"><value>Birthdate</value></referenceValue>
    <referenceValue refId="96001"><value>Address1</value></referenceValue>
    <referenceValue refId="96002"><value>City</value></referenceValue>
    <referenceValue refId="96003"><value>Country</value></referenceValue>
  </referenceValues>
  <entities>
    <entity id="1">
      <generalInfo>
        <identityId>9638</identityId>
        <entityType refId="91001">Individual</entityType>
        <remarks>High ranking official</remarks>
      </generalInfo>
      <sanctionsPrograms>
        <sanctionsProgram refId="92001"/>
      </sanctionsPrograms>
      <names>
        <name>
          <isPrimary>true</isPrimary>
          <translations>
            <translation>
              <isPrimary>true</isPrimary>
              <formattedFullName>SADDAM HUSSEIN</formattedFullName>
              <script refId="93002"/>
            </translation>
            <translation>
              <isPrimary>false</isPrimary>
              <formattedFullName>صدام حسين</formattedFullName>
              <script refId="93003"/>
            </translation>
          </translations>
        </name>
        <name>
          <isPrimary>false</isPrimary>
          <aliasType refId="93001"/>
          <translations>
            <translation>
              <isPrimary>true</isPrimary>
              <formattedFullName>ABU ALI</formattedFullName>
              <script refId="93002"/>
            </translation>
          </translations>
        </name>
      </names>
      <addresses>
        <address>
          <country refId="94002"/>
          <translations>
            <translation>
              <addressParts>
                <addressPart><type refId="96001"/><value>Palacio 1</value></addressPart>
                <addressPart><type refId="96002"/><value>Bagdad</value></addressPart>
              </addressParts>
            </translation>
          </translations>
        </address>
      </addresses>
      <identityDocuments>
        <identityDocument>
          <type refId="94001"/>
          <documentNumber>A123456</documentNumber>
          <issuingCountry refId="94002"/>
        </identityDocument>
        <identityDocument>
          <type refId="94001"/>
          <documentNumber></documentNumber>
        </identityDocument>
      </identityDocuments>
      <features>
        <feature>
          <type featureTypeId="95001">Birthdate</type>
          <valueDate><fromDateBegin>1937-04-28</fromDateBegin></valueDate>
        </feature>
      </features>
    </entity>
  </entities>
</sanctionsData>`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	logger := logrus.New()
	return NewOFACAdapter(&config.SourceConfig{}, logger).(*Adapter)
}

func TestParseSDN(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleSDN))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.Equal(t, "9638", e.UID)
	assert.Equal(t, model.SourceOFAC, e.Source)
	assert.Equal(t, model.TypeIndividual, e.Type)
	assert.Equal(t, "SADDAM HUSSEIN", e.PrimaryName)
	assert.Equal(t, []string{"SDGT"}, e.Programs)
}

func TestParseSDNNames(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleSDN))
	require.NoError(t, err)

	e := entities[0]
	require.Len(t, e.Aliases, 2)
	// 主名称组的非主译文降级为别名，保留原文文字标识
	assert.Equal(t, "صدام حسين", e.Aliases[0].Name)
	assert.Equal(t, "Arabic", e.Aliases[0].Script)
	// 别名组整体为别名，Latin文字归一化为空
	assert.Equal(t, "ABU ALI", e.Aliases[1].Name)
	assert.Equal(t, "AKA", e.Aliases[1].Type)
	assert.Equal(t, "", e.Aliases[1].Script)
}

func TestParseSDNChildren(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(sampleSDN))
	require.NoError(t, err)

	e := entities[0]
	require.Len(t, e.Addresses, 1)
	assert.Equal(t, "Palacio 1, Bagdad", e.Addresses[0].FullText)
	assert.Equal(t, "Palacio 1", e.Addresses[0].Street)
	assert.Equal(t, "Bagdad", e.Addresses[0].City)
	assert.Equal(t, "Iraq", e.Addresses[0].Country)

	// 无证件号的记录被丢弃
	require.Len(t, e.Identifiers, 1)
	assert.Equal(t, "Passport", e.Identifiers[0].DocType)
	assert.Equal(t, "A123456", e.Identifiers[0].DocNumber)
	assert.Equal(t, "Iraq", e.Identifiers[0].IssuingCountry)

	// 日期型特征取起始日期；remarks入特征
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Birthdate", Value: "1937-04-28"})
	assert.Contains(t, e.Features, model.ParsedFeature{Type: "Remarks", Value: "High ranking official"})
}

func TestParseSDNPromotesAliasWithoutPrimary(t *testing.T) {
	doc := `<sanctionsData>
  <entities>
    <entity id="2">
      <generalInfo><identityId>77</identityId><entityType>Entity</entityType></generalInfo>
      <names>
        <name>
          <isPrimary>false</isPrimary>
          <translations>
            <translation><isPrimary>true</isPrimary><formattedFullName>ACME CORP</formattedFullName></translation>
          </translations>
        </name>
      </names>
    </entity>
  </entities>
</sanctionsData>`

	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	// 无主名称时提升首个别名
	assert.Equal(t, "ACME CORP", entities[0].PrimaryName)
	assert.Equal(t, model.TypeEntity, entities[0].Type)
}

func TestParseSDNEmptyDocument(t *testing.T) {
	a := newTestAdapter(t)
	entities, err := a.Parse([]byte(`<sanctionsData><entities/></sanctionsData>`))
	require.NoError(t, err)
	assert.Empty(t, entities)

	_, err = a.Parse([]byte(`not xml at all`))
	assert.Error(t, err)
}
