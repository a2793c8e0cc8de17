package model

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEntityType(t *testing.T) {
	tests := []struct {
		raw  string
		want EntityType
	}{
		{"Individual", TypeIndividual},
		{"person", TypeIndividual},
		{"Entity", TypeEntity},
		{"enterprise", TypeEntity},
		{"organisation", TypeEntity},
		{"legalEntity", TypeEntity},
		{"Vessel", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEntityType(tt.raw))
		})
	}
}

func TestEnsureUID(t *testing.T) {
	t.Run("已有uid不覆盖", func(t *testing.T) {
		e := &ParsedEntity{UID: "OFAC-123", PrimaryName: "Juan", Source: SourceOFAC}
		e.EnsureUID()
		assert.Equal(t, "OFAC-123", e.UID)
	})

	t.Run("降级uid确定性", func(t *testing.T) {
		a := &ParsedEntity{PrimaryName: "Juan Carlos / Pérez: S.A.", Source: SourceEU}
		b := &ParsedEntity{PrimaryName: "Juan Carlos / Pérez: S.A.", Source: SourceEU}
		a.EnsureUID()
		b.EnsureUID()
		assert.Equal(t, a.UID, b.UID)
		assert.Equal(t, "EU_NO_UID_Juan_Carlos___Pérez__S.A.", a.UID)
	})

	t.Run("长名称按40字符截断", func(t *testing.T) {
		e := &ParsedEntity{PrimaryName: strings.Repeat("x", 100), Source: SourceUK}
		e.EnsureUID()
		assert.Equal(t, "UK_NO_UID_"+strings.Repeat("x", 40), e.UID)
	})
}

func TestDedup(t *testing.T) {
	e := &ParsedEntity{
		Aliases: []ParsedAlias{
			{Name: "Juan", Type: "AKA"},
			{Name: "Juan", Type: "AKA"},
			{Name: "Juan", Type: "FKA"}, // 类型不同，非重复
		},
		Programs: []string{"SDGT", "SDGT", "IRAN"},
		Features: []ParsedFeature{
			{Type: "Gender", Value: "Male"},
			{Type: "Gender", Value: "Male"},
		},
	}
	e.Dedup()

	assert.Len(t, e.Aliases, 2)
	assert.Equal(t, []string{"SDGT", "IRAN"}, e.Programs)
	assert.Len(t, e.Features, 1)
	// 去重保序
	assert.Equal(t, "AKA", e.Aliases[0].Type)
	assert.Equal(t, "FKA", e.Aliases[1].Type)
}

func TestPrepareForStore(t *testing.T) {
	logger := logrus.New()
	entities := []*ParsedEntity{
		{UID: "UN-1", PrimaryName: "Juan"},
		{PrimaryName: "Sin ID"}, // 无uid，走降级
		{},                      // 无身份，应丢弃
	}

	out := PrepareForStore(entities, SourceUN, logger)

	assert.Len(t, out, 2)
	for _, e := range out {
		assert.Equal(t, SourceUN, e.Source)
		assert.NotEmpty(t, e.UID)
	}
	assert.Equal(t, "UN_NO_UID_Sin_ID", out[1].UID)
}
