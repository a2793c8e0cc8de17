package service

import (
	"context"
	"testing"

	"SanctionsSync/internal/model"
	"SanctionsSync/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Entity{}, &model.Alias{}, &model.Address{},
		&model.Program{}, &model.Identifier{}, &model.Feature{},
		&model.SourceRun{},
	))

	entities := []*model.ParsedEntity{
		{
			UID:         "OFAC-100",
			PrimaryName: "John Smith",
			Type:        model.TypeIndividual,
			Source:      model.SourceOFAC,
			Aliases:     []model.ParsedAlias{{Name: "Johnny S.", Type: "AKA"}},
			Programs:    []string{"SDGT"},
			Features: []model.ParsedFeature{
				{Type: "Date of Birth", Value: "1970-01-15"},
				{Type: "Nationality", Value: "Russian"},
			},
			Identifiers: []model.ParsedIdentifier{
				{DocType: "Passport", DocNumber: "P99881"},
			},
		},
		{
			UID:         "UN-200",
			PrimaryName: "Jon Smyth",
			Type:        model.TypeIndividual,
			Source:      model.SourceUN,
			Features: []model.ParsedFeature{
				{Type: "Date of Birth (EXACT)", Value: "1980-05-02"},
			},
		},
		{
			UID:         "EU-300",
			PrimaryName: "Pedro Gomez",
			Type:        model.TypeIndividual,
			Source:      model.SourceEU,
			Aliases:     []model.ParsedAlias{{Name: "John Smith", Type: "AKA"}},
		},
		{
			UID:         "UK-400",
			PrimaryName: "ACME DEFENCE LLC",
			Type:        model.TypeEntity,
			Source:      model.SourceUK,
		},
	}
	repo := repository.NewEntityRepository(db, logrus.New(), 200)
	require.NoError(t, repo.UpsertEntities(context.Background(), entities, model.SourceOFAC))
	return db
}

func TestSearchNoCriteria(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())
	_, err := svc.Search(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrNoCriteria)
}

func TestSearchFuzzyRanking(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{Name: "John Smith"})
	require.NoError(t, err)
	// 默认阈值80：完全命中100分两条（主名称与别名），拼写变体80分一条
	require.Len(t, results, 3)

	// 分数非增排列
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 80, results[2].Score)
	assert.Equal(t, "UN-200", results[2].UID)
	assert.Equal(t, "Jon Smyth", results[2].MatchedOn)
}

func TestSearchThreshold(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{Name: "John Smith", Threshold: 95})
	require.NoError(t, err)
	// 阈值95把80分的拼写变体挡在外面
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 100, r.Score)
	}
}

func TestSearchExcludeAliases(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{
		Name: "John Smith", Threshold: 95, ExcludeAliases: true,
	})
	require.NoError(t, err)
	// 别名命中的EU-300被排除
	require.Len(t, results, 1)
	assert.Equal(t, "OFAC-100", results[0].UID)
}

func TestSearchExactMode(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{Name: "john smith", Exact: true})
	require.NoError(t, err)
	// 大小写不敏感等值：主名称命中 + 别名命中，拼写变体不命中
	require.Len(t, results, 2)
	uids := []string{results[0].UID, results[1].UID}
	assert.Contains(t, uids, "OFAC-100")
	assert.Contains(t, uids, "EU-300")
	for _, r := range results {
		assert.Equal(t, 100, r.Score)
	}
}

func TestSearchFilterConjunction(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())
	ctx := context.Background()

	// 姓名+出生日期：交集只剩OFAC-100
	results, err := svc.Search(ctx, SearchParams{Name: "John Smith", DOB: "1970"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "OFAC-100", results[0].UID)

	// 出生日期过滤按类型子串匹配，带限定词的"Date of Birth (EXACT)"同样命中
	results, err = svc.Search(ctx, SearchParams{DOB: "1980"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "UN-200", results[0].UID)

	// 互斥条件交集为空
	results, err = svc.Search(ctx, SearchParams{DOB: "1970", Nationality: "French"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchNameMissShortCircuits(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	// 姓名无命中时即使过滤条件有命中也返回空，结构化过滤不兜底
	results, err := svc.Search(context.Background(), SearchParams{
		Name: "Zebra Quilt", DOB: "1970",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByGovID(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{GovID: "9988"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "OFAC-100", results[0].UID)
	// 无名称检索时不带分数
	assert.Zero(t, results[0].Score)
}

func TestSearchResultEnrichment(t *testing.T) {
	svc := NewSearchService(newSeededDB(t), logrus.New())

	results, err := svc.Search(context.Background(), SearchParams{Name: "John Smith", Threshold: 95, ExcludeAliases: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "John Smith", r.PrimaryName)
	assert.Equal(t, model.TypeIndividual, r.Type)
	assert.Equal(t, model.SourceOFAC, r.Source)
	require.Len(t, r.Aliases, 1)
	assert.Equal(t, "Johnny S.", r.Aliases[0].Name)
	assert.Equal(t, []string{"SDGT"}, r.Programs)
	require.Len(t, r.Identifiers, 1)
	assert.Equal(t, "P99881", r.Identifiers[0].DocNumber)
	assert.Len(t, r.Features, 2)
}
