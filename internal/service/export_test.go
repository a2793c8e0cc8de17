package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	db := newSeededDB(t)
	svc := NewExportService(db, logrus.New())

	var buf bytes.Buffer
	count, err := svc.ExportCSV(context.Background(), SearchParams{Name: "John Smith"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // 列头 + 3个命中
	assert.Equal(t, exportHeader, rows[0])

	// 与筛查同序：100分的EU-300、OFAC-100在前，80分的UN-200垫底
	assert.Equal(t, "EU-300", rows[1][0])
	assert.Equal(t, "Pedro Gomez", rows[1][1])
	assert.Equal(t, "John Smith (AKA)", rows[1][5])

	assert.Equal(t, "OFAC-100", rows[2][0])
	assert.Equal(t, "SDGT", rows[2][4])
	assert.Equal(t, "Passport: P99881", rows[2][7])
	assert.Equal(t, "Date of Birth: 1970-01-15 | Nationality: Russian", rows[2][8])

	assert.Equal(t, "UN-200", rows[3][0])
}

func TestExportRequiresCriteria(t *testing.T) {
	svc := NewExportService(newSeededDB(t), logrus.New())

	var buf bytes.Buffer
	_, err := svc.ExportCSV(context.Background(), SearchParams{}, &buf)
	assert.ErrorIs(t, err, ErrNoCriteria)
	assert.Zero(t, buf.Len())
}

func TestExportSearchParity(t *testing.T) {
	db := newSeededDB(t)
	searchSvc := NewSearchService(db, logrus.New())
	exportSvc := NewExportService(db, logrus.New())

	params := SearchParams{Name: "John Smith", DOB: "1970"}

	results, err := searchSvc.Search(context.Background(), params)
	require.NoError(t, err)

	var buf bytes.Buffer
	count, err := exportSvc.ExportCSV(context.Background(), params, &buf)
	require.NoError(t, err)
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// 相同参数：数量与uid集合一致
	require.Equal(t, len(results), count)
	require.Len(t, rows, len(results)+1)
	searched := make(map[string]struct{}, len(results))
	for _, r := range results {
		searched[r.UID] = struct{}{}
	}
	for _, row := range rows[1:] {
		assert.Contains(t, searched, row[0])
	}
}
