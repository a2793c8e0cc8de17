package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// exportHeader 导出文件列头（下游对账脚本按列名取数，顺序不可改）
var exportHeader = []string{
	"UID", "Primary Name", "Type", "Source",
	"Programs", "Aliases", "Addresses", "IDs", "Additional Info",
}

// ExportService 把同一套筛查结果序列化为CSV：与/api/search共用检索语义，
// 相同参数必然得到相同的实体集合
type ExportService struct {
	logger *logrus.Logger
	search *SearchService
}

func NewExportService(db *gorm.DB, logger *logrus.Logger) *ExportService {
	return &ExportService{
		logger: logger,
		search: NewSearchService(db, logger),
	}
}

// ExportCSV 按筛查参数执行检索并写出CSV，每实体一行，多值列用" | "拼接
func (s *ExportService) ExportCSV(ctx context.Context, params SearchParams, w io.Writer) (int, error) {
	results, err := s.search.Search(ctx, params)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("写入列头失败: %w", err)
	}

	for _, r := range results {
		aliases := make([]string, 0, len(r.Aliases))
		for _, alias := range r.Aliases {
			if alias.Type != "" {
				aliases = append(aliases, fmt.Sprintf("%s (%s)", alias.Name, alias.Type))
			} else {
				aliases = append(aliases, alias.Name)
			}
		}
		ids := make([]string, 0, len(r.Identifiers))
		for _, ident := range r.Identifiers {
			ids = append(ids, fmt.Sprintf("%s: %s", ident.DocType, ident.DocNumber))
		}
		info := make([]string, 0, len(r.Features))
		for _, feat := range r.Features {
			info = append(info, fmt.Sprintf("%s: %s", feat.Type, feat.Value))
		}

		row := []string{
			r.UID,
			r.PrimaryName,
			string(r.Type),
			string(r.Source),
			strings.Join(r.Programs, " | "),
			strings.Join(aliases, " | "),
			strings.Join(r.Addresses, " | "),
			strings.Join(ids, " | "),
			strings.Join(info, " | "),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("写入实体%s失败: %w", r.UID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("导出刷盘失败: %w", err)
	}
	s.logger.Infof("导出完成，共%d个实体", len(results))
	return len(results), nil
}
