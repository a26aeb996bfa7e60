package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/models"
)

// DatasetService は学習用の表データ（CSV・Excel）を読み込みます。
type DatasetService struct{}

// NewDatasetService は新しいDatasetServiceを生成します。
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// Load は拡張子で形式を判定してファイルを読み込みます。
func (s *DatasetService) Load(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("データファイルを開けません: %w", err)
	}
	defer f.Close()

	table, err := s.Read(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logx.Info().Str("path", path).Int("rows", len(table)).Msg("dataset loaded")
	return table, nil
}

// Read はファイル名の拡張子に応じて CSV または .xlsx（先頭シート）として読み込みます。
func (s *DatasetService) Read(r io.Reader, fileName string) (models.Table, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("Excelファイルの読み込みに失敗: %w", err)
		}
		defer f.Close()
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("Excelシートの行取得に失敗: %w", err)
		}
	case ".csv", "":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		var err error
		rows, err = cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("CSVファイルの解析に失敗: %w", err)
		}
	default:
		return nil, fmt.Errorf("サポートされていないファイル形式です: %s", fileName)
	}
	return rowsToTable(rows)
}

// normalizeHeader は列名を小文字・スネークケースにそろえます。
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// rowsToTable は先頭行をヘッダーとしてレコードに変換します。
// ヘッダーより短い行の不足セルは空文字（欠損）として扱います。
func rowsToTable(rows [][]string) (models.Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("ファイルにはヘッダー行と少なくとも1行のデータが必要です")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalizeHeader(h)
	}

	table := make(models.Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(models.Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = strings.TrimSpace(row[i])
			} else {
				rec[col] = ""
			}
		}
		table = append(table, rec)
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
