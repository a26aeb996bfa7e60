//go:build ignore

package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"oil-sales-api/internal/sampledata"
	"oil-sales-api/pkg/models"
)

func main() {
	rows := flag.Int("rows", 5000, "number of records")
	seed := flag.Int64("seed", 42, "random seed")
	out := flag.String("out", "data/oil_sales_assignment_dataset.csv", "output CSV path (an .xlsx copy is written next to it)")
	flag.Parse()

	log.Printf("🛢️ 模擬販売データを生成します (rows=%d, seed=%d)", *rows, *seed)
	table := sampledata.Generate(*rows, *seed)

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("出力ディレクトリの作成に失敗: %v", err)
	}
	if err := writeCSV(*out, table); err != nil {
		log.Fatalf("CSVの書き込みに失敗: %v", err)
	}
	log.Printf("✅ %s", *out)

	xlsxPath := (*out)[:len(*out)-len(filepath.Ext(*out))] + ".xlsx"
	if err := writeXLSX(xlsxPath, table); err != nil {
		log.Fatalf("Excelの書き込みに失敗: %v", err)
	}
	log.Printf("✅ %s", xlsxPath)
}

func writeCSV(path string, table models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.RequiredColumns); err != nil {
		return err
	}
	for _, rec := range table {
		row := make([]string, len(models.RequiredColumns))
		for i, col := range models.RequiredColumns {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, table models.Table) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(models.RequiredColumns))
	for i, col := range models.RequiredColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, rec := range table {
		row := make([]interface{}, len(models.RequiredColumns))
		for i, col := range models.RequiredColumns {
			row[i] = rec[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
