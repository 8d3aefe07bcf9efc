// Package report defines the tabular classification report rows and their
// xlsx persistence.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one classified statement with its resolved company metadata.
type Row struct {
	Source         string // artifact label the statement came from
	Type           string // Action or Metric
	Statement      string
	Status         string
	Category       string
	Framework      string
	Keywords       string
	Company        string
	Country        string
	Rating         string
	PrimaryListing string
	Industry       string
}

// Header is the fixed column set of the persisted report. The transient
// normalization key used during resolution is never part of it.
var Header = []string{
	"Source", "Type", "Statement", "Status", "Category", "Framework Metric",
	"Keywords", "Company", "Country", "Rating", "Primary Listing",
	"Industry Classification",
}

const sheet = "Sheet1"

func (r Row) cells() []any {
	return []any{
		r.Source, r.Type, r.Statement, r.Status, r.Category, r.Framework,
		r.Keywords, r.Company, r.Country, r.Rating, r.PrimaryListing, r.Industry,
	}
}

func rowFromCells(cells []string) Row {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return Row{
		Source:         get(0),
		Type:           get(1),
		Statement:      get(2),
		Status:         get(3),
		Category:       get(4),
		Framework:      get(5),
		Keywords:       get(6),
		Company:        get(7),
		Country:        get(8),
		Rating:         get(9),
		PrimaryListing: get(10),
		Industry:       get(11),
	}
}

// Write persists rows under the fixed header, through a temp file and rename.
func Write(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := row.cells()
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	return SaveWorkbook(f, path)
}

// SaveWorkbook writes a workbook through a temp file and renames it into
// place, so an interrupted save never corrupts an existing report.
func SaveWorkbook(f *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.xlsx")
	if err != nil {
		return err
	}
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read loads all rows from a persisted report, preserving order.
func Read(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report %s has no sheets", path)
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	var rows []Row
	for i, cells := range raw {
		if i == 0 {
			continue // header
		}
		if len(cells) == 0 || strings.TrimSpace(strings.Join(cells, "")) == "" {
			continue
		}
		rows = append(rows, rowFromCells(cells))
	}
	return rows, nil
}
