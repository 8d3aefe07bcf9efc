// Package registry reads the canonical company registry: the trusted list of
// known companies and their metadata, used as the join target for entity
// resolution. The registry file is read-only for the whole pipeline.
package registry

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Company is one registry row, in file order.
type Company struct {
	Name           string
	Country        string
	Rating         string
	PrimaryListing string
	Industry       string
}

// Column headers expected in the registry sheet.
const (
	ColCompany  = "Company"
	ColCountry  = "Country"
	ColRating   = "Rating"
	ColListing  = "Primary Listing"
	ColIndustry = "Industry Classification"
)

// Load reads all companies from the first sheet of an xlsx registry file,
// preserving row order.
func Load(path string) ([]Company, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("registry %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read registry rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registry %s is empty", path)
	}

	index := headerIndex(rows[0])
	nameCol := index.col(ColCompany)
	if nameCol < 0 {
		return nil, fmt.Errorf("registry %s is missing the %q column", path, ColCompany)
	}

	var companies []Company
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}
		companies = append(companies, Company{
			Name:           name,
			Country:        strings.TrimSpace(cell(row, index.col(ColCountry))),
			Rating:         strings.TrimSpace(cell(row, index.col(ColRating))),
			PrimaryListing: strings.TrimSpace(cell(row, index.col(ColListing))),
			Industry:       strings.TrimSpace(cell(row, index.col(ColIndustry))),
		})
	}
	return companies, nil
}

type columns map[string]int

func headerIndex(header []string) columns {
	index := columns{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func (c columns) col(name string) int {
	if i, ok := c[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// cell tolerates the ragged rows excelize returns for trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
