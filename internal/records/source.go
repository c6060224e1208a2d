package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// column indexes into a Record, in field order
const (
	colCommunityToAdd = iota
	colPhoneToAdd
	colCommunityToRemove
	colPhoneToRemove
	numColumns
)

// headerAliases maps normalized header names to record columns. The
// Spanish names are the ones the operators' spreadsheets use.
var headerAliases = map[string]int{
	"comunidad_agregar":   colCommunityToAdd,
	"community_to_add":    colCommunityToAdd,
	"celular_agregar":     colPhoneToAdd,
	"phone_to_add":        colPhoneToAdd,
	"comunidad_eliminar":  colCommunityToRemove,
	"community_to_remove": colCommunityToRemove,
	"celular_eliminar":    colPhoneToRemove,
	"phone_to_remove":     colPhoneToRemove,
}

// ErrNoColumns is returned when the header row names none of the known columns
var ErrNoColumns = errors.New("no record columns found in header")

// Load reads records from a .csv or .xlsx file. sheet is only used for
// workbooks; empty selects the first sheet.
func Load(path, sheet string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, sheet)
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

// LoadCSV reads records from CSV with a header row
func LoadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read: %w", err)
	}
	return fromRows(rows)
}

// LoadXLSX reads records from one worksheet using raw cell values, so phone
// numbers are not reformatted by the cell's number format
func LoadXLSX(path, sheet string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	colIx := [numColumns]int{-1, -1, -1, -1}
	found := false
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if c, ok := headerAliases[h]; ok {
			colIx[c] = i
			found = true
		}
	}
	if !found {
		return nil, ErrNoColumns
	}

	recs := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(c int) string {
			i := colIx[c]
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		recs = append(recs, Record{
			CommunityToAdd:    cell(colCommunityToAdd),
			PhoneToAdd:        cell(colPhoneToAdd),
			CommunityToRemove: cell(colCommunityToRemove),
			PhoneToRemove:     cell(colPhoneToRemove),
		})
	}
	return recs, nil
}
