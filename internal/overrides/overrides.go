// Package overrides reads manually curated vendor/flavor/ingredient rows
// from CSV or XLSX files.
package overrides

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"sdsscan/internal/textutil"
)

// Warning is one override row. Every field is required.
type Warning struct {
	Vendor     string
	Flavor     string
	Ingredient string
	// Line is the 1-based record number, header included.
	Line int
}

// Result is the parsed file.
type Result struct {
	Warnings []Warning
	// Legacy is set when a CSV was decoded as Windows-1252.
	Legacy bool
	// Skipped counts non-blank rows missing a required column.
	Skipped int
}

var requiredColumns = []string{"vendor", "flavor", "ingredient"}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("override header is missing a required column")

// Load reads path, choosing the format by extension.
func Load(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read overrides: %w", err)
		}
		return ParseCSV(data)
	}
}

// ParseCSV parses CSV bytes. A UTF-8 BOM is ignored and invalid UTF-8 is
// decoded as Windows-1252.
func ParseCSV(data []byte) (Result, error) {
	text, legacy := textutil.DecodeLegacy(data)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("parse overrides csv: %w", err)
		}
		rows = append(rows, record)
	}
	result, err := fromRows(rows)
	result.Legacy = legacy
	return result, err
}

// ParseXLSX parses the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open overrides workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, errors.New("overrides workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func loadXLSX(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read overrides: %w", err)
	}
	return ParseXLSX(bytes.NewReader(data))
}

func fromRows(rows [][]string) (Result, error) {
	var result Result
	headerAt := -1
	for i, row := range rows {
		if !blank(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return result, nil
	}
	index, err := headerIndex(rows[headerAt])
	if err != nil {
		return result, err
	}
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		w := Warning{
			Vendor:     cell(row, index["vendor"]),
			Flavor:     cell(row, index["flavor"]),
			Ingredient: cell(row, index["ingredient"]),
			Line:       i + 1,
		}
		if w.Vendor == "" || w.Flavor == "" || w.Ingredient == "" {
			result.Skipped++
			continue
		}
		w.Vendor = strings.ToUpper(w.Vendor)
		result.Warnings = append(result.Warnings, w)
	}
	return result, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
