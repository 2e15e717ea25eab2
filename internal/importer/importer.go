// Package importer reads requirement lists from CSV and XLSX files.
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/odaworks/delivery-cli/internal/model"
)

// ColumnMap names the columns a requirement file must provide. Header
// matching is case-insensitive.
type ColumnMap struct {
	RequirementID string
	FunctionName  string
	DomainHint    string // optional column
}

// DefaultColumnMap matches the usual requirement export headers.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		RequirementID: "requirement_id",
		FunctionName:  "function_name",
		DomainHint:    "domain_hint",
	}
}

// Options configures a requirement file read.
type Options struct {
	Columns   ColumnMap
	SheetName string // XLSX only; default first sheet
}

// ReadFile reads requirements from path, dispatching on file extension.
func ReadFile(path string, opts Options) ([]model.RequirementRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path, opts)
	case ".xlsx":
		return ReadXLSX(path, opts)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads requirements from a CSV file with a header row.
func ReadCSV(path string, opts Options) ([]model.RequirementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read header %s", path)
	}

	cols, err := resolveColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	var records []model.RequirementRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read %s line %d", path, line)
		}
		rec, ok := recordFromRow(row, cols)
		if ok {
			records = append(records, rec)
		}
	}

	zap.L().Info("requirements read",
		zap.String("file", path),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// ReadXLSX reads requirements from the first row-headed sheet of an
// XLSX workbook.
func ReadXLSX(path string, opts Options) ([]model.RequirementRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("importer: %s has no rows", path)
	}

	header := rowToStrings(sheet.Rows[0])
	cols, err := resolveColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	var records []model.RequirementRecord
	for _, row := range sheet.Rows[1:] {
		rec, ok := recordFromRow(rowToStrings(row), cols)
		if ok {
			records = append(records, rec)
		}
	}

	zap.L().Info("requirements read",
		zap.String("file", path),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// resolvedColumns holds header indexes after matching. A hint index of
// -1 means the file has no domain hint column.
type resolvedColumns struct {
	id   int
	name int
	hint int
}

func resolveColumns(header []string, cm ColumnMap) (resolvedColumns, error) {
	if cm.RequirementID == "" || cm.FunctionName == "" {
		cm = applyDefaults(cm)
	}

	cols := resolvedColumns{id: -1, name: -1, hint: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(cm.RequirementID):
			cols.id = i
		case strings.ToLower(cm.FunctionName):
			cols.name = i
		case strings.ToLower(cm.DomainHint):
			cols.hint = i
		}
	}

	var missing []string
	if cols.id < 0 {
		missing = append(missing, cm.RequirementID)
	}
	if cols.name < 0 {
		missing = append(missing, cm.FunctionName)
	}
	if len(missing) > 0 {
		return cols, eris.Errorf("importer: missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func applyDefaults(cm ColumnMap) ColumnMap {
	def := DefaultColumnMap()
	if cm.RequirementID == "" {
		cm.RequirementID = def.RequirementID
	}
	if cm.FunctionName == "" {
		cm.FunctionName = def.FunctionName
	}
	if cm.DomainHint == "" {
		cm.DomainHint = def.DomainHint
	}
	return cm
}

// recordFromRow builds a record from one data row, skipping rows with
// no function name.
func recordFromRow(row []string, cols resolvedColumns) (model.RequirementRecord, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := model.RequirementRecord{
		RequirementID:   cell(cols.id),
		FunctionNameRaw: cell(cols.name),
		DomainHint:      cell(cols.hint),
	}
	if rec.FunctionNameRaw == "" {
		return rec, false
	}
	return rec, true
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
