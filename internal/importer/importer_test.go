package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/odaworks/delivery-cli/internal/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV_Basic(t *testing.T) {
	path := writeTempCSV(t, `requirement_id,function_name,domain_hint
R-001,Customer Account Management,Customer Domain
R-002,Product Catalog Management,
`)

	records, err := ReadCSV(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "R-001", records[0].RequirementID)
	assert.Equal(t, "Customer Account Management", records[0].FunctionNameRaw)
	assert.Equal(t, "Customer Domain", records[0].DomainHint)
	assert.Empty(t, records[1].DomainHint)
}

func TestReadCSV_HeaderCaseInsensitive(t *testing.T) {
	path := writeTempCSV(t, `Requirement_ID,Function_Name
R-001,Billing
`)

	records, err := ReadCSV(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Billing", records[0].FunctionNameRaw)
}

func TestReadCSV_CustomColumns(t *testing.T) {
	path := writeTempCSV(t, `Req ID,Capability,Area
R-001,Payment Management,Customer Domain
`)

	records, err := ReadCSV(path, Options{Columns: ColumnMap{
		RequirementID: "Req ID",
		FunctionName:  "Capability",
		DomainHint:    "Area",
	}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Payment Management", records[0].FunctionNameRaw)
	assert.Equal(t, "Customer Domain", records[0].DomainHint)
}

func TestReadCSV_MissingColumns(t *testing.T) {
	path := writeTempCSV(t, `id,description
R-001,whatever
`)

	_, err := ReadCSV(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "function_name")
}

func TestReadCSV_SkipsBlankFunctionNames(t *testing.T) {
	path := writeTempCSV(t, `requirement_id,function_name
R-001,Customer Account Management
R-002,
R-003,
R-004,Billing
`)

	records, err := ReadCSV(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "R-001", records[0].RequirementID)
	assert.Equal(t, "R-004", records[1].RequirementID)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	_, err := ReadFile("reqs.txt", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestReadXLSX_Basic(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Requirements")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"requirement_id", "function_name", "domain_hint"} {
		header.AddCell().SetString(h)
	}
	row1 := sheet.AddRow()
	row1.AddCell().SetString("R-001")
	row1.AddCell().SetString("Service Order Management")
	row1.AddCell().SetString("Service Domain")

	path := filepath.Join(t.TempDir(), "reqs.xlsx")
	require.NoError(t, f.Save(path))

	records, err := ReadFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "R-001", records[0].RequirementID)
	assert.Equal(t, "Service Order Management", records[0].FunctionNameRaw)
	assert.Equal(t, "Service Domain", records[0].DomainHint)
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	f := xlsx.NewFile()
	_, err := f.AddSheet("Sheet1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reqs.xlsx")
	require.NoError(t, f.Save(path))

	_, err = ReadXLSX(path, Options{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestWriteAssignmentsCSV(t *testing.T) {
	assignments := []model.Assignment{
		{RequirementID: "R-001", FunctionID: "cu-001", FunctionName: "Customer Account Management", DomainName: "Customer Domain", Confidence: 1.0},
		{RequirementID: "R-002", FunctionID: "pr-001", FunctionName: "Product Catalog Management", DomainName: "Product Domain", Confidence: 0.8},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAssignmentsCSV(&buf, assignments))

	out := buf.String()
	assert.Contains(t, out, "requirement_id")
	assert.Contains(t, out, "R-001,cu-001,Customer Account Management,Customer Domain,1")
	assert.Contains(t, out, "R-002,pr-001")
}
