package xlsxparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
)

// writeWorkbook creates an .xlsx file with the given sheets.
func writeWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	path := filepath.Join(t.TempDir(), "extract.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse_XLSX_FirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Transactions": {
			{"", ""},
			{"CNIC", "", "Withdrawal Amount"},
			{"0042", "", "1500"},
			{"", ""},
			{"B", "note", "20"},
		},
		"Other": {{"X"}},
	}, []string{"Transactions", "Other"})

	table, err := Parse(path, config.ExtractSettings{})
	require.NoError(t, err)

	assert.Equal(t, []string{"CNIC", "Column_2", "Withdrawal Amount"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "0042", table.Rows[0]["CNIC"])
	assert.Equal(t, "1500", table.Rows[0]["Withdrawal Amount"])
	assert.Equal(t, "", table.Rows[0]["Column_2"])
	assert.Equal(t, "note", table.Rows[1]["Column_2"])
	assert.Equal(t, path, table.SourceFile)
}

func TestParse_XLSX_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Summary":  {{"ignored"}},
		"Balances": {{"CNIC", "Balance"}, {"A", "10"}},
	}, []string{"Summary", "Balances"})

	table, err := Parse(path, config.ExtractSettings{Sheet: "Balances"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CNIC", "Balance"}, table.Headers)
	assert.Equal(t, "10", table.Rows[0]["Balance"])

	_, err = Parse(path, config.ExtractSettings{Sheet: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Balances")
}

func TestParse_XLSX_EmptySheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{"Empty": {}}, []string{"Empty"})

	_, err := Parse(path, config.ExtractSettings{})
	assert.Error(t, err)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.xls"), config.ExtractSettings{})
	assert.Error(t, err)
}

func TestRowsToTable(t *testing.T) {
	table, err := rowsToTable([][]string{nil, {" CNIC ", "Balance"}, {"A"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CNIC", "Balance"}, table.Headers)
	assert.Equal(t, []map[string]string{{"CNIC": "A", "Balance": ""}}, table.Rows)
}

func TestRowsToTable_RepeatedHeaders(t *testing.T) {
	table, err := rowsToTable([][]string{{"CNIC", "Balance", "Balance"}, {"A", "10", "20"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CNIC", "Balance", "Balance_3"}, table.Headers)
	assert.Equal(t, []map[string]string{{"CNIC": "A", "Balance": "10", "Balance_3": "20"}}, table.Rows)
}

func TestParseBytes_XLSX(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Sheet1": {{"CNIC", "Balance"}, {"0042", "10"}},
	}, []string{"Sheet1"})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	table, err := ParseBytes(path, data, config.ExtractSettings{})
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, []map[string]string{{"CNIC": "0042", "Balance": "10"}}, table.Rows)
}
