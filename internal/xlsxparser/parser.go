// =============================================================================
// Withdrawal Reconciler - Spreadsheet Extract Parser
// =============================================================================
//
// This module reads spreadsheet extracts into a types.Table:
//   - ".xlsx" workbooks through excelize
//   - ".xls" (BIFF) workbooks from the legacy system through extrame/xls
//
// The first non-empty row of the selected sheet is the header row. Cells are
// read as their formatted text, so identifiers such as "0042" keep their
// leading zeros.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a spreadsheet extract, dispatching on the file extension.
//
// PARAMETERS:
//   - path: The path to the ".xlsx" or ".xls" file.
//   - settings: The extract settings (Sheet selects the worksheet).
//
// RETURNS:
//   - The parsed table.
//   - An error if the workbook cannot be opened or the sheet does not exist.
func Parse(path string, settings config.ExtractSettings) (*types.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return ParseBytes(path, data, settings)
}

// ParseBytes parses workbook content that was already read from name. The
// extension of name selects the format.
func ParseBytes(name string, data []byte, settings config.ExtractSettings) (*types.Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls":
		rows, err = readXLS(bytes.NewReader(data), settings.Sheet)
	default:
		rows, err = readXLSX(bytes.NewReader(data), settings.Sheet)
	}
	if err != nil {
		return nil, err
	}

	table, err := rowsToTable(rows)
	if err != nil {
		return nil, err
	}
	table.SourceFile = name
	return table, nil
}

// readXLSX returns all rows of the requested sheet of an .xlsx workbook.
func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if !containsSheet(f.GetSheetList(), sheet) {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// readXLS returns all rows of the requested sheet of a BIFF .xls workbook.
func readXLS(r io.ReadSeeker, sheet string) ([][]string, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	var ws *xls.WorkSheet
	names := make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		names = append(names, s.Name)
		if ws == nil && (sheet == "" || s.Name == sheet) {
			ws = s
		}
	}
	if ws == nil {
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(names, ", "))
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// rowsToTable turns raw sheet rows into a table. Leading blank rows are
// skipped; the first non-blank row is the header.
func rowsToTable(rows [][]string) (*types.Table, error) {
	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("sheet is empty")
	}

	headers := types.CleanHeaders(rows[start])
	table := &types.Table{Headers: headers}
	for _, row := range rows[start+1:] {
		if isRowEmpty(row) {
			continue
		}
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				m[h] = row[i]
			} else {
				m[h] = ""
			}
		}
		table.Rows = append(table.Rows, m)
	}
	return table, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func containsSheet(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
