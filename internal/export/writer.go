// =============================================================================
// Withdrawal Reconciler - Export Writer
// =============================================================================
//
// This module writes the reconciled relation and the trend table to files.
//
// OUTPUT LAYOUT:
//   Records: every source column in file order, then the derived columns
//
//   CNIC | Transaction Time | ... | Reconciliation Status | Legacy Balance | Balance Category
//
//   Source cells are written exactly as read. Derived cells use the display
//   label for the category.
//
//   XLSX workbooks get a second sheet with the daily trend and grand total.
//
// =============================================================================

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/trend"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
	"github.com/ginjaninja78/withdrawal-reconciliation/pkg/utils"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// AsOfLayout formats the {asof} file name placeholder.
const AsOfLayout = "2006-01-02"

// TrendHeaders are the columns of the trend sheet.
var TrendHeaders = []string{"Date", "Entities", "Amount", "% Change", "Avg per Entity"}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options contains options for workbook generation.
type Options struct {
	// RecordsSheet is the name of the records worksheet.
	// Default: "Reconciled"
	RecordsSheet string

	// TrendSheet is the name of the trend worksheet. Empty skips the sheet.
	// Default: "Daily Trend"
	TrendSheet string

	// ColumnWidth is applied to every used column.
	// Default: 18
	ColumnWidth float64
}

// DefaultOptions returns the default workbook options.
func DefaultOptions() Options {
	return Options{
		RecordsSheet: "Reconciled",
		TrendSheet:   "Daily Trend",
		ColumnWidth:  18,
	}
}

// Dataset is what gets exported.
type Dataset struct {
	// Columns are the source columns in file order.
	Columns []string
	Records []types.ReconciledRecord
	Trend   []types.DailyTrendRow
	AsOf    types.NullTime
}

// =============================================================================
// ROW RENDERING
// =============================================================================

// Headers returns the export header: source columns then derived columns.
func Headers(sourceColumns []string) []string {
	out := make([]string, 0, len(sourceColumns)+len(types.DerivedColumns))
	out = append(out, sourceColumns...)
	return append(out, types.DerivedColumns...)
}

// RowValues renders one record in header order.
func RowValues(r types.ReconciledRecord, sourceColumns []string) []string {
	out := make([]string, 0, len(sourceColumns)+len(types.DerivedColumns))
	for _, c := range sourceColumns {
		out = append(out, r.Raw[c])
	}
	return append(out,
		r.Status.String(),
		r.Balance.String(),
		reconciler.CategoryLabel(r.BalanceCategory),
	)
}

// TrendValues renders one trend row in TrendHeaders order.
func TrendValues(row types.DailyTrendRow) []string {
	avg := "-"
	if row.HasAverage {
		avg = fmt.Sprintf("%d", row.Average)
	}
	return []string{
		row.Label,
		fmt.Sprintf("%d", row.Entities),
		row.Amount.String(),
		trend.FormatPercent(row.PercentChange),
		avg,
	}
}

// =============================================================================
// CSV
// =============================================================================

// WriteCSV writes the records as comma-separated text with a header row.
func WriteCSV(w io.Writer, sourceColumns []string, records []types.ReconciledRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers(sourceColumns)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(RowValues(r, sourceColumns)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.Row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// =============================================================================
// XLSX
// =============================================================================

// BuildWorkbook creates a workbook holding the records and, when
// options.TrendSheet is set, the trend table. The caller must Close it.
func BuildWorkbook(data Dataset, options Options) (*excelize.File, error) {
	f := excelize.NewFile()

	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, options.RecordsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name records sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	rows := make([][]string, 0, len(data.Records))
	for _, r := range data.Records {
		rows = append(rows, RowValues(r, data.Columns))
	}
	if err := writeSheet(f, options.RecordsSheet, Headers(data.Columns), rows, bold, options.ColumnWidth); err != nil {
		f.Close()
		return nil, err
	}

	if options.TrendSheet != "" {
		if _, err := f.NewSheet(options.TrendSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add trend sheet: %w", err)
		}
		trendRows := make([][]string, 0, len(data.Trend))
		for _, row := range data.Trend {
			trendRows = append(trendRows, TrendValues(row))
		}
		if err := writeSheet(f, options.TrendSheet, TrendHeaders, trendRows, bold, options.ColumnWidth); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// WriteXLSX writes the workbook to w.
func WriteXLSX(w io.Writer, data Dataset, options Options) error {
	f, err := BuildWorkbook(data, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int, width float64) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(header) > 0 && width > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, width); err != nil {
			return fmt.Errorf("failed to size columns of %s: %w", sheet, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter writes datasets to the configured directory in the configured
// formats.
type Exporter struct {
	settings config.ExportSettings
	options  Options
	now      func() time.Time
}

// New creates an Exporter.
func New(settings config.ExportSettings) *Exporter {
	return &Exporter{settings: settings, options: DefaultOptions(), now: time.Now}
}

// Export writes one file per configured format.
//
// RETURNS:
//   - The paths of the files written, in format order.
//   - An error if the directory cannot be created or a file cannot be written.
//     Files already written are left in place.
func (e *Exporter) Export(ctx context.Context, data Dataset) ([]string, error) {
	if err := utils.EnsureDir(e.settings.Dir); err != nil {
		return nil, err
	}

	asOf := "undated"
	if data.AsOf.Valid {
		asOf = data.AsOf.Time.Format(AsOfLayout)
	}
	params := map[string]string{"asof": asOf}
	now := e.now()

	var written []string
	for _, format := range e.settings.Formats {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		format = strings.ToLower(format)
		name := utils.GenerateOutputFileName(e.settings.NameFormat, params, "."+format, now)
		path := filepath.Join(e.settings.Dir, name)

		if err := e.writeFile(path, format, data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (e *Exporter) writeFile(path, format string, data Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(file, data.Columns, data.Records)
	case FormatXLSX:
		err = WriteXLSX(file, data, e.options)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return file.Close()
}
