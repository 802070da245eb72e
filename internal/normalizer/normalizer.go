// =============================================================================
// Withdrawal Reconciler - Record Normalizer
// =============================================================================
//
// This module turns raw extract tables into typed records.
//
// RULES:
//   - Identifiers are trimmed and kept as strings. "0042" and "42" differ.
//   - The identifier column is required in both extracts (SchemaError).
//   - Timestamps use the configured layout, also accepting day, month,
//     minute and second without zero padding ("8-4-2025 9:05:00"). Blank or
//     bad cells become absent.
//   - Amounts, balances and coordinates are decimals; thousands separators
//     are stripped. Blank cells are absent, bad cells are absent plus a
//     ParseError.
//   - Optional columns that are missing from the header just leave the field
//     absent on every record.
//
// =============================================================================

package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// Extract names used in errors.
const (
	TransactionExtract = "transaction"
	LegacyExtract      = "legacy"
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer coerces raw tables into records.
type Normalizer struct {
	txColumns     config.ColumnNames
	legacyColumns config.ColumnNames
	layouts       []string
}

// New creates a Normalizer from the main configuration.
func New(cfg *config.MainConfig) *Normalizer {
	return &Normalizer{
		txColumns:     cfg.Transactions.Columns,
		legacyColumns: cfg.Legacy.Columns,
		layouts:       timestampLayouts(cfg.TimestampLayout),
	}
}

// unpadded maps zero-padded layout elements to forms that accept one or two
// digits.
var unpadded = strings.NewReplacer("01", "1", "02", "2", "04", "4", "05", "5")

// timestampLayouts returns layout followed by its unpadded variant, if any.
func timestampLayouts(layout string) []string {
	if loose := unpadded.Replace(layout); loose != layout {
		return []string{layout, loose}
	}
	return []string{layout}
}

// Transactions normalizes the transaction extract.
//
// RETURNS:
//   - One record per data row, in input order.
//   - The cell-level parse errors (non-fatal).
//   - A *types.SchemaError if the identifier column is missing.
func (n *Normalizer) Transactions(table *types.Table) ([]types.TransactionRecord, []*types.ParseError, error) {
	cols := n.txColumns
	if !table.HasColumn(cols.Identifier) {
		return nil, nil, &types.SchemaError{Extract: TransactionExtract, Column: cols.Identifier}
	}

	c := cellReader{extract: TransactionExtract}
	records := make([]types.TransactionRecord, 0, len(table.Rows))

	for i, row := range table.Rows {
		c.row = i + 1
		records = append(records, types.TransactionRecord{
			Identifier: NormalizeIdentifier(row[cols.Identifier]),
			Timestamp:  c.timestamp(row, cols.Timestamp, n.layouts),
			Withdrawal: c.decimal(row, cols.Amount),
			District:   strings.TrimSpace(row[cols.District]),
			Latitude:   c.decimal(row, cols.Latitude),
			Longitude:  c.decimal(row, cols.Longitude),
			Accuracy:   c.decimal(row, cols.Accuracy),
			Raw:        row,
			Row:        c.row,
		})
	}

	return records, c.errs, nil
}

// Legacy normalizes the legacy balance extract.
func (n *Normalizer) Legacy(table *types.Table) ([]types.LegacyBalanceRecord, []*types.ParseError, error) {
	cols := n.legacyColumns
	if !table.HasColumn(cols.Identifier) {
		return nil, nil, &types.SchemaError{Extract: LegacyExtract, Column: cols.Identifier}
	}

	c := cellReader{extract: LegacyExtract}
	records := make([]types.LegacyBalanceRecord, 0, len(table.Rows))

	for i, row := range table.Rows {
		c.row = i + 1
		records = append(records, types.LegacyBalanceRecord{
			Identifier: NormalizeIdentifier(row[cols.Identifier]),
			Balance:    c.decimal(row, cols.Balance),
			Row:        c.row,
		})
	}

	return records, c.errs, nil
}

// NormalizeIdentifier returns the canonical form of an identifier cell.
func NormalizeIdentifier(raw string) string {
	return strings.TrimSpace(raw)
}

// =============================================================================
// CELL COERCION
// =============================================================================

// cellReader parses cells of one extract and collects the failures.
type cellReader struct {
	extract string
	row     int
	errs    []*types.ParseError
}

func (c *cellReader) timestamp(row map[string]string, column string, layouts []string) types.NullTime {
	raw, ok := row[column]
	value := strings.TrimSpace(raw)
	if !ok || value == "" {
		return types.NullTime{}
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return types.NullTime{Time: t, Valid: true}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	c.fail(column, raw, firstErr)
	return types.NullTime{}
}

func (c *cellReader) decimal(row map[string]string, column string) decimal.NullDecimal {
	raw, ok := row[column]
	if !ok {
		return decimal.NullDecimal{}
	}

	d, valid, err := ParseDecimal(raw)
	if err != nil {
		c.fail(column, raw, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: valid}
}

func (c *cellReader) fail(column, value string, err error) {
	c.errs = append(c.errs, &types.ParseError{
		Extract: c.extract,
		Row:     c.row,
		Column:  column,
		Value:   value,
		Err:     err,
	})
}

// ParseDecimal parses a numeric cell. valid is false for blank cells and on
// error.
func ParseDecimal(raw string) (d decimal.Decimal, valid bool, err error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false, nil
	}

	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("not a number")
	}
	return d, true, nil
}
