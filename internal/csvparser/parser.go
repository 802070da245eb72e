// =============================================================================
// Withdrawal Reconciler - Delimited Extract Parser
// =============================================================================
//
// This module reads delimited-text extracts (CSV, pipe, tab, semicolon) into a
// types.Table. The whole file is read and closed before returning; no reader
// state survives the call.
//
// FEATURES:
//   - Configurable delimiter via ExtractSettings
//   - Ragged rows are padded with empty values
//   - Blank rows are skipped
//   - A UTF-8 byte order mark on the first header is removed
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

const utf8BOM = "\uFEFF"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited extract file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the extract.
//   - settings: The extract settings from the configuration.
//
// RETURNS:
//   - The parsed table.
//   - An error if the file cannot be read or has no header row.
func Parse(filePath string, settings config.ExtractSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads a delimited extract from r.
func ParseReader(r io.Reader, settings config.ExtractSettings) (*types.Table, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(allRows[0])
	return &types.Table{
		Headers: headers,
		Rows:    extractDataRows(allRows[1:], headers),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.ExtractSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// cleanHeaders strips the BOM from the first header and disambiguates empty
// and repeated names.
func cleanHeaders(headers []string) []string {
	raw := append([]string(nil), headers...)
	if len(raw) > 0 {
		raw[0] = strings.TrimPrefix(raw[0], utf8BOM)
	}
	return types.CleanHeaders(raw)
}

// extractDataRows converts data rows to header -> value maps. Values are kept
// verbatim; trimming is the normalizer's job.
func extractDataRows(rows [][]string, headers []string) []map[string]string {
	dataRows := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = row[colIndex]
			} else {
				rowMap[header] = ""
			}
		}
		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
