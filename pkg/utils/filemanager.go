// =============================================================================
// Withdrawal Reconciler - File Manager Utility
// =============================================================================
//
// This module provides the file helpers used around the pipeline:
//   - Locating extracts (with a list of alternatives when one is missing)
//   - Content fingerprints used as memo keys
//   - Export directory management and file naming
//
// =============================================================================

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// ExtractExtensions are the file extensions the loader can read.
var ExtractExtensions = []string{".csv", ".xlsx", ".xls"}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// LocateExtract checks that an extract exists and is a regular file.
//
// RETURNS:
//   - nil if the file exists.
//   - A *types.SourceMissingError listing the extract files found in the same
//     directory otherwise.
func LocateExtract(path string) error {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &types.SourceMissingError{
		Path:      path,
		Available: ListExtracts(filepath.Dir(path)),
	}
}

// ListExtracts returns the base names of readable extract files in dir,
// sorted. Unreadable directories yield an empty list.
func ListExtracts(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range ExtractExtensions {
			if ext == allowed {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// FINGERPRINTS
// =============================================================================

// Fingerprint returns the hex SHA-256 of the file content.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintBytes returns the hex SHA-256 of data. It equals Fingerprint
// of a file holding data.
func FingerprintBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// GenerateOutputFileName expands an export name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     plus any key in params, e.g. {asof}
//   - params: Extra placeholder values.
//   - ext: The extension to enforce, e.g. ".csv".
//
// EXAMPLE:
//   format: "reconciled_data_{asof}"
//   params: {"asof": "2025-04-30"}
//   output: "reconciled_data_2025-04-30.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string, now time.Time) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ext) {
		result += ext
	}
	return result
}
