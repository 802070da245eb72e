package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

func TestLocateExtract(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.csv", "notes.txt", "old.XLS"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	assert.NoError(t, LocateExtract(filepath.Join(dir, "a.csv")))

	err := LocateExtract(filepath.Join(dir, "withdrawal_reporting.xlsx"))
	var missing *types.SourceMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"a.csv", "b.xlsx", "old.XLS"}, missing.Available)
	assert.Contains(t, err.Error(), "a.csv, b.xlsx, old.XLS")

	err = LocateExtract(filepath.Join(dir, "sub.csv"))
	assert.True(t, errors.As(err, &missing), "directories are not extracts")
}

func TestListExtracts_UnreadableDirectory(t *testing.T) {
	assert.Empty(t, ListExtracts(filepath.Join(t.TempDir(), "missing")))
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("CNIC\nA\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("CNIC\nA\n"), 0644))

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)

	require.NoError(t, os.WriteFile(b, []byte("CNIC\nB\n"), 0644))
	fb, err = Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)

	_, err = Fingerprint(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestFingerprintBytes_MatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	data := []byte("CNIC\nA\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	fromFile, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fromFile, FingerprintBytes(data))
}

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2025, 4, 30, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		name   string
		format string
		params map[string]string
		ext    string
		want   string
	}{
		{"asof", "reconciled_data_{asof}", map[string]string{"asof": "2025-04-30"}, ".csv", "reconciled_data_2025-04-30.csv"},
		{"timestamp", "run_{timestamp}", nil, ".xlsx", "run_20250430_140509.xlsx"},
		{"date", "run_{date}", nil, ".csv", "run_20250430.csv"},
		{"extension kept", "fixed.CSV", nil, ".csv", "fixed.CSV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFileName(tt.format, tt.params, tt.ext, now))
		})
	}

	name := GenerateOutputFileName("x_{uuid}", nil, ".csv", now)
	assert.Len(t, name, len("x_")+36+len(".csv"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
