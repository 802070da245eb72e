package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/pipeline"
	mock_pipeline "github.com/ginjaninja78/withdrawal-reconciliation/internal/pipeline/mocks"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

func TestBuildSpec(t *testing.T) {
	spec, err := buildSpec("2025-04-18", "2025-04-20", []string{"District Name=Lahore", " Agent = A=1"}, "shop")
	require.NoError(t, err)

	require.NotNil(t, spec.DateFrom)
	require.NotNil(t, spec.DateTo)
	assert.Equal(t, time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC), *spec.DateFrom)
	assert.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), *spec.DateTo)
	assert.Equal(t, map[string]string{"District Name": "Lahore", "Agent": " A=1"}, spec.Equals)
	assert.Equal(t, "shop", spec.Text)

	spec, err = buildSpec("", "", nil, "")
	require.NoError(t, err)
	assert.Nil(t, spec.DateFrom)
	assert.Nil(t, spec.Equals)
}

func TestBuildSpec_Errors(t *testing.T) {
	_, err := buildSpec("18-04-2025", "", nil, "")
	assert.Error(t, err)

	_, err = buildSpec("", "tomorrow", nil, "")
	assert.Error(t, err)

	_, err = buildSpec("", "", []string{"no-separator"}, "")
	assert.Error(t, err)

	_, err = buildSpec("", "", []string{"=value"}, "")
	assert.Error(t, err)
}

func TestScheduledRun_ExportsEachResultOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log = zerolog.Nop()
	cfg, err := config.LoadMainConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	extracts := &pipeline.Extracts{
		Transactions: &types.Table{Headers: []string{"CNIC"}, Rows: []map[string]string{{"CNIC": "A"}}},
		Legacy:       &types.Table{Headers: []string{"CNIC"}},
	}
	source := mock_pipeline.NewMockSource(ctrl)
	gomock.InOrder(
		source.EXPECT().Fingerprint(gomock.Any()).Return("fp-1", nil).Times(2),
		source.EXPECT().Fingerprint(gomock.Any()).Return("", errors.New("locked")),
		source.EXPECT().Fingerprint(gomock.Any()).Return("fp-2", nil),
	)
	source.EXPECT().Load(gomock.Any()).Return(extracts, nil).Times(2)

	runner, err := pipeline.NewRunner(cfg, source)
	require.NoError(t, err)

	var exported []string
	job := &scheduledRun{runner: runner, export: func(_ context.Context, r *pipeline.Result) error {
		exported = append(exported, r.Fingerprint)
		return nil
	}}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		job.run(ctx)
	}

	assert.Equal(t, []string{"fp-1", "fp-2"}, exported)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Withdrawal Reconciler")
	assert.Contains(t, out.String(), Version)
}
