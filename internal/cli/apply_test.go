package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redline/internal/config"
	"github.com/roach88/redline/internal/engine"
	"github.com/roach88/redline/internal/index"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/memdoc"
	"github.com/roach88/redline/internal/store"
)

func TestApplyCommand_WritesDocument(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.yaml")

	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}),
		docFixture, "testdata/replace.yaml", "--out", outPath)
	require.NoError(t, err)

	assert.Contains(t, out, "status: applied\n")
	assert.Contains(t, out, "  [0] replace 1.p1: applied\n")
	assert.Contains(t, out, "applied 1, failed 0, rejected 0\n")

	doc, err := memdoc.Load(outPath)
	require.NoError(t, err)
	snap, err := index.Current(context.Background(), doc)
	require.NoError(t, err)
	text, ok := snap.Text("1.p1")
	require.True(t, ok)
	assert.Equal(t, "The rabbit hid.", text)
	assert.Equal(t, 7, snap.Len())
}

func TestApplyCommand_Partial(t *testing.T) {
	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), docFixture, "testdata/partial.json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 action(s) failed")

	assert.Contains(t, out, "status: partial\n")
	assert.Contains(t, out, "  [0] replace 1.p1: applied\n")
	assert.Contains(t, out, "  [1] delete 9.p9: failed: ")
	assert.Contains(t, out, "INDEX_OUT_OF_RANGE")
}

func TestApplyCommand_PartialJSON(t *testing.T) {
	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "json"}), docFixture, "testdata/partial.json")
	require.Error(t, err)

	status, data, cliErr := decodeResponse[ApplyOutput](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, ErrCodePartial, cliErr.Code)

	assert.Equal(t, ir.BatchPartial, data.Status)
	assert.Equal(t, []int{1, 0}, data.Order)
	assert.Equal(t, []int{0}, data.Applied)
	assert.Equal(t, []int{1}, data.Failed)
	assert.Equal(t, []int{}, data.Rejected)
	require.Len(t, data.Outcomes, 2)
	assert.Equal(t, ir.ErrCodeIndexOutOfRange, data.Outcomes[1].ErrorCode)
	assert.NotEmpty(t, data.BatchHash)
}

func TestApplyCommand_Only(t *testing.T) {
	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "json"}),
		docFixture, "testdata/partial.json", "--only", "0")
	require.NoError(t, err)

	status, data, _ := decodeResponse[ApplyOutput](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, ir.BatchApplied, data.Status)
	assert.Equal(t, []int{0}, data.Applied)
	assert.Equal(t, []int{1}, data.Rejected)
	assert.Equal(t, ir.OutcomeRejected, data.Outcomes[1].Status)
}

func TestApplyCommand_InvalidOnly(t *testing.T) {
	_, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}),
		docFixture, "testdata/partial.json", "--only", "0,x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid action index "x"`)
}

func TestApplyCommand_Stale(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.yaml")

	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}),
		docFixture, "testdata/replace.yaml", "--fingerprint", "deadbeef", "--out", outPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "status: stale\n")
	assert.Contains(t, out, "error: STALE_DOCUMENT")
	assert.Contains(t, out, "  [0] replace 1.p1: skipped\n")

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "stale batch must not write the document")
}

func TestApplyCommand_MatchingFingerprint(t *testing.T) {
	_, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}),
		docFixture, "testdata/replace.yaml", "--fingerprint", fingerprintOf(t, docFixture))
	require.NoError(t, err)
}

func TestApplyCommand_Quota(t *testing.T) {
	cfg := config.Default()
	cfg.MaxActions = 1

	out, _, err := execute(NewApplyCommand(&RootOptions{Format: "json", Config: &cfg}),
		docFixture, "testdata/partial.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, data, cliErr := decodeResponse[ApplyOutput](t, out)
	require.NotNil(t, cliErr)
	assert.Equal(t, string(ir.ErrCodeInvalidAction), cliErr.Code)
	assert.Equal(t, ir.BatchFailed, data.Status)
	assert.Empty(t, data.Applied)
}

func TestApplyCommand_BadBatch(t *testing.T) {
	_, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), docFixture, "testdata/bad.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid batch file")
}

func TestApplyCommand_RecordsBatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "redline.db")
	opts := &ApplyOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      engine.NewFixedGenerator("run-1"),
	}

	_, _, err := execute(newApplyCommand(opts), docFixture, "testdata/partial.json", "--db", dbPath)
	require.Error(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadBatch(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, ir.BatchPartial, rec.Status)
	require.Len(t, rec.Outcomes, 2)
	assert.Equal(t, ir.OutcomeApplied, rec.Outcomes[0].Status)
	assert.Equal(t, ir.OutcomeFailed, rec.Outcomes[1].Status)
}

func TestApplyCommand_MetricsFile(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "batch.prom")

	_, _, err := execute(NewApplyCommand(&RootOptions{Format: "text"}),
		docFixture, "testdata/partial.json", "--metrics-file", metricsPath)
	require.Error(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `redline_batches_total{status="partial"} 1`)
	assert.Contains(t, text, `redline_actions_total{kind="replace",outcome="applied"} 1`)
	assert.Contains(t, text, `redline_actions_total{kind="delete",outcome="failed"} 1`)
	assert.Contains(t, text, "redline_batch_duration_seconds_count 1")
}
