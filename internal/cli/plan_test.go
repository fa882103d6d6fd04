package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redline/internal/ir"
)

func TestPlanCommand_Text(t *testing.T) {
	out, _, err := execute(NewPlanCommand(&RootOptions{Format: "text"}), docFixture, "testdata/plan.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "0. [3] delete 9.p9 (paragraph)\n   ! INDEX_OUT_OF_RANGE")
	assert.Contains(t, out, "1. [0] replace 1.p1 (paragraph)\n")
	assert.Contains(t, out, "2. [2] format_bold 4.t0.r1.c0.p0 (table_cell)\n")
	assert.Contains(t, out, "3. [1] delete_row 2.t0.r1 (table_row)\n")
}

func TestPlanCommand_JSON(t *testing.T) {
	out, _, err := execute(NewPlanCommand(&RootOptions{Format: "json"}), docFixture, "testdata/plan.yaml")
	require.NoError(t, err)

	status, data, _ := decodeResponse[PlanOutput](t, out)
	assert.Equal(t, "ok", status)
	require.Len(t, data.Steps, 4)

	order := make([]int, len(data.Steps))
	for i, s := range data.Steps {
		order[i] = s.Index
		assert.Equal(t, i, s.Position)
	}
	assert.Equal(t, []int{3, 0, 2, 1}, order)

	assert.Equal(t, 1, data.Unresolved)
	assert.Equal(t, ir.ErrCodeIndexOutOfRange, data.Steps[0].ErrorCode)
	assert.Empty(t, data.Steps[1].ErrorCode)
	assert.Equal(t, "table_row", data.Steps[3].Class)
}

func TestPlanCommand_BadBatch(t *testing.T) {
	out, _, err := execute(NewPlanCommand(&RootOptions{Format: "json"}), docFixture, "testdata/bad.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, cliErr := decodeResponse[any](t, out)
	require.NotNil(t, cliErr)
	assert.Equal(t, ErrCodeBatch, cliErr.Code)
	assert.Contains(t, cliErr.Message, "bad.yaml")
}

func TestPlanCommand_MissingBatch(t *testing.T) {
	_, _, err := execute(NewPlanCommand(&RootOptions{Format: "text"}), docFixture, "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "batch file not found")
}
