package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redline/internal/index"
	"github.com/roach88/redline/internal/memdoc"
)

const (
	docFixture   = "testdata/doc.yaml"
	emptyFixture = "testdata/empty.yaml"
)

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// fingerprintOf returns the current fingerprint of a document fixture.
func fingerprintOf(t *testing.T, path string) string {
	t.Helper()
	doc, err := memdoc.Load(path)
	require.NoError(t, err)
	snap, err := index.Current(context.Background(), doc)
	require.NoError(t, err)
	return snap.Fingerprint()
}

// decodeResponse decodes a JSON envelope whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data, resp.Error
}
