package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/redline/internal/cli"
)

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"help", []string{"--help"}, cli.ExitSuccess, ""},
		{"missing args", []string{"snapshot"}, cli.ExitCommandError, "redline: "},
		{"missing document", []string{"snapshot", "does-not-exist.yaml"}, cli.ExitCommandError, "document not found"},
		{"snapshot", []string{"snapshot", "../../internal/cli/testdata/doc.yaml"}, cli.ExitSuccess, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := run(tt.args, &out, &errOut)

			assert.Equal(t, tt.wantCode, code, errOut.String())
			if tt.wantErr != "" {
				assert.Contains(t, errOut.String(), tt.wantErr)
			} else {
				assert.NotContains(t, errOut.String(), "redline:")
			}
		})
	}
}

func TestRun_SnapshotWritesToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"snapshot", "../../internal/cli/testdata/doc.yaml"}, &out, &errOut)

	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out.String(), "1.p1: The rabbit ran.")
	assert.Contains(t, out.String(), "fingerprint: ")
}
