// Package batchfile loads action batches from disk.
//
// A batch file is JSON, YAML or CUE. It is either a bare list of actions
// or an object with an optional fingerprint:
//
//	fingerprint: "9f2c..."
//	actions:
//	  - action: replace
//	    loc: 1.p1
//	    new_text: The dog sat.
//
// Every file is unified with an embedded CUE schema before decoding, so
// unknown fields and unknown action tags are rejected with a file position.
// Location grammar and payload bounds are left to the engine, which reports
// them per action.
package batchfile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/redline/internal/ir"
)

//go:embed schema.cue
var schemaSrc string

// File is a decoded batch file.
type File struct {
	Fingerprint string      `json:"fingerprint,omitempty"`
	Actions     []ir.Action `json:"actions"`
}

// Error is a batch file that failed to parse or validate.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() && e.Pos.Line() > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and validates the batch file at path. The format follows
// the extension: .json, .yaml/.yml or .cue.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read batch file: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes data. path selects the format and labels
// error positions; it is not read.
func Parse(path string, data []byte) (File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".cue":
	default:
		return File{}, &Error{Path: path, Message: "unsupported batch file extension (want .json, .yaml, .yml or .cue)"}
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return File{}, fmt.Errorf("compile batch schema: %w", err)
	}

	v, err := build(ctx, path, data)
	if err != nil {
		return File{}, cueError(path, err)
	}
	if err := v.Err(); err != nil {
		return File{}, cueError(path, err)
	}

	def := "#Batch"
	if v.IncompleteKind() == cue.ListKind {
		def = "#Actions"
	}
	unified := schema.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return File{}, cueError(path, err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return File{}, cueError(path, err)
	}

	var f File
	if def == "#Actions" {
		err = json.Unmarshal(raw, &f.Actions)
	} else {
		err = json.Unmarshal(raw, &f)
	}
	if err != nil {
		return File{}, &Error{Path: path, Message: err.Error()}
	}
	if f.Actions == nil {
		f.Actions = []ir.Action{}
	}
	return f, nil
}

func build(ctx *cue.Context, path string, data []byte) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		expr, err := cuejson.Extract(path, data)
		if err != nil {
			return cue.Value{}, err
		}
		return ctx.BuildExpr(expr), nil
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, err
		}
		return ctx.BuildFile(f), nil
	default:
		return ctx.CompileBytes(data, cue.Filename(path)), nil
	}
}

// cueError keeps the first error and its position in the batch file.
// Positions inside the embedded schema are dropped.
func cueError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Path: path, Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == path {
			out.Pos = pos
			break
		}
	}
	return out
}
