package memdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/redline/internal/host"
)

// Spec is the YAML form of a document: an ordered list of body blocks.
//
//	blocks:
//	  - p: Intro
//	  - table:
//	      - [Name, Qty]
//	      - [Apples, "3"]
//	  - p: End
//
// A cell string containing newlines holds several paragraphs.
type Spec struct {
	Tracking bool        `yaml:"tracking,omitempty"`
	Blocks   []BlockSpec `yaml:"blocks"`
}

// BlockSpec is one body block. Exactly one of P and Table is set.
type BlockSpec struct {
	P     *string    `yaml:"p,omitempty"`
	Table [][]string `yaml:"table,omitempty"`
}

// P returns a paragraph block.
func P(text string) BlockSpec {
	return BlockSpec{P: &text}
}

// T returns a table block with one argument per row.
func T(rows ...[]string) BlockSpec {
	return BlockSpec{Table: rows}
}

// New builds a document from blocks. It panics on an invalid block and is
// meant for tests and literals.
func New(blocks ...BlockSpec) *Document {
	d, err := FromSpec(Spec{Blocks: blocks})
	if err != nil {
		panic(err)
	}
	return d
}

// FromSpec builds a document from its YAML form.
func FromSpec(spec Spec) (*Document, error) {
	d := newDocument()
	if spec.Tracking {
		d.tracking = host.TrackingAll
	}

	for i, b := range spec.Blocks {
		switch {
		case b.P != nil && b.Table != nil:
			return nil, fmt.Errorf("block %d: has both p and table", i)
		case b.P != nil:
			if strings.Contains(*b.P, "\n") {
				return nil, fmt.Errorf("block %d: paragraph contains a newline", i)
			}
			d.body = append(d.body, block{para: d.newParagraph(*b.P, nil)})
		case len(b.Table) > 0:
			cols := 0
			for _, r := range b.Table {
				cols = max(cols, len(r))
			}
			if cols == 0 {
				return nil, fmt.Errorf("block %d: table has no columns", i)
			}
			d.body = append(d.body, block{table: d.newTable(len(b.Table), cols, b.Table)})
		default:
			return nil, fmt.Errorf("block %d: needs p or table", i)
		}
	}
	return d, nil
}

// Parse decodes a YAML document fixture. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return FromSpec(spec)
}

// Load reads a YAML document fixture from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Spec returns the document's YAML form. Formatting is not carried.
func (d *Document) Spec() Spec {
	d.mu.Lock()
	defer d.mu.Unlock()

	spec := Spec{Tracking: d.tracking == host.TrackingAll}
	for _, b := range d.body {
		if b.para != nil {
			spec.Blocks = append(spec.Blocks, P(runsText(b.para.runs)))
			continue
		}
		rows := make([][]string, len(b.table.rows))
		for i, r := range b.table.rows {
			rows[i] = make([]string, len(r.cells))
			for j, c := range r.cells {
				lines := make([]string, len(c.paras))
				for k, p := range c.paras {
					lines[k] = runsText(p.runs)
				}
				rows[i][j] = strings.Join(lines, "\n")
			}
		}
		spec.Blocks = append(spec.Blocks, T(rows...))
	}
	return spec
}

// Marshal encodes the document's YAML form.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.Spec()); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document's YAML form to path.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
