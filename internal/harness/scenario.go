package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/memdoc"
)

// Scenario defines one batch run against a document fixture.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the fixture the batch runs against.
	Document memdoc.Spec `yaml:"document"`

	// Actions is the batch, in the order an agent produced it.
	Actions []ir.Action `yaml:"actions"`

	// Drift is applied to the document after the snapshot is taken and
	// before the batch runs, simulating a user editing in between.
	Drift []ir.Action `yaml:"drift,omitempty"`

	// Selected lists the approved indices. Omitted approves everything.
	Selected []int `yaml:"selected,omitempty"`

	// Edits replaces the new_text of individual actions by index.
	Edits map[int]string `yaml:"edits,omitempty"`

	// MaxActions overrides the batch size quota when non-zero.
	MaxActions int `yaml:"max_actions,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is the outcome a scenario must produce. Nil fields are not
// checked.
type Expect struct {
	// Status is the final batch status. Required.
	Status ir.BatchStatus `yaml:"status"`

	// ErrorCode is the code of the batch-level error, if any.
	ErrorCode ir.ErrorCode `yaml:"error_code,omitempty"`

	// Order is the execution order as action indices.
	Order []int `yaml:"order,omitempty"`

	Applied  []int `yaml:"applied,omitempty"`
	Failed   []int `yaml:"failed,omitempty"`
	Rejected []int `yaml:"rejected,omitempty"`

	// Errors maps failed indices to their exact messages.
	Errors map[int]string `yaml:"errors,omitempty"`

	// Document is the rendered snapshot after the batch, one line per
	// paragraph.
	Document []string `yaml:"document,omitempty"`

	// Revisions is the number of tracked changes the batch recorded.
	Revisions *int `yaml:"revisions,omitempty"`
}

var batchStatuses = []ir.BatchStatus{ir.BatchApplied, ir.BatchPartial, ir.BatchStale, ir.BatchFailed}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "action:" vs "actions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", path, s.Name, prev)
		}
		names[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Document.Blocks) == 0 {
		return fmt.Errorf("document needs at least one block")
	}

	if len(s.Actions) == 0 {
		return fmt.Errorf("actions list is required and must be non-empty")
	}

	if s.Expect.Status == "" {
		return fmt.Errorf("expect.status is required")
	}
	if !slices.Contains(batchStatuses, s.Expect.Status) {
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	if s.MaxActions < 0 {
		return fmt.Errorf("max_actions must be non-negative")
	}

	return nil
}
