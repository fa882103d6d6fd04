// Package harness runs redline scenarios: a document fixture, a batch of
// actions, and the outcome the batch must produce.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: replace_paragraph
//	description: "What this scenario validates"
//	document:
//	  blocks:
//	    - p: Intro
//	    - table: [[a, b], [c, d]]
//	actions:
//	  - action: replace
//	    loc: 0.p0
//	    new_text: Preface
//	drift:              # optional: edits made after the snapshot was taken
//	  - action: append
//	    loc: 0.p0
//	    new_text: "!"
//	selected: [0]       # optional: indices the reviewer approved
//	edits: {0: Foreword} # optional: reviewer text edits by index
//	expect:
//	  status: applied
//	  order: [0]
//	  applied: [0]
//	  document:
//	    - "0.p0: Foreword"
//
// Every expect field except status is optional; an omitted field is not
// checked. Use an empty list to assert that nothing matched.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory document and a fresh
// in-memory SQLite batch log, with sequential run ids. The text report
// built from the log and the final document is byte-identical across runs
// and is compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/replace.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
