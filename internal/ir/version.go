package ir

// Version constants for the action schema and engine.
const (
	// SchemaVersion is the action batch schema version.
	SchemaVersion = "1"

	// EngineVersion is the redline engine version.
	EngineVersion = "0.1.0"
)
