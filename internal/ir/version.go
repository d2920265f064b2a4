package ir

// Version constants for persisted records and the service.
const (
	// SchemaVersion is the journal record schema version.
	SchemaVersion = "1"

	// ServiceVersion is the crafting service version.
	ServiceVersion = "0.3.0"
)
