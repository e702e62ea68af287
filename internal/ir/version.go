package ir

// Version constants stamped on recorded sessions.
const (
	// IRVersion is the record schema version.
	IRVersion = "1"

	// EngineVersion is the spellbook engine version.
	EngineVersion = "0.1.0"
)
