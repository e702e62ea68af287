package ir

// NOTE: These are store-layer records, not canonical values.

// SessionRecord describes one recorded interpreter session.
type SessionRecord struct {
	ID            string `json:"id"`
	Mode          string `json:"mode"`
	MaxCommands   int    `json:"max_commands"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// StepRecord is one executed command and the response lines it produced.
// Output excludes the echoed command line itself.
type StepRecord struct {
	ID        string   `json:"id"` // Content-addressed (CommandID)
	SessionID string   `json:"session_id"`
	Seq       int64    `json:"seq"` // Logical clock
	Verb      Verb     `json:"verb"`
	Line      string   `json:"line"`
	Output    []string `json:"output"`
}
