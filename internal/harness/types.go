package harness

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the transcript matched and every assertion held.
	Pass bool `json:"pass"`

	// SessionID is the (fixed) id the scenario ran under.
	SessionID string `json:"session_id"`

	// Transcript is the flattened output: each command line followed by
	// its response lines.
	Transcript []string `json:"transcript"`

	// Hash is the content hash of Transcript.
	Hash string `json:"hash"`

	// Learned is the final acquisition ledger in order.
	Learned []string `json:"learned"`

	// Terminated is set when an unknown verb ended the session.
	Terminated bool `json:"terminated,omitempty"`

	// Truncated is set when the command cap left lines unread.
	Truncated bool `json:"truncated,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Transcript: []string{},
		Learned:    []string{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
