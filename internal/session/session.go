package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/spellbook/internal/engine"
	"github.com/roach88/spellbook/internal/ir"
)

// Response lines emitted by the interpreter itself, outside the engine.
const (
	CycleFoundMessage    = engine.Indent + "Found cycle in prereqs"
	SuggestForgetMessage = engine.Indent + "Suggest forgetting PREREQ"
)

// ErrTerminated is returned by Exec after an unknown verb ended the session.
var ErrTerminated = errors.New("session terminated")

// Recorder receives every executed step. The SQLite store implements it.
type Recorder interface {
	WriteSession(ctx context.Context, rec ir.SessionRecord) error
	WriteStep(ctx context.Context, rec ir.StepRecord) error
}

// Step is one consumed command line and the responses it produced.
type Step struct {
	ID      string
	Seq     int64
	Command ir.Command
	Output  []string

	// Terminal is set on the unknown-verb line that ended the session.
	Terminal bool
}

// Lines returns the echoed command line followed by its responses.
func (s Step) Lines() []string {
	return append([]string{s.Command.Line}, s.Output...)
}

// Record converts the step to its store representation.
func (s Step) Record(sessionID string) ir.StepRecord {
	out := make([]string, len(s.Output))
	copy(out, s.Output)
	return ir.StepRecord{
		ID:        s.ID,
		SessionID: sessionID,
		Seq:       s.Seq,
		Verb:      s.Command.Verb,
		Line:      s.Command.Line,
		Output:    out,
	}
}

// Transcript is the result of Run.
type Transcript struct {
	SessionID string
	Mode      Mode
	Steps     []Step

	// Terminated is set when an unknown verb ended processing.
	Terminated bool

	// Truncated is set when the cap stopped processing with lines left.
	Truncated bool
}

// Lines flattens the transcript: each command line, then its responses.
func (t *Transcript) Lines() []string {
	var lines []string
	for _, s := range t.Steps {
		lines = append(lines, s.Lines()...)
	}
	return lines
}

// Hash returns the content hash of the flattened transcript.
func (t *Transcript) Hash() (string, error) {
	return ir.TranscriptHash(t.Lines())
}

// Session interprets command lines against one engine.
//
// Thread-safety model:
//   - Exec and Run are serialized by mu
//   - The engine is only ever touched with mu held
type Session struct {
	mu sync.Mutex

	id       string
	mode     Mode
	engine   *engine.Engine
	quota    *Quota
	clock    *Clock
	recorder Recorder
	logger   *slog.Logger

	engineOpts []engine.EngineOption
	idGen      IDGenerator
	maxCmds    int

	started    bool
	blocked    bool
	terminated bool
}

// Option configures a Session.
type Option func(*Session)

// WithMode selects the cycle policy. Default: ModePlain.
func WithMode(m Mode) Option {
	return func(s *Session) {
		s.mode = m
	}
}

// WithMaxCommands sets the processing cap. Non-positive values keep
// DefaultMaxCommands.
func WithMaxCommands(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxCmds = n
		}
	}
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...engine.EngineOption) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithRecorder records the session and every step.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) {
		s.idGen = g
	}
}

// WithClock sets the logical clock. Used by replay.
func WithClock(c *Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithLogger sets the logger for the session and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session with a fresh engine.
func New(opts ...Option) *Session {
	s := &Session{
		mode:    ModePlain,
		clock:   NewClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		idGen:   UUIDv7Generator{},
		maxCmds: DefaultMaxCommands,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.id = s.idGen.Generate()
	s.logger = s.logger.With("session", s.id)
	s.quota = NewQuota(s.maxCmds)
	engineOpts := append([]engine.EngineOption{engine.WithLogger(s.logger)}, s.engineOpts...)
	s.engine = engine.New(engineOpts...)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the cycle policy.
func (s *Session) Mode() Mode {
	return s.mode
}

// Blocked reports whether a cycle report has disabled LEARN, FORGET and ENUM.
func (s *Session) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked
}

// Terminated reports whether an unknown verb has ended the session.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Learned returns the learned items in acquisition order.
func (s *Session) Learned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Learned()
}

// Explicit returns the explicit flag of a learned item.
func (s *Session) Explicit(item string) (explicit, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Explicit(item)
}

// Relations returns the relations declared so far.
func (s *Session) Relations() []ir.Relation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Relations()
}

// Exec consumes one command line.
//
// Errors:
//   - *ParseError: known verb with bad operands (the line still counts
//     against the cap)
//   - *QuotaExceededError: the cap was already reached
//   - ErrTerminated: an earlier unknown verb ended the session
//   - recorder failures, wrapped
func (s *Session) Exec(ctx context.Context, line string) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Step{}, err
	}
	if s.terminated {
		return Step{}, ErrTerminated
	}
	if err := s.quota.Check(s.id); err != nil {
		return Step{}, err
	}

	cmd, err := ParseCommand(line)
	if err != nil {
		return Step{}, err
	}

	seq := s.clock.Next()
	id, err := ir.CommandID(s.id, seq, cmd.Line)
	if err != nil {
		return Step{}, fmt.Errorf("command id for seq %d: %w", seq, err)
	}

	step := Step{
		ID:      id,
		Seq:     seq,
		Command: cmd,
		Output:  s.dispatch(cmd),
	}
	if cmd.Verb == ir.VerbUnknown {
		s.terminated = true
		step.Terminal = true
		s.logger.Info("session terminated", "seq", seq, "line", cmd.Line)
	}

	s.logger.Debug("command executed",
		"seq", seq,
		"verb", string(cmd.Verb),
		"responses", len(step.Output))

	if err := s.record(ctx, step); err != nil {
		return step, err
	}
	return step, nil
}

// Run executes lines until they run out, the cap is reached, or an unknown
// verb terminates the session. Reaching the cap is not an error.
//
// On error the transcript holds every step completed before it.
func (s *Session) Run(ctx context.Context, lines []string) (*Transcript, error) {
	t := &Transcript{SessionID: s.id, Mode: s.mode}

	for i, line := range lines {
		step, err := s.Exec(ctx, line)
		if err != nil {
			if IsQuotaError(err) {
				t.Truncated = true
				s.logger.Info("command cap reached",
					"limit", s.quota.Max(),
					"unread", len(lines)-i)
				return t, nil
			}
			if errors.Is(err, ErrTerminated) {
				t.Terminated = true
				return t, nil
			}
			return t, fmt.Errorf("line %d: %w", i+1, err)
		}
		t.Steps = append(t.Steps, step)
		if step.Terminal {
			t.Terminated = true
			return t, nil
		}
	}
	return t, nil
}

// dispatch applies cmd to the engine. Caller holds mu.
func (s *Session) dispatch(cmd ir.Command) []string {
	switch cmd.Verb {
	case ir.VerbPrereq:
		rel, _ := cmd.Relation()
		s.engine.AddRelation(rel.Subject, rel.Requires)
		return s.checkCycles()
	case ir.VerbLearn:
		if s.blocked {
			return nil
		}
		return s.engine.Learn(cmd.Item())
	case ir.VerbForget:
		if s.blocked {
			return nil
		}
		return s.engine.Forget(cmd.Item())
	case ir.VerbEnum:
		if s.blocked {
			return nil
		}
		return s.engine.Enum()
	}
	return nil
}

// checkCycles runs the mode's analysis after a PREREQ. Caller holds mu.
func (s *Session) checkCycles() []string {
	if !s.mode.checksCycles() || s.engine.RelationCount() < 2 {
		return nil
	}

	var cycle []string
	switch s.mode {
	case ModeCheck:
		if !s.engine.HasCycle() {
			return nil
		}
	case ModeLongest:
		cycle = s.engine.LongestCycle()
		if cycle == nil {
			return nil
		}
	case ModeShortest:
		cycle = s.engine.ShortestCycle()
		if cycle == nil {
			return nil
		}
	}

	if !s.blocked {
		s.logger.Info("cycle detected; resolution blocked",
			"mode", string(s.mode),
			"cycle_len", len(cycle))
	}
	s.blocked = true

	out := []string{CycleFoundMessage}
	if cycle != nil {
		if hint := s.engine.SuggestForget(cycle); hint != "" {
			out = append(out, SuggestForgetMessage+hint)
		}
	}
	return out
}

// record forwards the step to the recorder, writing the session row first.
// Caller holds mu.
func (s *Session) record(ctx context.Context, step Step) error {
	if s.recorder == nil {
		return nil
	}
	if !s.started {
		rec := ir.SessionRecord{
			ID:            s.id,
			Mode:          string(s.mode),
			MaxCommands:   s.quota.Max(),
			EngineVersion: ir.EngineVersion,
			IRVersion:     ir.IRVersion,
		}
		if err := s.recorder.WriteSession(ctx, rec); err != nil {
			return fmt.Errorf("record session: %w", err)
		}
		s.started = true
	}
	if err := s.recorder.WriteStep(ctx, step.Record(s.id)); err != nil {
		return fmt.Errorf("record step %d: %w", step.Seq, err)
	}
	return nil
}
