package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/codecollab/internal/apperr"
	"github.com/caffeineduck/codecollab/internal/latency"
	"github.com/caffeineduck/codecollab/interp"
)

// ErrBusy is returned by Run while a previous run is still in progress.
var ErrBusy = errors.New("code is already running")

// RunningNotice is the output shown while a run is pending.
const RunningNotice = "Executing code..."

const rule = "=================================================="

// Session is one user's solo editor: a buffer, its language and theme, the
// stdin box and the output console. It is safe for concurrent use.
type Session struct {
	interp *interp.Interpreter
	delay  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	state   State
	running bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInterpreter sets the interpreter used by Run.
func WithInterpreter(in *interp.Interpreter) SessionOption {
	return func(s *Session) {
		if in != nil {
			s.interp = in
		}
	}
}

// WithRunDelay adds an artificial delay before each run.
func WithRunDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.delay = d
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession returns a Session starting from st.
func NewSession(st State, opts ...SessionOption) *Session {
	s := &Session{
		interp: interp.New(),
		now:    time.Now,
		state:  st,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Replace overwrites the whole state.
func (s *Session) Replace(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// SetCode replaces the buffer.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	s.state.Code = code
	s.mu.Unlock()
}

// SetTheme changes the editor theme.
func (s *Session) SetTheme(theme string) {
	s.mu.Lock()
	s.state.Theme = theme
	s.mu.Unlock()
}

// SetStdin replaces the text fed to programs that read input.
func (s *Session) SetStdin(stdin string) {
	s.mu.Lock()
	s.state.Stdin = stdin
	s.mu.Unlock()
}

// SetLanguage switches the language, replacing the buffer with that
// language's template and clearing the console.
func (s *Session) SetLanguage(lang string) error {
	code, ok := interp.Template(lang)
	if !ok {
		return apperr.NewClientError(fmt.Sprintf("Unsupported language: %s", lang))
	}
	s.mu.Lock()
	s.state.Language = lang
	s.state.Code = code
	s.state.Output = ""
	s.mu.Unlock()
	return nil
}

// Running reports whether a run is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run pseudo-executes the buffer and stores the framed result as the
// console output. While the run is pending the output reads RunningNotice.
// If ctx ends during the artificial delay the previous output is restored
// and ctx.Err() is returned.
func (s *Session) Run(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.running = true
	prev := s.state.Output
	s.state.Output = RunningNotice
	snap := s.state
	s.mu.Unlock()

	if err := latency.Simulate(ctx, s.delay); err != nil {
		s.mu.Lock()
		s.state.Output = prev
		s.running = false
		s.mu.Unlock()
		return "", err
	}

	result := s.interp.Execute(ctx, snap.Language, snap.Code, snap.Stdin)
	out := FormatRun(snap.Language, snap.Stdin, result, s.now())

	s.mu.Lock()
	s.state.Output = out
	s.running = false
	s.mu.Unlock()
	return out, nil
}

// FormatRun frames an interpreter result the way the output console shows
// it: a timestamped header, the stdin echo when present, the result, and a
// completion footer.
func FormatRun(lang, stdin, result string, at time.Time) string {
	ts := at.Format("15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Running %s code...\n", ts, strings.ToUpper(lang))
	b.WriteString(rule + "\n\n")
	if stdin != "" {
		fmt.Fprintf(&b, "Input provided: %s\n\n", stdin)
	}
	fmt.Fprintf(&b, "Output:\n%s\n\n", result)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Execution completed at %s", ts)
	return b.String()
}
