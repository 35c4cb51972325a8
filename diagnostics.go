package cnext

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Severity classifies a Diagnostic for the §7 recovery policy: errors
// are fatal for the file that produced them, warnings never abort.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one structured entry in a DiagnosticSink: a severity,
// a stable code, a source location, and a human message.
type Diagnostic struct {
	Severity Severity
	Code     ErrorCode
	FilePath string
	Loc      SourceLocation
	Message  string
	Hint     string
}

// FormatCLI renders a diagnostic the way the CLI prints it to stderr:
// `path:line:col: severity: message [code] (hint)`.
func (d Diagnostic) FormatCLI() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s: %s: %s [%s]", d.FilePath, d.Loc.Span, d.Severity, d.Message, d.Code)
	if d.Hint != "" {
		fmt.Fprintf(&b, " (%s)", d.Hint)
	}
	return b.String()
}

// DiagnosticSink is the structured sink every component writes
// diagnostics to (§7: "All diagnostics go to a structured sink with
// severity and optional source location"). It is safe for concurrent
// use by the orchestrator's parallel file-generation stage.
type DiagnosticSink struct {
	mu    sync.Mutex
	items []Diagnostic
	log   *zap.Logger
}

func NewDiagnosticSink(log *zap.Logger) *DiagnosticSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiagnosticSink{log: log}
}

func (s *DiagnosticSink) Report(d Diagnostic) {
	s.mu.Lock()
	s.items = append(s.items, d)
	s.mu.Unlock()

	fields := []zap.Field{
		zap.String("code", string(d.Code)),
		zap.String("file", d.FilePath),
		zap.String("loc", d.Loc.Span.String()),
	}
	if d.Severity == SeverityError {
		s.log.Error(d.Message, fields...)
	} else {
		s.log.Warn(d.Message, fields...)
	}
}

// ReportError records a fatal CompileError as a Diagnostic.
func (s *DiagnosticSink) ReportError(filePath string, err *CompileError) {
	s.Report(Diagnostic{
		Severity: SeverityError,
		Code:     err.Code,
		FilePath: filePath,
		Loc:      err.Loc,
		Message:  err.Message,
		Hint:     err.Hint,
	})
}

// ReportWarning records a non-fatal include/resolution warning.
func (s *DiagnosticSink) ReportWarning(filePath string, code ErrorCode, loc SourceLocation, format string, args ...any) {
	s.Report(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		FilePath: filePath,
		Loc:      loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (s *DiagnosticSink) Items() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out
}

func (s *DiagnosticSink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (s *DiagnosticSink) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.items {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
