package status

import "strings"

// Result is what a measurement routine hands back to the plugin.
//
// The package's own Status type is the only implementation it constructs,
// but the plugin validates any Result it receives, so hand-built
// implementations are rejected when they are inconsistent.
type Result interface {
	Kind() Kind
	Severity() Severity
	// Code is the exit code for active results and the passive code otherwise.
	Code() int
	Message() string
	Empty() bool

	SetSeverity(Severity)
	SetMessage(string)
}

// Status is the concrete tagged result shared by all three kinds.
type Status struct {
	kind     Kind
	severity Severity
	code     int
	message  string
}

func newStatus(k Kind, sev Severity, message string) *Status {
	if message == "" {
		message = EmptyMessage
	}
	s := &Status{kind: k, message: message}
	s.SetSeverity(sev)
	return s
}

// NewActive builds an active check result. An empty or illegal severity
// becomes UNKNOWN; an empty message becomes EmptyMessage.
func NewActive(sev Severity, message string) *Status {
	return newStatus(KindActive, sev, message)
}

// NewHost builds a passive host check result. An empty or illegal severity
// becomes UNREACHABLE.
func NewHost(sev Severity, message string) *Status {
	return newStatus(KindHost, sev, message)
}

// NewService builds a passive service check result. It uses the active
// severities and codes.
func NewService(sev Severity, message string) *Status {
	return newStatus(KindService, sev, message)
}

func (s *Status) Kind() Kind {
	return s.kind
}

func (s *Status) Severity() Severity {
	return s.severity
}

func (s *Status) Code() int {
	return s.code
}

// ExitCode is the process exit code an active plugin should return.
// Passive results are not meant to drive the exit code and report 0.
func (s *Status) ExitCode() int {
	if s.kind != KindActive {
		return 0
	}
	return s.code
}

// PassiveCode is the host status or return code sent with a passive result.
// Active results report -1.
func (s *Status) PassiveCode() int {
	if !s.kind.Passive() {
		return -1
	}
	return s.code
}

func (s *Status) Message() string {
	return s.message
}

// SetSeverity is the only way the protocol code changes.
func (s *Status) SetSeverity(sev Severity) {
	s.severity = normalize(s.kind, sev)
	s.code, _ = CodeFor(s.kind, s.severity)
}

func (s *Status) SetMessage(message string) {
	s.message = message
}

// AppendMessage adds suffix to the current message.
func (s *Status) AppendMessage(suffix string) {
	s.message += suffix
}

// Empty reports whether the result still carries nothing but defaults.
func (s *Status) Empty() bool {
	if s.severity != DefaultSeverity(s.kind) {
		return false
	}
	m := strings.TrimSpace(s.message)
	return m == "" || m == EmptyMessage
}

func (s *Status) String() string {
	return string(s.severity) + ": " + s.message
}
