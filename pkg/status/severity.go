package status

import "strings"

// Kind tags which protocol variant a Result belongs to.
type Kind int

const (
	// KindActive is a result of an active check; its code is the plugin exit code.
	KindActive Kind = iota + 1
	// KindHost is a passively submitted host check result.
	KindHost
	// KindService is a passively submitted service check result.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindActive:
		return "active"
	case KindHost:
		return "host"
	case KindService:
		return "service"
	default:
		return "invalid"
	}
}

// Passive reports whether results of this kind travel out of band.
func (k Kind) Passive() bool {
	return k == KindHost || k == KindService
}

func (k Kind) valid() bool {
	return k == KindActive || k == KindHost || k == KindService
}

// Severity is the string tag a monitoring server understands.
type Severity string

// Service severities, shared by active and passive service results.
const (
	OK       Severity = "OK"
	WARNING  Severity = "WARNING"
	CRITICAL Severity = "CRITICAL"
	UNKNOWN  Severity = "UNKNOWN"
)

// Host reachability severities.
const (
	UP          Severity = "UP"
	DOWN        Severity = "DOWN"
	UNREACHABLE Severity = "UNREACHABLE"
)

// EmptyMessage is stored when a result is built without a message.
const EmptyMessage = "<EMPTY>"

var serviceCodes = map[Severity]int{
	OK:       0,
	WARNING:  1,
	CRITICAL: 2,
	UNKNOWN:  3,
}

var hostCodes = map[Severity]int{
	UP:          0,
	DOWN:        1,
	UNREACHABLE: 2,
}

func codesFor(k Kind) map[Severity]int {
	switch k {
	case KindActive, KindService:
		return serviceCodes
	case KindHost:
		return hostCodes
	default:
		return nil
	}
}

// DefaultSeverity returns the severity used when none, or an illegal one, is given.
func DefaultSeverity(k Kind) Severity {
	if k == KindHost {
		return UNREACHABLE
	}
	return UNKNOWN
}

// ValidSeverity reports whether sev belongs to the enumeration of kind k.
func ValidSeverity(k Kind, sev Severity) bool {
	_, ok := codesFor(k)[sev]
	return ok
}

// CodeFor returns the protocol code for sev. The second value is false when
// sev is not legal for k.
func CodeFor(k Kind, sev Severity) (int, bool) {
	code, ok := codesFor(k)[sev]
	return code, ok
}

// Severities lists the legal severities of k in code order.
func Severities(k Kind) []Severity {
	if k == KindHost {
		return []Severity{UP, DOWN, UNREACHABLE}
	}
	if k.valid() {
		return []Severity{OK, WARNING, CRITICAL, UNKNOWN}
	}
	return nil
}

func normalize(k Kind, sev Severity) Severity {
	if ValidSeverity(k, sev) {
		return sev
	}
	return DefaultSeverity(k)
}

// ParseKind accepts "active", "host" or "service" in any case.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return KindActive, true
	case "host":
		return KindHost, true
	case "service":
		return KindService, true
	default:
		return 0, false
	}
}
