package hooks

// Severity is the 3-valued UI classification of a raw provider status
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	// SeverityUnknown marks raw statuses outside the mapping table
	SeverityUnknown Severity = "unknown"
)

var severities = map[string]Severity{
	"running":   SeverityWarning,
	"success":   SeveritySuccess,
	"completed": SeveritySuccess,
	"failed":    SeverityError,
	"canceled":  SeverityError,
}

// SeverityFor maps a raw status. ok is false for unmapped statuses, in which
// case SeverityUnknown is returned.
func SeverityFor(status string) (sev Severity, ok bool) {
	sev, ok = severities[status]
	if !ok {
		return SeverityUnknown, false
	}
	return sev, true
}

// NoticeClass returns the admin notice CSS modifier for a severity
func (s Severity) NoticeClass() string {
	if s == SeverityUnknown || s == "" {
		return "info"
	}
	return string(s)
}
