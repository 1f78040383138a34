// Package hooks resolves build hook requests for the supported CI providers
// and sends them.
package hooks

import (
	"fmt"
	"net/http"
)

// Type is the selected CI/CD provider
type Type string

const (
	TypeCircleCI Type = "circle_ci"
	TypeGatsby   Type = "gatsby"
	TypeNetlify  Type = "netlify"
)

// Types lists the supported hook types in display order
var Types = []Type{TypeCircleCI, TypeGatsby, TypeNetlify}

// Label returns the human readable provider name
func (t Type) Label() string {
	switch t {
	case TypeCircleCI:
		return "CircleCI"
	case TypeGatsby:
		return "Gatsby Cloud"
	case TypeNetlify:
		return "Netlify"
	}
	return string(t)
}

// Valid reports whether t is a supported hook type
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// UsesWebhook reports whether the provider is driven by a stored webhook URL
// rather than repository and job
func (t Type) UsesWebhook() bool {
	return t == TypeGatsby || t == TypeNetlify
}

// ParseType parses a stored or submitted hook type; "" means unset
func ParseType(s string) (Type, error) {
	if s == "" {
		return "", nil
	}
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown hook type %q", s)
	}
	return t, nil
}

// Config is the build hook configuration threaded through every operation
type Config struct {
	Type       Type   `json:"type"`
	WebhookURL string `json:"webhook_url,omitempty"`
	Repo       string `json:"repo,omitempty"`
	Job        string `json:"job,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
}

// Request is a fully resolved outbound request
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is encoded as JSON; nil means no body
	Body any
}

// Enabled reports whether the request can be sent; an empty URL means the
// trigger action is disabled
func (r Request) Enabled() bool {
	return r.URL != ""
}

// TriggerBody is the CircleCI v1.1 build trigger payload
type TriggerBody struct {
	BuildParameters BuildParameters `json:"build_parameters"`
}

// BuildParameters selects the CircleCI job to run
type BuildParameters struct {
	CircleJob string `json:"CIRCLE_JOB"`
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}
