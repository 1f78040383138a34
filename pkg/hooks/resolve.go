package hooks

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultCircleCIBaseURL = "https://circleci.com"
	DefaultCircleCIAppURL  = "https://app.circleci.com"

	// trigger builds always run against master
	circleCIBranch = "master"
)

// Resolver builds provider trigger requests
type Resolver struct {
	CircleCIBaseURL string
}

// NewResolver creates a resolver; an empty base URL selects the public
// CircleCI API
func NewResolver(circleCIBaseURL string) Resolver {
	if circleCIBaseURL == "" {
		circleCIBaseURL = DefaultCircleCIBaseURL
	}
	return Resolver{CircleCIBaseURL: strings.TrimRight(circleCIBaseURL, "/")}
}

// Resolve builds the request that is actually sent to the provider. The
// token is embedded verbatim.
func (r Resolver) Resolve(cfg Config, token string) (Request, error) {
	return r.resolve(cfg, token)
}

// ResolveForDisplay builds the same request with the token obfuscated. Its
// result must never be sent.
func (r Resolver) ResolveForDisplay(cfg Config, token string) (Request, error) {
	return r.resolve(cfg, ObfuscateToken(token))
}

func (r Resolver) resolve(cfg Config, token string) (Request, error) {
	switch cfg.Type {
	case TypeGatsby, TypeNetlify:
		return Request{
			Method: http.MethodPost,
			URL:    cfg.WebhookURL,
			Header: jsonHeader(),
		}, nil
	case TypeCircleCI:
		base := r.CircleCIBaseURL
		if base == "" {
			base = DefaultCircleCIBaseURL
		}
		return Request{
			Method: http.MethodPost,
			URL:    fmt.Sprintf("%s/api/v1.1/project/gh/%s/tree/%s?circle-token=%s", base, cfg.Repo, circleCIBranch, token),
			Header: jsonHeader(),
			Body:   TriggerBody{BuildParameters: BuildParameters{CircleJob: cfg.Job}},
		}, nil
	case "":
		return Request{}, ErrMissingConfiguration
	}
	return Request{}, fmt.Errorf("%w: unknown hook type %q", ErrMissingConfiguration, cfg.Type)
}

// ObfuscateToken keeps the first two and last two characters of tokens longer
// than four characters and replaces the rest with '*'
func ObfuscateToken(token string) string {
	if len(token) <= 4 {
		return token
	}
	return token[:2] + strings.Repeat("*", len(token)-4) + token[len(token)-2:]
}

// RedactURL obfuscates the circle-token query parameter of a URL so it can be
// logged or returned in errors
func RedactURL(raw string) string {
	const param = "circle-token="

	q := strings.Index(raw, "?")
	if q < 0 {
		return raw
	}

	start := -1
	for i := q + 1; i < len(raw); {
		if strings.HasPrefix(raw[i:], param) {
			start = i + len(param)
			break
		}
		next := strings.IndexByte(raw[i:], '&')
		if next < 0 {
			break
		}
		i += next + 1
	}
	if start < 0 {
		return raw
	}

	end := len(raw)
	if amp := strings.IndexByte(raw[start:], '&'); amp >= 0 {
		end = start + amp
	}
	return raw[:start] + ObfuscateToken(raw[start:end]) + raw[end:]
}
