package buildhook

import (
	"context"
	"errors"

	"build-hooks/pkg/circleci"
	"build-hooks/pkg/filter"
	"build-hooks/pkg/hooks"
	"build-hooks/pkg/secrets"
)

// WorkflowRow is a recent workflow with its mapped severity
type WorkflowRow struct {
	circleci.WorkflowItem
	Severity hooks.Severity `json:"severity"`
}

// StatusView is everything the status page shows
type StatusView struct {
	Type      hooks.Type `json:"type"`
	TypeLabel string     `json:"type_label,omitempty"`
	// URL is the display form of the trigger request, token obfuscated
	URL string `json:"url"`
	// TriggerEnabled is false when no trigger URL can be resolved or CircleCI
	// lacks its token or repository
	TriggerEnabled   bool               `json:"trigger_enabled"`
	Workflow         *circleci.Workflow `json:"workflow,omitempty"`
	WorkflowSeverity hooks.Severity     `json:"workflow_severity,omitempty"`
	Workflows        []WorkflowRow      `json:"workflows"`
	// Error collects poll failures; the rest of the view stays usable
	Error string `json:"error,omitempty"`
}

// Configured reports whether a hook type has been selected
func (v *StatusView) Configured() bool {
	return v.Type != ""
}

// Status builds the status view. Provider failures end up in the Error
// field rather than failing the call; only store failures are returned.
func (s *Service) Status(ctx context.Context) (*StatusView, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		Type:      cfg.Type,
		TypeLabel: cfg.Type.Label(),
		Workflows: []WorkflowRow{},
	}
	if cfg.Type == "" {
		return view, nil
	}

	var token string
	if cfg.Type == hooks.TypeCircleCI {
		if token, err = s.token(); err != nil {
			return nil, err
		}
	}

	req, err := s.resolver.ResolveForDisplay(cfg, token)
	if err != nil {
		view.Error = err.Error()
		return view, nil
	}
	view.URL = req.URL
	view.TriggerEnabled = req.Enabled()
	if cfg.Type == hooks.TypeCircleCI && (token == "" || cfg.Repo == "") {
		view.TriggerEnabled = false
	}

	if cfg.Type != hooks.TypeCircleCI {
		return view, nil
	}

	var errs []error

	wf, err := s.poller.GetWorkflow(ctx, cfg.Repo, cfg.WorkflowID, token)
	if err != nil {
		errs = append(errs, err)
	} else if wf != nil {
		view.Workflow = wf
		view.WorkflowSeverity = wf.Severity()
	}

	rows, err := s.recentWorkflows(ctx, cfg, token, nil)
	if err != nil {
		errs = append(errs, err)
	} else {
		view.Workflows = rows
	}

	view.Error = errorString(errs)
	return view, nil
}

// RecentWorkflows lists the recent CircleCI workflows whose status passes f.
// Other hook types have no workflows.
func (s *Service) RecentWorkflows(ctx context.Context, f *filter.Filter) ([]WorkflowRow, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Type != hooks.TypeCircleCI {
		return []WorkflowRow{}, nil
	}

	token, err := s.token()
	if err != nil {
		return nil, err
	}
	return s.recentWorkflows(ctx, cfg, token, f)
}

func (s *Service) recentWorkflows(ctx context.Context, cfg hooks.Config, token string, f *filter.Filter) ([]WorkflowRow, error) {
	items, err := s.poller.ListRecentWorkflows(ctx, cfg.Repo, token)
	if err != nil {
		return nil, err
	}

	items = filter.Apply(f, items, func(w circleci.WorkflowItem) string { return w.Status })

	rows := make([]WorkflowRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, WorkflowRow{WorkflowItem: item, Severity: item.Severity()})
	}
	return rows, nil
}

// IsConfigurationError reports whether err means the trigger cannot run with
// the stored configuration and secrets
func IsConfigurationError(err error) bool {
	return errors.Is(err, hooks.ErrMissingConfiguration) ||
		errors.Is(err, hooks.ErrTriggerDisabled) ||
		errors.Is(err, secrets.ErrSecretNotFound)
}
