// Package trigger starts a build on the configured provider and records the
// resulting CircleCI workflow as the current one.
package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"build-hooks/pkg/hooks"
	"build-hooks/pkg/secrets"
	"build-hooks/pkg/settings"
)

// Result describes a successful trigger
type Result struct {
	Type hooks.Type `json:"type"`
	// WorkflowID is empty for webhook providers
	WorkflowID string `json:"workflow_id,omitempty"`
}

type circleCIResponse struct {
	Workflows *struct {
		WorkflowID *string `json:"workflow_id"`
	} `json:"workflows"`
}

// Trigger posts build hook requests
type Trigger struct {
	client   *hooks.Client
	resolver hooks.Resolver
	settings settings.Store
	secrets  secrets.Store
}

// New creates a Trigger
func New(client *hooks.Client, resolver hooks.Resolver, settingsStore settings.Store, secretStore secrets.Store) *Trigger {
	return &Trigger{
		client:   client,
		resolver: resolver,
		settings: settingsStore,
		secrets:  secretStore,
	}
}

// Run resolves and posts the trigger request for cfg. For CircleCI the
// workflow id of the response becomes the current workflow; nothing is
// written unless the whole call succeeds.
func (t *Trigger) Run(ctx context.Context, cfg hooks.Config) (*Result, error) {
	var token string
	if cfg.Type == hooks.TypeCircleCI {
		var err error
		token, err = t.secrets.Get(secrets.CircleCIToken)
		if err != nil {
			return nil, fmt.Errorf("failed to load CircleCI token: %w", err)
		}
	}

	req, err := t.resolver.Resolve(cfg, token)
	if err != nil {
		return nil, err
	}
	if !req.Enabled() {
		return nil, hooks.ErrTriggerDisabled
	}

	slog.Info("triggering build", "type", cfg.Type, "url", hooks.RedactURL(req.URL))

	if cfg.Type != hooks.TypeCircleCI {
		if err := t.client.Do(ctx, req, nil); err != nil {
			return nil, fmt.Errorf("failed to trigger %s build: %w", cfg.Type.Label(), err)
		}
		return &Result{Type: cfg.Type}, nil
	}

	var resp circleCIResponse
	if err := t.client.Do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to trigger %s build: %w", cfg.Type.Label(), err)
	}

	if resp.Workflows == nil || resp.Workflows.WorkflowID == nil || *resp.Workflows.WorkflowID == "" {
		return nil, fmt.Errorf("%w: workflows.workflow_id is missing", hooks.ErrMalformedResponse)
	}
	workflowID := *resp.Workflows.WorkflowID

	if err := t.settings.UpdateOption(settings.KeyCurrentWorkflow, workflowID); err != nil {
		return nil, fmt.Errorf("failed to store workflow id: %w", err)
	}

	slog.Info("build triggered", "type", cfg.Type, "workflow_id", workflowID)

	return &Result{Type: cfg.Type, WorkflowID: workflowID}, nil
}
