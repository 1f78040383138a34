// Package buildhook ties the settings and secret stores to the provider
// clients and serves the admin pages, the JSON API, the CLI and the
// background refresher.
package buildhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"build-hooks/internal/db/models"
	"build-hooks/pkg/circleci"
	"build-hooks/pkg/hooks"
	"build-hooks/pkg/notification"
	"build-hooks/pkg/secrets"
	"build-hooks/pkg/settings"
	"build-hooks/pkg/trigger"
)

// History persists one record per trigger attempt
type History interface {
	CreateTriggerRecord(rec *models.TriggerRecord) error
}

// Channels lists the notification channels to deliver events to
type Channels interface {
	ListEnabledNotificationChannels() ([]models.NotificationChannel, error)
}

// Broadcaster pushes live updates to dashboard clients
type Broadcaster interface {
	BroadcastTrigger(data interface{})
	BroadcastWorkflow(data interface{})
}

// Deps are the collaborators of a Service. History, Channels and Hub are
// optional.
type Deps struct {
	Settings settings.Store
	Secrets  secrets.Store
	Client   *hooks.Client
	Resolver hooks.Resolver
	Poller   *circleci.Poller
	History  History
	Channels Channels
	Hub      Broadcaster
	// AvailableRoles are offered on the settings page
	AvailableRoles []string
}

// Service implements the build hook operations on top of the stores
type Service struct {
	settings settings.Store
	secrets  secrets.Store
	resolver hooks.Resolver
	trigger  *trigger.Trigger
	poller   *circleci.Poller
	history  History
	channels Channels
	hub      Broadcaster
	roles    []string

	mu             sync.Mutex
	lastWorkflowID string
	lastStatus     string

	now func() time.Time
}

// NewService creates a Service
func NewService(deps Deps) *Service {
	return &Service{
		settings: deps.Settings,
		secrets:  deps.Secrets,
		resolver: deps.Resolver,
		trigger:  trigger.New(deps.Client, deps.Resolver, deps.Settings, deps.Secrets),
		poller:   deps.Poller,
		history:  deps.History,
		channels: deps.Channels,
		hub:      deps.Hub,
		roles:    deps.AvailableRoles,
		now:      time.Now,
	}
}

// LoadConfig reads the hook configuration from the settings store
func (s *Service) LoadConfig() (hooks.Config, error) {
	raw, err := settings.Get(s.settings, settings.KeyHookType)
	if err != nil {
		return hooks.Config{}, err
	}

	cfg := hooks.Config{Type: hooks.Type(raw)}

	switch {
	case cfg.Type.UsesWebhook():
		if cfg.WebhookURL, err = settings.Get(s.settings, settings.WebhookKey(raw)); err != nil {
			return hooks.Config{}, err
		}
	case cfg.Type == hooks.TypeCircleCI:
		if cfg.Repo, err = settings.Get(s.settings, settings.KeyCircleCIRepo); err != nil {
			return hooks.Config{}, err
		}
		if cfg.Job, err = settings.Get(s.settings, settings.KeyCircleCIJob); err != nil {
			return hooks.Config{}, err
		}
		if cfg.WorkflowID, err = settings.Get(s.settings, settings.KeyCurrentWorkflow); err != nil {
			return hooks.Config{}, err
		}
	}

	return cfg, nil
}

// Roles reads the authorized role lists
func (s *Service) Roles() (Roles, error) {
	settingsRoles, err := settings.GetList(s.settings, settings.KeySettingsRoles)
	if err != nil {
		return Roles{}, err
	}
	triggerRoles, err := settings.GetList(s.settings, settings.KeyTriggerRoles)
	if err != nil {
		return Roles{}, err
	}
	return Roles{Settings: settingsRoles, Trigger: triggerRoles}, nil
}

// AvailableRoles returns the role names offered on the settings page
func (s *Service) AvailableRoles() []string {
	return s.roles
}

// CanManageSettings reports whether role may manage settings
func (s *Service) CanManageSettings(role string) (bool, error) {
	roles, err := s.Roles()
	if err != nil {
		return false, err
	}
	return roles.CanManageSettings(role), nil
}

// CanTrigger reports whether role may trigger builds
func (s *Service) CanTrigger(role string) (bool, error) {
	roles, err := s.Roles()
	if err != nil {
		return false, err
	}
	return roles.CanTrigger(role), nil
}

// CanView reports whether role may open the status page and trigger from it
func (s *Service) CanView(role string) (bool, error) {
	roles, err := s.Roles()
	if err != nil {
		return false, err
	}
	return roles.CanView(role), nil
}

// token returns the CircleCI token, "" when none is stored
func (s *Service) token() (string, error) {
	token, err := secrets.Lookup(s.secrets, secrets.CircleCIToken)
	if err != nil {
		return "", fmt.Errorf("failed to load CircleCI token: %w", err)
	}
	return token, nil
}

// Trigger runs the build trigger for the stored configuration and records
// the attempt. role is the acting role, kept for the history only.
func (s *Service) Trigger(ctx context.Context, role string) (*trigger.Result, error) {
	start := s.now()

	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}

	result, runErr := s.trigger.Run(ctx, cfg)

	rec := &models.TriggerRecord{
		HookType:  string(cfg.Type),
		Role:      role,
		Status:    models.TriggerSuccess,
		Duration:  s.now().Sub(start),
		CreatedAt: start,
	}
	if runErr != nil {
		rec.Status = models.TriggerFailed
		rec.ErrorMessage = runErr.Error()
	} else {
		rec.WorkflowID = result.WorkflowID
	}

	if s.history != nil {
		if err := s.history.CreateTriggerRecord(rec); err != nil {
			slog.Error("failed to record trigger", "err", err)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastTrigger(rec)
	}

	event := notification.Event{
		Kind:       notification.EventTrigger,
		HookType:   cfg.Type,
		Status:     string(rec.Status),
		WorkflowID: rec.WorkflowID,
		Error:      rec.ErrorMessage,
		Time:       start,
	}
	if rec.Succeeded() && rec.WorkflowID != "" {
		s.mu.Lock()
		s.lastWorkflowID = rec.WorkflowID
		s.lastStatus = ""
		s.mu.Unlock()
	}
	s.notify(ctx, event)

	if runErr != nil {
		slog.Warn("build trigger failed", "type", cfg.Type, "role", role, "err", runErr)
		return nil, runErr
	}
	return result, nil
}

// Refresh polls the current workflow and reports whether its status changed
// since the last observation. Changes are broadcast; they are also sent to
// the notification channels unless this is the first observation since the
// process started.
func (s *Service) Refresh(ctx context.Context) (*circleci.Workflow, bool, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, false, err
	}
	if cfg.Type != hooks.TypeCircleCI || cfg.WorkflowID == "" {
		return nil, false, nil
	}

	token, err := s.token()
	if err != nil {
		return nil, false, err
	}

	wf, err := s.poller.GetWorkflow(ctx, cfg.Repo, cfg.WorkflowID, token)
	if err != nil || wf == nil {
		return nil, false, err
	}

	s.mu.Lock()
	first := s.lastWorkflowID == ""
	changed := s.lastWorkflowID != wf.ID || s.lastStatus != wf.Status
	s.lastWorkflowID = wf.ID
	s.lastStatus = wf.Status
	s.mu.Unlock()

	if !changed {
		return wf, false, nil
	}

	slog.Info("workflow status changed", "workflow_id", wf.ID, "status", wf.Status)

	if s.hub != nil {
		s.hub.BroadcastWorkflow(wf)
	}
	if !first {
		s.notify(ctx, notification.Event{
			Kind:       notification.EventWorkflow,
			HookType:   cfg.Type,
			Status:     wf.Status,
			Severity:   wf.Severity(),
			WorkflowID: wf.ID,
			Link:       wf.Link,
			Time:       s.now(),
		})
	}

	return wf, true, nil
}

func (s *Service) notify(ctx context.Context, event notification.Event) {
	if s.channels == nil {
		return
	}

	channels, err := s.channels.ListEnabledNotificationChannels()
	if err != nil {
		slog.Error("failed to load notification channels", "err", err)
		return
	}

	failed := event.Failed()
	for i := range channels {
		if ctx.Err() != nil {
			return
		}

		channel := &channels[i]
		if !channel.Wants(failed) {
			continue
		}

		if err := notification.NewNotifier(channel).Send(ctx, event); err != nil {
			slog.Warn("failed to send notification", "channel", channel.Name, "err", err)
			continue
		}
		slog.Debug("notification sent", "channel", channel.Name, "kind", event.Kind)
	}
}

// errorString joins poll errors for display
func errorString(errs []error) string {
	if err := errors.Join(errs...); err != nil {
		return err.Error()
	}
	return ""
}
