package buildhook

import (
	"fmt"
	"strings"

	"build-hooks/pkg/hooks"
	"build-hooks/pkg/secrets"
	"build-hooks/pkg/settings"
)

// SettingsForm is a submitted settings page or PUT /api/v1/settings body
type SettingsForm struct {
	Type       string `form:"_build_hooks_type" json:"type" binding:"omitempty,oneof=circle_ci gatsby netlify"`
	WebhookURL string `form:"webhook_url" json:"webhook_url" binding:"omitempty,url"`
	Repo       string `form:"_build_hooks_circle_ci_repository" json:"repo"`
	Job        string `form:"_build_hooks_circle_ci_job" json:"job"`
	// Token replaces the stored CircleCI token; empty keeps it
	Token         string   `form:"_build_hooks_circle_ci_token" json:"token"`
	SettingsRoles []string `form:"_build_hooks_settings[]" json:"settings_roles"`
	TriggerRoles  []string `form:"_build_hooks_trigger[]" json:"trigger_roles"`
}

// SettingsView is the settings page model. The token itself is never part
// of it.
type SettingsView struct {
	Type           hooks.Type   `json:"type"`
	Types          []hooks.Type `json:"types"`
	WebhookURL     string       `json:"webhook_url,omitempty"`
	Repo           string       `json:"repo,omitempty"`
	Job            string       `json:"job,omitempty"`
	TokenSet       bool         `json:"token_set"`
	TokenHint      string       `json:"token_hint,omitempty"`
	URL            string       `json:"url,omitempty"`
	Roles          Roles        `json:"roles"`
	AvailableRoles []string     `json:"available_roles"`
}

// Settings loads the settings view
func (s *Service) Settings() (*SettingsView, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	roles, err := s.Roles()
	if err != nil {
		return nil, err
	}
	token, err := s.token()
	if err != nil {
		return nil, err
	}

	view := &SettingsView{
		Type:           cfg.Type,
		Types:          hooks.Types,
		WebhookURL:     cfg.WebhookURL,
		Repo:           cfg.Repo,
		Job:            cfg.Job,
		TokenSet:       token != "",
		Roles:          roles,
		AvailableRoles: s.roles,
	}
	if token != "" {
		view.TokenHint = hooks.ObfuscateToken(token)
	}
	if req, err := s.resolver.ResolveForDisplay(cfg, token); err == nil {
		view.URL = req.URL
	}

	return view, nil
}

// SaveSettings stores a submitted settings form. The hook type and both role
// lists are always written, administrator included; the provider specific
// fields only for the selected type.
func (s *Service) SaveSettings(form SettingsForm) error {
	hookType, err := hooks.ParseType(strings.TrimSpace(form.Type))
	if err != nil {
		return err
	}

	if err := s.settings.UpdateOption(settings.KeyHookType, string(hookType)); err != nil {
		return fmt.Errorf("failed to save hook type: %w", err)
	}
	if err := settings.SetList(s.settings, settings.KeySettingsRoles, normalizeRoles(form.SettingsRoles)); err != nil {
		return fmt.Errorf("failed to save settings roles: %w", err)
	}
	if err := settings.SetList(s.settings, settings.KeyTriggerRoles, normalizeRoles(form.TriggerRoles)); err != nil {
		return fmt.Errorf("failed to save trigger roles: %w", err)
	}

	switch {
	case hookType == hooks.TypeCircleCI:
		if err := s.settings.UpdateOption(settings.KeyCircleCIRepo, strings.TrimSpace(form.Repo)); err != nil {
			return fmt.Errorf("failed to save repository: %w", err)
		}
		if err := s.settings.UpdateOption(settings.KeyCircleCIJob, strings.TrimSpace(form.Job)); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
		if token := strings.TrimSpace(form.Token); token != "" {
			if err := s.secrets.Set(secrets.CircleCIToken, token); err != nil {
				return fmt.Errorf("failed to save CircleCI token: %w", err)
			}
		}
	case hookType.UsesWebhook():
		if err := s.settings.UpdateOption(settings.WebhookKey(string(hookType)), strings.TrimSpace(form.WebhookURL)); err != nil {
			return fmt.Errorf("failed to save webhook: %w", err)
		}
	}

	return nil
}
