package circleci

import (
	"context"
	"fmt"
	"strings"
	"time"

	"build-hooks/pkg/hooks"
)

// RecentPipelineLimit is how many pipelines of the first page are walked
const RecentPipelineLimit = 10

// Workflow is a CircleCI v2 workflow with its dashboard link attached
type Workflow struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	PipelineID     string     `json:"pipeline_id"`
	PipelineNumber int        `json:"pipeline_number"`
	ProjectSlug    string     `json:"project_slug"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	StoppedAt      *time.Time `json:"stopped_at"`
	Link           string     `json:"link"`
}

// Severity maps the raw workflow status
func (w *Workflow) Severity() hooks.Severity {
	sev, _ := hooks.SeverityFor(w.Status)
	return sev
}

// Pipeline is one entry of the project pipeline list
type Pipeline struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	State  string `json:"state"`
}

// WorkflowItem is one workflow of a recent pipeline
type WorkflowItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PipelineNumber int    `json:"pipeline_number"`
	Status         string `json:"status"`
	URL            string `json:"url"`
}

// Severity maps the raw workflow status
func (w WorkflowItem) Severity() hooks.Severity {
	sev, _ := hooks.SeverityFor(w.Status)
	return sev
}

type pipelineList struct {
	Items         []Pipeline `json:"items"`
	NextPageToken string     `json:"next_page_token"`
}

type workflowList struct {
	Items []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		PipelineNumber int    `json:"pipeline_number"`
		Status         string `json:"status"`
	} `json:"items"`
}

// Poller reads workflow state from the CircleCI v2 API
type Poller struct {
	client  *hooks.Client
	baseURL string
	appURL  string
}

// NewPoller creates a poller. Empty URLs select the public CircleCI API and
// web app.
func NewPoller(client *hooks.Client, baseURL, appURL string) *Poller {
	if baseURL == "" {
		baseURL = hooks.DefaultCircleCIBaseURL
	}
	if appURL == "" {
		appURL = hooks.DefaultCircleCIAppURL
	}
	return &Poller{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		appURL:  strings.TrimRight(appURL, "/"),
	}
}

// WorkflowLink returns the CircleCI web app URL of a workflow
func (p *Poller) WorkflowLink(repo string, pipelineNumber int, id string) string {
	return fmt.Sprintf("%s/pipelines/github/%s/%d/workflows/%s", p.appURL, repo, pipelineNumber, id)
}

// GetWorkflow fetches a workflow by id. It returns nil without error when the
// token or the workflow id is missing.
func (p *Poller) GetWorkflow(ctx context.Context, repo, workflowID, token string) (*Workflow, error) {
	if token == "" || workflowID == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/api/v2/workflow/%s?circle-token=%s", p.baseURL, workflowID, token)

	var wf Workflow
	if err := p.client.Get(ctx, url, &wf); err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}
	wf.Link = p.WorkflowLink(repo, wf.PipelineNumber, wf.ID)

	return &wf, nil
}

// ListPipelines returns the first page of pipelines of a repository, cut to
// RecentPipelineLimit entries in API order
func (p *Poller) ListPipelines(ctx context.Context, repo, token string) ([]Pipeline, error) {
	url := fmt.Sprintf("%s/api/v2/project/gh/%s/pipeline?circle-token=%s", p.baseURL, repo, token)

	var list pipelineList
	if err := p.client.Get(ctx, url, &list); err != nil {
		return nil, fmt.Errorf("failed to list pipelines of %s: %w", repo, err)
	}

	if len(list.Items) > RecentPipelineLimit {
		list.Items = list.Items[:RecentPipelineLimit]
	}
	return list.Items, nil
}

// ListPipelineWorkflows returns the workflows of a pipeline in API order
func (p *Poller) ListPipelineWorkflows(ctx context.Context, repo, pipelineID, token string) ([]WorkflowItem, error) {
	url := fmt.Sprintf("%s/api/v2/pipeline/%s/workflow?circle-token=%s", p.baseURL, pipelineID, token)

	var list workflowList
	if err := p.client.Get(ctx, url, &list); err != nil {
		return nil, fmt.Errorf("failed to list workflows of pipeline %s: %w", pipelineID, err)
	}

	items := make([]WorkflowItem, 0, len(list.Items))
	for _, w := range list.Items {
		items = append(items, WorkflowItem{
			ID:             w.ID,
			Name:           w.Name,
			PipelineNumber: w.PipelineNumber,
			Status:         w.Status,
			URL:            p.WorkflowLink(repo, w.PipelineNumber, w.ID),
		})
	}
	return items, nil
}

// ListRecentWorkflows walks the recent pipelines one after another and
// flattens their workflows, preserving pipeline order and the order within
// each pipeline. The first failing request aborts the walk. It returns nil
// without error when the token or the repository is missing.
func (p *Poller) ListRecentWorkflows(ctx context.Context, repo, token string) ([]WorkflowItem, error) {
	if token == "" || repo == "" {
		return nil, nil
	}

	pipelines, err := p.ListPipelines(ctx, repo, token)
	if err != nil {
		return nil, err
	}

	var workflows []WorkflowItem
	for _, pipeline := range pipelines {
		items, err := p.ListPipelineWorkflows(ctx, repo, pipeline.ID, token)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, items...)
	}

	return workflows, nil
}
