package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"build-hooks/internal/buildhook"
	"build-hooks/internal/db/models"
	"build-hooks/internal/db/store"
	ws "build-hooks/internal/websocket"
	"build-hooks/pkg/circleci"
	"build-hooks/pkg/hooks"
	"build-hooks/pkg/retry"
	"build-hooks/pkg/secrets"
)

const testToken = "tok-12345"

func fakeCircleCI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1.1/project/gh/acme/site/tree/master", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"workflows":{"workflow_id":"wf-new"}}`)
	})
	mux.HandleFunc("GET /api/v2/workflow/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"status":"success","pipeline_number":3}`, r.PathValue("id"))
	})
	mux.HandleFunc("GET /api/v2/project/gh/acme/site/pipeline", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"p1","number":3}]}`)
	})
	mux.HandleFunc("GET /api/v2/pipeline/p1/workflow", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"w1","status":"running","pipeline_number":3},{"id":"w2","status":"success","pipeline_number":3}]}`)
	})
	return mux
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := httptest.NewServer(fakeCircleCI())
	t.Cleanup(api.Close)

	st, err := store.NewStore(filepath.Join(t.TempDir(), "build-hooks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hub := ws.NewHub()
	client := hooks.NewClient(5*time.Second, 0, retry.Config{MaxAttempts: 1})
	svc := buildhook.NewService(buildhook.Deps{
		Settings:       st,
		Secrets:        secrets.NewFileStore(filepath.Join(t.TempDir(), "private", "secrets.json")),
		Client:         client,
		Resolver:       hooks.NewResolver(api.URL),
		Poller:         circleci.NewPoller(client, api.URL, "https://app.test"),
		History:        st,
		Channels:       st,
		Hub:            hub,
		AvailableRoles: []string{"administrator", "editor", "author"},
	})

	router, err := NewRouter(Deps{Service: svc, Store: st, Hub: hub, RoleHeader: "X-User-Role", Version: "test"})
	require.NoError(t, err)
	return router, st
}

func do(router http.Handler, method, target, role string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func saveCircleCISettings(t *testing.T, router http.Handler) {
	t.Helper()

	body := `{"type":"circle_ci","repo":"acme/site","job":"deploy","token":"` + testToken + `","settings_roles":["editor"],"trigger_roles":["author"]}`
	w := do(router, http.MethodPut, "/api/v1/settings", "administrator", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRootRedirects(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/", "", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/build-hooks", w.Header().Get("Location"))

	w = do(router, http.MethodGet, "/api/v1/health", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGates(t *testing.T) {
	router, _ := newTestRouter(t)
	saveCircleCISettings(t, router)

	tests := []struct {
		role   string
		target string
		status int
	}{
		{"", "/build-hooks", http.StatusForbidden},
		{"subscriber", "/api/v1/status", http.StatusForbidden},
		{"author", "/api/v1/status", http.StatusOK},
		{"author", "/api/v1/settings", http.StatusForbidden},
		{"editor", "/api/v1/settings", http.StatusOK},
		{"editor", "/build-hooks", http.StatusOK},
		{"super_admin", "/build-hooks/settings", http.StatusOK},
		{"author", "/api/v1/notifications", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.target, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, tt.role, "", "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestSettingsNeverExposeToken(t *testing.T) {
	router, _ := newTestRouter(t)
	saveCircleCISettings(t, router)

	for _, target := range []string{"/api/v1/settings", "/build-hooks/settings", "/api/v1/status", "/build-hooks"} {
		w := do(router, http.MethodGet, target, "administrator", "", "")
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.NotContains(t, w.Body.String(), testToken, target)
	}

	w := do(router, http.MethodGet, "/api/v1/settings", "administrator", "", "")
	var view buildhook.SettingsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.TokenSet)
	assert.Equal(t, []string{"administrator", "editor"}, view.Roles.Settings)
	assert.Equal(t, []string{"administrator", "author"}, view.Roles.Trigger)
}

func TestStatusPage(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/build-hooks", "administrator", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No build hook is configured yet.")

	saveCircleCISettings(t, router)

	w = do(router, http.MethodGet, "/build-hooks", "administrator", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "circle-token=to*****45")
	assert.Contains(t, body, "Last workflow executions")
	assert.Contains(t, body, `notice-warning`)
	assert.Contains(t, body, "https://app.test/pipelines/github/acme/site/3/workflows/w2")
}

func TestTriggerFromPage(t *testing.T) {
	router, st := newTestRouter(t)
	saveCircleCISettings(t, router)

	form := url.Values{"action": {"trigger_build"}}.Encode()
	w := do(router, http.MethodPost, "/build-hooks", "author", form, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "workflow wf-new")
	assert.Contains(t, w.Body.String(), "Last status: success")

	recs, err := st.ListTriggerRecords(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "author", recs[0].Role)
	assert.Equal(t, "wf-new", recs[0].WorkflowID)

	w = do(router, http.MethodGet, "/api/v1/triggers", "author", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.TriggerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	w = do(router, http.MethodPost, "/build-hooks", "author", url.Values{"action": {"nope"}}.Encode(), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerAPIDisabled(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPut, "/api/v1/settings", "administrator", `{"type":"netlify"}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/trigger", "administrator", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSettingsValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPut, "/api/v1/settings", "administrator", `{"type":"jenkins"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/api/v1/settings", "administrator", `{"type":"gatsby","webhook_url":"not a url"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsForm(t *testing.T) {
	router, _ := newTestRouter(t)

	form := url.Values{
		"_build_hooks_type":       {"gatsby"},
		"webhook_url":             {"https://webhook.gatsbyjs.test/hooks/builds/trigger/x"},
		"_build_hooks_settings[]": {"administrator", "editor"},
		"_build_hooks_trigger[]":  {"administrator"},
	}.Encode()
	w := do(router, http.MethodPost, "/build-hooks/settings", "administrator", form, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Settings saved.")
	assert.Contains(t, w.Body.String(), "https://webhook.gatsbyjs.test/hooks/builds/trigger/x")

	w = do(router, http.MethodGet, "/build-hooks/settings", "editor", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkflowsAPI(t *testing.T) {
	router, _ := newTestRouter(t)
	saveCircleCISettings(t, router)

	w := do(router, http.MethodGet, "/api/v1/workflows?exclude=running", "administrator", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rows []buildhook.WorkflowRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "w2", rows[0].ID)
	assert.Equal(t, hooks.SeveritySuccess, rows[0].Severity)

	w = do(router, http.MethodGet, "/api/v1/workflows?include=(", "administrator", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/workflows?latest=x", "administrator", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationChannelsAPI(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/notifications", "administrator", `{"name":"ops","type":"slack","webhook_url":"https://hooks.slack.test/x","condition":"failed"}`, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.NotificationChannel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.NotificationFailed, created.Condition)

	w = do(router, http.MethodPost, "/api/v1/notifications", "administrator", `{"name":"bad","type":"wechat","webhook_url":"https://x.test"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d", created.ID), "administrator", `{"name":"ops","type":"webhook","webhook_url":"https://hooks.example.test/x"}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodPut, "/api/v1/notifications/999", "administrator", `{"name":"x","type":"webhook","webhook_url":"https://hooks.example.test/x"}`, "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/v1/notifications", "administrator", `{"name":"muted","type":"webhook","webhook_url":"https://hooks.example.test/y","enabled":false}`, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var muted models.NotificationChannel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &muted))

	w = do(router, http.MethodGet, fmt.Sprintf("/api/v1/notifications/%d", muted.ID), "administrator", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &muted))
	assert.False(t, muted.Enabled)

	w = do(router, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", muted.ID), "administrator", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodGet, fmt.Sprintf("/api/v1/notifications/%d", muted.ID), "administrator", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a deleted channel's name can be taken again
	w = do(router, http.MethodPost, "/api/v1/notifications", "administrator", `{"name":"muted","type":"slack","webhook_url":"https://hooks.slack.test/z"}`, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recreated models.NotificationChannel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recreated))
	assert.True(t, recreated.Enabled)
	w = do(router, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", recreated.ID), "administrator", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/v1/stats", "administrator", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats["notification_channels"])
}
