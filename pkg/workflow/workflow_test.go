package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/atlas-bridge/pkg/auth"
	"github.com/entrhq/atlas-bridge/pkg/automation"
	"github.com/entrhq/atlas-bridge/pkg/config"
	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
	"github.com/entrhq/atlas-bridge/pkg/session/sessiontest"
	"github.com/entrhq/atlas-bridge/pkg/types"
	"github.com/entrhq/atlas-bridge/pkg/workflow"
)

const baseURL = "https://clinic.test"

// clinic simulates the clinic application behind a scripted page.
type clinic struct {
	mu sync.Mutex

	signedIn    bool
	expireNext  bool
	logins      int
	patientList string
	showSearch  bool
	hideTable   bool

	hideNewTask  bool
	showHrefTask bool
	options      []string
	submitStatus int
	banner       string
	successText  string
	nameInBody   bool
	listedOnLoad bool
	notice       string

	submitSelector string
	submitted      bool
	reloaded       bool
}

func (c *clinic) newPage() *sessiontest.Page {
	page := sessiontest.NewPage()

	page.GotoHook = func(p *sessiontest.Page, url string) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		path := strings.TrimPrefix(url, baseURL)
		if path == auth.LoginPath {
			p.SetURL(url)
			p.Show(`input[type="email"]`, `input[type="password"]`)
			return nil
		}
		if c.expireNext {
			c.expireNext = false
			c.signedIn = false
		}
		if !c.signedIn {
			p.SetURL(baseURL + "/login")
			return nil
		}
		p.SetURL(url)
		switch {
		case strings.HasPrefix(path, "/patients"):
			p.SetContent(c.patientList)
			if !c.hideTable {
				p.Show("table")
			}
			if c.showSearch {
				p.Show(`input[type="search"]`)
			}
		case strings.HasPrefix(path, "/tasks"):
			if c.showHrefTask {
				p.Show(`a[href*="task"]`)
			}
		}
		return nil
	}

	page.TypeHook = func(p *sessiontest.Page, selector, text string) error {
		// login fields are refilled on every sign-in
		if selector == auth.EmailField || selector == auth.PasswordField {
			p.SetValue(selector, text)
			return nil
		}
		p.SetValue(selector, p.Value(selector)+text)
		return nil
	}

	page.ClickHook = func(p *sessiontest.Page, selector string) error {
		c.mu.Lock()
		if selector == auth.SubmitControl {
			c.signedIn = true
			c.logins++
			c.mu.Unlock()
			p.SetURL(baseURL + "/dashboard")
			return nil
		}
		isSubmit := selector == c.submitSelector
		if isSubmit {
			c.submitted = true
		}
		status := c.submitStatus
		c.mu.Unlock()

		if isSubmit {
			p.EmitRequest("POST", baseURL+"/tasks", "task[title]=x")
			if status != 0 {
				p.EmitResponse(status, "Internal Server Error", baseURL+"/tasks")
			}
		}
		return nil
	}

	page.ReloadHook = func(*sessiontest.Page) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.reloaded = true
		return nil
	}

	page.Handle("find-clickable", func(arg interface{}) (interface{}, error) {
		m := arg.(map[string]interface{})
		texts := m["texts"].([]string)
		if texts[0] == "new task" {
			if c.hideNewTask {
				return map[string]interface{}{"found": false}, nil
			}
			return map[string]interface{}{"found": true, "tag": "button", "text": "New Task"}, nil
		}
		c.mu.Lock()
		c.submitSelector = `[` + automation.MarkerAttribute + `="` + m["token"].(string) + `"]`
		c.mu.Unlock()
		return map[string]interface{}{"found": true, "tag": "button", "text": "Create Task"}, nil
	})

	page.Handle("inspect-select", func(interface{}) (interface{}, error) {
		opts := make([]interface{}, 0, len(c.options))
		for _, o := range c.options {
			opts = append(opts, map[string]interface{}{"value": o, "text": o})
		}
		return map[string]interface{}{"found": true, "name": "task[task_type]", "id": "task_type", "options": opts}, nil
	})
	page.Handle("find-text-field", func(interface{}) (interface{}, error) {
		return map[string]interface{}{"found": true, "name": "task[title]"}, nil
	})
	page.Handle("read-value", func(arg interface{}) (interface{}, error) {
		sel := arg.(map[string]interface{})["selector"].(string)
		return map[string]interface{}{"found": true, "value": page.Value(sel)}, nil
	})
	page.Handle("clear-value", func(arg interface{}) (interface{}, error) {
		page.SetValue(arg.(map[string]interface{})["selector"].(string), "")
		return true, nil
	})
	page.Handle("first-text", func(arg interface{}) (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		selectors := arg.(map[string]interface{})["selectors"].([]string)
		switch selectors[0] {
		case ".error":
			if c.banner != "" {
				return map[string]interface{}{"found": true, "text": c.banner}, nil
			}
		case workflow.TaskNotice:
			if c.notice != "" {
				return map[string]interface{}{"found": true, "text": c.notice}, nil
			}
		}
		return map[string]interface{}{"found": false}, nil
	})
	page.Handle("check-success", func(interface{}) (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return map[string]interface{}{"successText": c.successText, "textFound": c.nameInBody}, nil
	})
	page.Handle("body-contains", func(interface{}) (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.reloaded && c.listedOnLoad, nil
	})

	return page
}

type harness struct {
	runner   *workflow.Runner
	auth     *auth.Controller
	launcher *sessiontest.Launcher
}

func newHarness(t *testing.T, c *clinic) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Credentials.Email = "ops@clinic.test"
	cfg.Credentials.Password = "secret"
	cfg.Timeouts = config.TimeoutConfig{}

	launcher := &sessiontest.Launcher{NewPage: c.newPage}
	manager := session.NewManager(launcher, session.LaunchOptions{}, logging.Discard())
	ctrl, err := auth.NewController(manager, cfg, logging.Discard())
	require.NoError(t, err)

	return &harness{
		runner:   workflow.NewRunner(manager, ctrl, cfg, logging.Discard()),
		auth:     ctrl,
		launcher: launcher,
	}
}

func (h *harness) page() *sessiontest.Page {
	return h.launcher.Page(h.launcher.Launches() - 1)
}

const patientTable = `<html><body><table><tbody>
<tr><td>JD</td><td>Jane Doe</td><td>ID: 123</td><td>4</td><td>05/12/1990</td><td>female</td><td>(555) 123-4567</td></tr>
<tr><td>JS</td><td>John Smith</td><td>ID: 77</td><td>1</td><td>01/02/1985</td><td>male</td></tr>
<tr><td>JD</td><td>Janet Doe</td><td>ID: 8</td></tr>
</tbody></table></body></html>`

func TestSearchPatients(t *testing.T) {
	h := newHarness(t, &clinic{patientList: patientTable})

	patients, err := h.runner.SearchPatients(context.Background(), "doe", false)
	require.NoError(t, err)

	require.Len(t, patients, 2)
	assert.Equal(t, "Jane Doe", patients[0].Name)
	assert.Equal(t, "123", patients[0].ID)
	assert.Equal(t, "05/12/1990", patients[0].DOB)
	assert.Equal(t, "female", patients[0].Gender)
	assert.Equal(t, "(555) 123-4567", patients[0].Phone)
	assert.Equal(t, "Janet Doe", patients[1].Name)
	assert.Equal(t, "8", patients[1].ID)

	assert.Contains(t, h.page().Calls(), "goto "+baseURL+workflow.PatientsPath)
	assert.True(t, h.auth.LoggedIn())
}

func TestSearchPatients_NoMatches(t *testing.T) {
	h := newHarness(t, &clinic{patientList: `<html><body><table><tbody></tbody></table></body></html>`})

	patients, err := h.runner.SearchPatients(context.Background(), "Nobody", false)
	require.NoError(t, err)
	assert.NotNil(t, patients)
	assert.Empty(t, patients)
}

func TestSearchPatients_UsesSearchInput(t *testing.T) {
	h := newHarness(t, &clinic{patientList: patientTable, showSearch: true})

	patients, err := h.runner.SearchPatients(context.Background(), "John", true)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "John Smith", patients[0].Name)
	assert.Equal(t, "John", h.page().Value(workflow.SearchInput))
}

func TestSearchPatients_TableMissing(t *testing.T) {
	h := newHarness(t, &clinic{patientList: patientTable, hideTable: true})

	_, err := h.runner.SearchPatients(context.Background(), "doe", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, automation.ErrElementNotFound)
}

func TestSearchPatients_RecoversFromLoginRedirect(t *testing.T) {
	c := &clinic{patientList: patientTable}
	h := newHarness(t, c)
	ctx := context.Background()

	_, err := h.runner.SearchPatients(ctx, "doe", false)
	require.NoError(t, err)

	// the server drops the session right after the next probe succeeds
	h.page().GotoHook = wrapExpireAfterProbe(c, h.page().GotoHook)

	patients, err := h.runner.SearchPatients(ctx, "doe", false)
	require.NoError(t, err)
	assert.Len(t, patients, 2)
	assert.Equal(t, 2, c.logins)
	assert.Equal(t, 3, h.page().Count("goto "+baseURL+workflow.PatientsPath))
}

// wrapExpireAfterProbe lets the login probe through and then expires the
// session on the next protected navigation.
func wrapExpireAfterProbe(c *clinic, next func(*sessiontest.Page, string) error) func(*sessiontest.Page, string) error {
	probed := false
	return func(p *sessiontest.Page, url string) error {
		if !probed && strings.HasSuffix(url, auth.ProbePath) {
			probed = true
			err := next(p, url)
			c.mu.Lock()
			c.expireNext = true
			c.mu.Unlock()
			return err
		}
		return next(p, url)
	}
}

func TestSearchPatients_AuthFailurePropagates(t *testing.T) {
	h := newHarness(t, &clinic{patientList: patientTable})
	h.launcher.Err = errors.New("no chromium")

	_, err := h.runner.SearchPatients(context.Background(), "doe", false)
	assert.ErrorIs(t, err, h.launcher.Err)
}

func taskClinic() *clinic {
	return &clinic{
		options: []string{"billing", "clinical", "front_desk", "practice", "management", "support"},
	}
}

func TestCreateTask_Success(t *testing.T) {
	c := taskClinic()
	c.successText = "Task #42 created"
	c.notice = "Task #42 created"
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{
		TaskType:    "front desk",
		TaskName:    "Call patient back",
		Description: "Re: lab results",
	})

	assert.True(t, res.Success, res.Message)
	assert.Equal(t, "42", res.TaskID)
	assert.Equal(t, `Task "Call patient back" created successfully with ID: 42`, res.Message)

	page := h.page()
	assert.True(t, c.submitted)
	assert.Equal(t, 0, page.Count("reload"))
	assert.Equal(t, 0, page.Listeners("request"))
	assert.Equal(t, 0, page.Listeners("response"))

	var selected []string
	for _, call := range page.Calls() {
		if strings.HasPrefix(call, "select ") {
			selected = append(selected, call)
		}
	}
	require.Len(t, selected, 1)
	assert.True(t, strings.HasSuffix(selected[0], " front_desk"))
}

func TestCreateTask_SuccessWithoutID(t *testing.T) {
	c := taskClinic()
	c.nameInBody = true
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "billing", TaskName: "Refund"})
	assert.True(t, res.Success)
	assert.Empty(t, res.TaskID)
	assert.Equal(t, `Task "Refund" created successfully`, res.Message)
}

func TestCreateTask_ServerErrorSkipsReload(t *testing.T) {
	c := taskClinic()
	c.submitStatus = 500
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "billing", TaskName: "Refund"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "error")
	assert.Contains(t, res.Message, "HTTP 500")
	assert.Equal(t, 0, h.page().Count("reload"))
	assert.Equal(t, 0, h.page().Listeners("request"))
	assert.Equal(t, 0, h.page().Listeners("response"))
}

func TestCreateTask_ErrorBanner(t *testing.T) {
	c := taskClinic()
	c.banner = "Title has already been taken"
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "billing", TaskName: "Refund"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "server error: Title has already been taken")
}

func TestCreateTask_ReloadRevealsTask(t *testing.T) {
	c := taskClinic()
	c.listedOnLoad = true
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "clinical", TaskName: "Review chart"})
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, 1, h.page().Count("reload"))
}

func TestCreateTask_NotCreated(t *testing.T) {
	c := taskClinic()
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "clinical", TaskName: "Review chart"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, `Failed to create task "Review chart"`)
	assert.Contains(t, res.Message, "task was not created - it does not appear in the task list after refresh")
	assert.Equal(t, 0, h.page().Listeners("response"))
}

func TestCreateTask_ReportsSteps(t *testing.T) {
	c := taskClinic()
	c.nameInBody = true
	h := newHarness(t, c)

	var steps []string
	ctx := workflow.WithProgress(context.Background(), func(step string) {
		steps = append(steps, step)
	})
	res := h.runner.CreateTask(ctx, types.TaskCreationRequest{TaskType: "billing", TaskName: "Send invoice"})
	require.True(t, res.Success, res.Message)

	require.Len(t, steps, 6)
	assert.Equal(t, "signing in", steps[0])
	assert.True(t, strings.HasPrefix(steps[1], "navigating to "+baseURL), steps[1])
	assert.Equal(t, []string{"opening task form", "filling task form", "submitting task", "verifying task"}, steps[2:])
}

func TestSearchPatients_ReportsSteps(t *testing.T) {
	h := newHarness(t, &clinic{patientList: patientTable})

	var steps []string
	ctx := workflow.WithProgress(context.Background(), func(step string) {
		steps = append(steps, step)
	})
	_, err := h.runner.SearchPatients(ctx, "doe", false)
	require.NoError(t, err)

	require.Len(t, steps, 4)
	assert.Equal(t, "signing in", steps[0])
	assert.Equal(t, `searching for "doe"`, steps[2])
	assert.Equal(t, "reading patient table", steps[3])
}

func TestCreateTask_UnknownTaskType(t *testing.T) {
	c := taskClinic()
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "foo bar", TaskName: "Odd"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, `"foo_bar" not found in dropdown options: billing, clinical`)
	assert.Equal(t, 0, h.page().Count("select"))
	assert.False(t, c.submitted)
}

func TestCreateTask_TriggerFallsBackToHref(t *testing.T) {
	c := taskClinic()
	c.hideNewTask = true
	c.showHrefTask = true
	c.nameInBody = true
	h := newHarness(t, c)

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "support", TaskName: "Printer"})
	assert.True(t, res.Success, res.Message)
	assert.Contains(t, h.page().Calls(), `click a[href*="task"]`)
}

func TestCreateTask_Validation(t *testing.T) {
	h := newHarness(t, taskClinic())

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "billing"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "task name is required")
	assert.Equal(t, 0, h.launcher.Launches())
}

func TestCreateTask_LoginFailureBecomesResult(t *testing.T) {
	h := newHarness(t, taskClinic())
	h.launcher.Err = errors.New("no chromium")

	res := h.runner.CreateTask(context.Background(), types.TaskCreationRequest{TaskType: "billing", TaskName: "Refund"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no chromium")
}
