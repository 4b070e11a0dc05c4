package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/atlas-bridge/pkg/automation"
	"github.com/entrhq/atlas-bridge/pkg/types"
)

// Task listing resources and selectors.
const (
	TasksPath        = "/tasks?tab=all"
	DescriptionField = `textarea[name*="description"], textarea[placeholder*="description"], [data-testid="description"]`
	TaskNotice       = `.success, .toast, .notification`
)

var (
	newTaskTexts = []string{"new task"}
	sweepRoles   = []string{"a", "button", `[role="button"]`}
	submitTexts  = []string{"create task", "create", "save", "submit"}

	taskTypeNames = []string{"task[task_type]"}
	taskTypeIDs   = []string{"task_type"}

	titleField = automation.TextFieldQuery{
		Include:            []string{"title", "name"},
		PlaceholderInclude: []string{"task"},
		Exclude:            []string{"due"},
	}

	primaryButton = automation.StyleQuery{
		Roles: []string{"button"},
		AnyOf: []string{"bg-fl-blue", "bg-blue-500"},
		AllOf: [][]string{{"text-white", "blue"}},
	}

	modalSelectors = []string{
		".modal",
		`[role="dialog"]`,
		".task-modal",
		".new-task-modal",
		".dialog",
		".popup",
		".overlay",
		`[data-testid*="modal"]`,
		`[class*="modal"]`,
	}
	modalCloseSelectors = []string{".modal", `[role="dialog"]`, ".dialog"}

	successSelectors = []string{".success", ".alert-success", ".notification-success", ".toast-success"}
	errorSelectors   = []string{".error", ".alert-danger", ".notification-error", ".toast-error"}

	taskIDPattern = regexp.MustCompile(`(?i)task\s+#?(\d+)`)
)

// taskTypeValues maps accepted task type spellings to form values.
var taskTypeValues = map[string]string{
	"billing":    "billing",
	"clinical":   "clinical",
	"front desk": "front_desk",
	"front_desk": "front_desk",
	"practice":   "practice",
	"management": "management",
	"support":    "support",
}

// ResolveTaskType maps a task type to the task form's option value. Unknown
// types are lowercased with spaces replaced by underscores.
func ResolveTaskType(taskType string) string {
	lower := strings.ToLower(strings.TrimSpace(taskType))
	if v, ok := taskTypeValues[lower]; ok {
		return v
	}
	return strings.ReplaceAll(lower, " ", "_")
}

// CreateTask files a new task through the task form. It never returns an
// error; failures come back as a result with Success false.
func (r *Runner) CreateTask(ctx context.Context, req types.TaskCreationRequest) types.TaskResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	taskID, err := r.createTask(ctx, req)
	if err != nil {
		r.logger.Errorf("task creation failed: %v", err)
		return types.TaskResult{
			Success: false,
			Message: fmt.Sprintf("Failed to create task \"%s\": %v", req.TaskName, err),
		}
	}

	msg := fmt.Sprintf("Task \"%s\" created successfully", req.TaskName)
	if taskID != "" {
		msg += " with ID: " + taskID
	}
	return types.TaskResult{Success: true, Message: msg, TaskID: taskID}
}

func (r *Runner) createTask(ctx context.Context, req types.TaskCreationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	formValue := ResolveTaskType(req.TaskType)
	r.logger.Infof("creating task %q (%s -> %s)", req.TaskName, req.TaskType, formValue)

	d, err := r.open(ctx, TasksPath)
	if err != nil {
		return "", err
	}
	d.Describe("tasks page")

	if err := automation.Sleep(ctx, r.cfg.Timeouts.Settle); err != nil {
		return "", err
	}

	r.step(ctx, "opening task form")
	if err := r.openTaskForm(ctx, d); err != nil {
		return "", err
	}

	r.step(ctx, "filling task form")
	if err := d.SelectDropdown(taskTypeNames, taskTypeIDs, formValue); err != nil {
		return "", fmt.Errorf("could not select task type %s: %w", req.TaskType, err)
	}
	if err := d.FillTextField(titleField, req.TaskName); err != nil {
		return "", fmt.Errorf("could not fill task name: %w", err)
	}
	if req.Description != "" {
		if _, err := d.TypeIfPresent(DescriptionField, req.Description, r.cfg.Timeouts.Description); err != nil {
			r.logger.Warnf("could not fill description: %v", err)
		}
	}

	if err := r.submitTask(ctx, d, req.TaskName); err != nil {
		return "", err
	}
	return r.taskID(d), nil
}

// openTaskForm triggers the new task form and waits for it to render.
func (r *Runner) openTaskForm(ctx context.Context, d *automation.Driver) error {
	trigger := automation.NewChain("open new task form",
		automation.Strategy{
			Name: "visible new task control",
			Try: func(context.Context) (bool, error) {
				return d.ClickByText(newTaskTexts, automation.ClickableRoles)
			},
		},
		automation.Strategy{
			Name: `a[href*="new"]`,
			Try: func(context.Context) (bool, error) {
				return d.ClickSelector(`a[href*="new"]`, r.cfg.Timeouts.TriggerHref)
			},
		},
		automation.Strategy{
			Name: `a[href*="task"]`,
			Try: func(context.Context) (bool, error) {
				return d.ClickSelector(`a[href*="task"]`, r.cfg.Timeouts.TriggerHref)
			},
		},
		automation.Strategy{
			Name: "page click sweep",
			Try: func(context.Context) (bool, error) {
				return d.ClickSweep(newTaskTexts, sweepRoles)
			},
		},
	)
	if _, err := trigger.Run(ctx, r.logger); err != nil {
		return fmt.Errorf("could not click new task button: %w", err)
	}

	if !d.WaitForOverlay(modalSelectors, r.cfg.Timeouts.Overlay) {
		if err := automation.Sleep(ctx, r.cfg.Timeouts.PostTrigger); err != nil {
			return err
		}
	}
	if err := automation.Sleep(ctx, r.cfg.Timeouts.OverlayContent); err != nil {
		return err
	}
	d.Describe("task form")
	return nil
}

// ErrTaskNotCreated means the form was submitted but the task never showed
// up in the refreshed task list.
var ErrTaskNotCreated = errors.New("task was not created")

// submitTask clicks the submit control and verifies the outcome while the
// page's traffic is observed. The observer is released on every path.
func (r *Runner) submitTask(ctx context.Context, d *automation.Driver, taskName string) error {
	obs, err := automation.Observe(d.Page(), r.cfg.Patterns.TaskPost, r.logger)
	if err != nil {
		return err
	}
	defer obs.Close()

	submit := automation.NewChain("submit task form",
		automation.Strategy{
			Name: "create/save/submit control",
			Try: func(context.Context) (bool, error) {
				return d.ClickByText(submitTexts, automation.ButtonRoles)
			},
		},
		automation.Strategy{
			Name: "primary styled button",
			Try: func(context.Context) (bool, error) {
				return d.ClickStyled(primaryButton)
			},
		},
	)
	r.step(ctx, "submitting task")
	if _, err := submit.Run(ctx, r.logger); err != nil {
		return fmt.Errorf("could not click create task button: %w", err)
	}

	r.step(ctx, "verifying task")

	v, err := d.SubmitAndVerify(ctx, automation.VerifyOptions{
		Observer:         obs,
		SuccessSelectors: successSelectors,
		ErrorSelectors:   errorSelectors,
		ExpectedText:     taskName,
		OverlaySelectors: modalCloseSelectors,
		Settle:           r.cfg.Timeouts.Settle,
		OverlayClose:     r.cfg.Timeouts.ModalClose,
		ResultSettle:     r.cfg.Timeouts.ResultSettle,
		Reload:           r.cfg.Timeouts.Navigation,
	})
	for _, c := range obs.Captured() {
		r.logger.Debugf("task request %s %s body=%q", c.Method, c.URL, c.Body)
	}
	if errors.Is(err, automation.ErrNotVerified) {
		return fmt.Errorf("%w - it does not appear in the task list after refresh: %w", ErrTaskNotCreated, err)
	}
	if err != nil {
		return fmt.Errorf("task creation failed: %w", err)
	}
	r.logger.Infof("task creation verified (indicator=%q reloaded=%t)", v.SuccessText, v.Reloaded)
	return nil
}

// taskID reads an id from the confirmation notice. Its absence is normal.
func (r *Runner) taskID(d *automation.Driver) string {
	text, found, err := d.FirstText(TaskNotice)
	if err != nil {
		r.logger.Debugf("could not read task notice: %v", err)
		return ""
	}
	if !found {
		return ""
	}
	if m := taskIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
