package types

import "strings"

// TaskType is the category a new task is filed under.
type TaskType string

const (
	TaskTypeBilling    TaskType = "billing"    // TaskTypeBilling files the task with the billing team.
	TaskTypeClinical   TaskType = "clinical"   // TaskTypeClinical files the task with clinical staff.
	TaskTypeFrontDesk  TaskType = "front_desk" // TaskTypeFrontDesk files the task with the front desk.
	TaskTypePractice   TaskType = "practice"   // TaskTypePractice files the task with practice operations.
	TaskTypeManagement TaskType = "management" // TaskTypeManagement files the task with management.
	TaskTypeSupport    TaskType = "support"    // TaskTypeSupport files the task with support.
)

// TaskTypes lists every task type the task form is known to offer.
var TaskTypes = []TaskType{
	TaskTypeBilling,
	TaskTypeClinical,
	TaskTypeFrontDesk,
	TaskTypePractice,
	TaskTypeManagement,
	TaskTypeSupport,
}

// IsKnownTaskType reports whether s names one of TaskTypes.
func IsKnownTaskType(s string) bool {
	for _, t := range TaskTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// TaskTypeNames returns TaskTypes as plain strings.
func TaskTypeNames() []string {
	names := make([]string, 0, len(TaskTypes))
	for _, t := range TaskTypes {
		names = append(names, string(t))
	}
	return names
}

// TaskCreationRequest describes a task to create through the task form.
type TaskCreationRequest struct {
	TaskType    string
	TaskName    string
	Description string
}

// Validate checks the fields the form cannot do without.
func (r TaskCreationRequest) Validate() error {
	if strings.TrimSpace(r.TaskType) == "" {
		return ErrMissingTaskType
	}
	if strings.TrimSpace(r.TaskName) == "" {
		return ErrMissingTaskName
	}
	return nil
}

// TaskResult reports the outcome of a task creation attempt.
// TaskID is empty when the confirmation did not expose an identifier.
type TaskResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TaskID  string `json:"taskId,omitempty"`
}
