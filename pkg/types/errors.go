package types

import "errors"

var (
	ErrMissingTaskType = errors.New("task type is required")
	ErrMissingTaskName = errors.New("task name is required")
)
