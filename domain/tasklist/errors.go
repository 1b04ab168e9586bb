package tasklist

import "errors"

// Domain errors for task lists and tasks.
var (
	ErrListNotFound     = errors.New("task list not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee not found")
	ErrListCreation     = errors.New("task list creation failed")
	ErrIntegrity        = errors.New("integrity constraint violated")
)
