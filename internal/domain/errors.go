package domain

import "fmt"

// ErrorCode represents a domain error code.
type ErrorCode string

const (
	ErrCodeArchivedTarget        ErrorCode = "ARCHIVED_TARGET"
	ErrCodeWipLimitExceeded      ErrorCode = "WIP_LIMIT_EXCEEDED"
	ErrCodeTransitionFailed      ErrorCode = "TRANSITION_FAILED"
	ErrCodeHistoryInconsistent   ErrorCode = "HISTORY_INCONSISTENT"
	ErrCodeTaskNotFound          ErrorCode = "TASK_NOT_FOUND"
	ErrCodeStatusNotFound        ErrorCode = "STATUS_NOT_FOUND"
	ErrCodeGroupNotFound         ErrorCode = "GROUP_NOT_FOUND"
	ErrCodeDefaultStatusRequired ErrorCode = "DEFAULT_STATUS_REQUIRED"
	ErrCodeNothingToRevert       ErrorCode = "NOTHING_TO_REVERT"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeProjectNotFound       ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents an error in the domain layer with context.
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	cause   error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code, so the sentinels below
// work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrArchivedTarget        = &DomainError{Code: ErrCodeArchivedTarget, Message: "target status is archived"}
	ErrWipLimitExceeded      = &DomainError{Code: ErrCodeWipLimitExceeded, Message: "WIP limit exceeded"}
	ErrTransitionFailed      = &DomainError{Code: ErrCodeTransitionFailed, Message: "transition failed"}
	ErrHistoryInconsistent   = &DomainError{Code: ErrCodeHistoryInconsistent, Message: "status history inconsistent"}
	ErrTaskNotFound          = &DomainError{Code: ErrCodeTaskNotFound, Message: "task not found"}
	ErrStatusNotFound        = &DomainError{Code: ErrCodeStatusNotFound, Message: "status not found"}
	ErrDefaultStatusRequired = &DomainError{Code: ErrCodeDefaultStatusRequired, Message: "default status required"}
	ErrValidationFailed      = &DomainError{Code: ErrCodeValidationFailed, Message: "validation failed"}
)

// NewArchivedTargetError creates an error for a move into an archived status.
func NewArchivedTargetError(statusID, statusName string) *DomainError {
	return &DomainError{
		Code:    ErrCodeArchivedTarget,
		Message: fmt.Sprintf("Status %q is archived and does not accept tasks", statusName),
		Context: map[string]interface{}{"status_id": statusID},
	}
}

// NewWipLimitExceededError creates an error for a move that would exceed a
// column's WIP limit. incoming is the number of tasks being moved.
func NewWipLimitExceededError(statusID string, limit, current, incoming int) *DomainError {
	return &DomainError{
		Code: ErrCodeWipLimitExceeded,
		Message: fmt.Sprintf("WIP limit of %d reached: %d in column, %d incoming",
			limit, current, incoming),
		Context: map[string]interface{}{
			"status_id": statusID,
			"wip_limit": limit,
			"current":   current,
			"incoming":  incoming,
		},
	}
}

// NewTransitionFailedError wraps the failure of an accepted transition.
func NewTransitionFailedError(taskID string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransitionFailed,
		Message: fmt.Sprintf("Transition of task %s failed; previous state kept", taskID),
		Context: map[string]interface{}{"task_id": taskID},
		cause:   err,
	}
}

// NewHistoryInconsistentError reports a missing or unexpected open entry.
func NewHistoryInconsistentError(taskID, detail string) *DomainError {
	return &DomainError{
		Code:    ErrCodeHistoryInconsistent,
		Message: fmt.Sprintf("Status history of task %s is inconsistent: %s", taskID, detail),
		Context: map[string]interface{}{"task_id": taskID},
	}
}

// NewTaskNotFoundError creates a task not found error.
func NewTaskNotFoundError(taskID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeTaskNotFound,
		Message: fmt.Sprintf("Task %s not found", taskID),
		Context: map[string]interface{}{"id": taskID},
	}
}

// NewStatusNotFoundError creates a status not found error.
func NewStatusNotFoundError(statusID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeStatusNotFound,
		Message: fmt.Sprintf("Status %s not found", statusID),
		Context: map[string]interface{}{"id": statusID},
	}
}

// NewGroupNotFoundError creates a column group not found error.
func NewGroupNotFoundError(groupID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeGroupNotFound,
		Message: fmt.Sprintf("Column group %s not found", groupID),
		Context: map[string]interface{}{"id": groupID},
	}
}

// NewDefaultStatusRequiredError is returned when an operation would leave the
// workflow without a default status.
func NewDefaultStatusRequiredError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDefaultStatusRequired,
		Message: reason,
		Context: map[string]interface{}{},
	}
}

// NewNothingToRevertError is returned when a task has no move to compensate.
func NewNothingToRevertError(taskID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNothingToRevert,
		Message: fmt.Sprintf("Task %s has no move to revert", taskID),
		Context: map[string]interface{}{"task_id": taskID},
	}
}

// NewValidationError creates a validation error.
func NewValidationError(details []string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Context: map[string]interface{}{"details": details},
	}
}

// NewProjectNotFoundError creates a project not found error.
func NewProjectNotFoundError(project string) *DomainError {
	return &DomainError{
		Code:    ErrCodeProjectNotFound,
		Message: fmt.Sprintf("Project %s not found", project),
		Context: map[string]interface{}{"project": project},
	}
}

// NewInternalError creates an internal error.
func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternalError,
		Message: "An internal error occurred",
		Context: map[string]interface{}{},
		cause:   err,
	}
}
