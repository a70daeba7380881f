package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// CreateTaskRequest represents a request to create a task.
type CreateTaskRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	StatusID     *string `json:"status_id,omitempty"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AssigneeName *string `json:"assignee_name,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
}

// Validate validates the create task request.
func (r *CreateTaskRequest) Validate() []string {
	var errors []string

	if strings.TrimSpace(r.Title) == "" {
		errors = append(errors, "title is required")
	}
	errors = append(errors, validatePriority(r.Priority)...)
	if r.DueDate != nil {
		if _, err := time.Parse(DateLayout, *r.DueDate); err != nil {
			errors = append(errors, "due_date must be YYYY-MM-DD")
		}
	}

	return errors
}

// UpdateTaskRequest represents a request to update a task. An empty
// assignee_id unassigns and an empty due_date clears the due date.
type UpdateTaskRequest struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AssigneeName *string `json:"assignee_name,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
}

// Validate validates the update task request.
func (r *UpdateTaskRequest) Validate() []string {
	var errors []string

	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		errors = append(errors, "title cannot be empty")
	}
	errors = append(errors, validatePriority(r.Priority)...)
	if r.DueDate != nil && *r.DueDate != "" {
		if _, err := time.Parse(DateLayout, *r.DueDate); err != nil {
			errors = append(errors, "due_date must be YYYY-MM-DD")
		}
	}

	return errors
}

func validatePriority(p *string) []string {
	if p != nil && !domain.Priority(*p).IsValid() {
		return []string{"priority must be HIGH, MEDIUM or LOW"}
	}
	return nil
}

// PriorityValue converts an optional wire priority.
func PriorityValue(p *string) *domain.Priority {
	if p == nil {
		return nil
	}
	v := domain.Priority(*p)
	return &v
}

// DateValue parses an optional wire date. Empty and invalid values yield nil.
func DateValue(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil
	}
	return &d
}

// MoveTaskRequest represents a request to move one task.
type MoveTaskRequest struct {
	StatusID string `json:"status_id"`
}

// Validate validates the move request.
func (r *MoveTaskRequest) Validate() []string {
	if r.StatusID == "" {
		return []string{"status_id is required"}
	}
	return nil
}

// BulkMoveRequest represents a request to move several tasks at once.
type BulkMoveRequest struct {
	TaskIDs  []string `json:"task_ids"`
	StatusID string   `json:"status_id"`
}

// Validate validates the bulk move request.
func (r *BulkMoveRequest) Validate() []string {
	var errors []string

	if len(r.TaskIDs) == 0 {
		errors = append(errors, "task_ids must not be empty")
	}
	if r.StatusID == "" {
		errors = append(errors, "status_id is required")
	}

	return errors
}

// DecodeJSON decodes JSON from request body into the given value.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Pagination contains pagination parameters.
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPage is the default page number.
const DefaultPage = 1

// DefaultPerPage is the default items per page.
const DefaultPerPage = 50

// MaxPerPage is the maximum items per page.
const MaxPerPage = 100

// ParsePagination extracts pagination from query parameters.
func ParsePagination(r *http.Request) Pagination {
	page := DefaultPage
	perPage := DefaultPerPage

	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if pp := r.URL.Query().Get("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 {
			perPage = v
		}
	}

	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Pagination{Page: page, PerPage: perPage}
}

// ParseOptional returns the query parameter name, or nil when it is absent.
func ParseOptional(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}
