package client

import "github.com/airyra/flowboard/internal/domain"

// TaskFilter narrows ListTasks. Zero values are not sent.
type TaskFilter struct {
	Status   string
	Assignee string
	Page     int
	PerPage  int
}

// TaskListResponse represents a paginated list of tasks.
type TaskListResponse struct {
	Data       []*domain.Task
	Pagination *Pagination
}

// Pagination contains pagination metadata from API responses.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// paginatedTaskResponse is the raw JSON structure for paginated task responses.
type paginatedTaskResponse struct {
	Data       []*domain.Task     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

// paginationResponse is the raw JSON structure for pagination metadata.
type paginationResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// healthResponse is the JSON response for the health endpoint.
type healthResponse struct {
	Status string `json:"status"`
}
