package request

import (
	"strings"

	"github.com/airyra/flowboard/internal/domain"
)

// CreateStatusRequest represents a request to add a status.
type CreateStatusRequest struct {
	Name            string                  `json:"name"`
	Color           string                  `json:"color"`
	Category        string                  `json:"category"`
	WipLimit        *int                    `json:"wip_limit,omitempty"`
	ColumnGroupID   *string                 `json:"column_group_id,omitempty"`
	AgingThresholds *domain.AgingThresholds `json:"aging_thresholds,omitempty"`
}

// Validate validates the create status request.
func (r *CreateStatusRequest) Validate() []string {
	var errors []string

	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, "name is required")
	}
	if !domain.StatusCategory(r.Category).IsValid() {
		errors = append(errors, "category must be todo, in_progress, done or blocked")
	}
	if r.WipLimit != nil && *r.WipLimit < 0 {
		errors = append(errors, "wip_limit must be zero or greater")
	}

	return errors
}

// UpdateStatusRequest represents a partial status update. The clear_* flags
// remove optional values.
type UpdateStatusRequest struct {
	Name             *string                 `json:"name,omitempty"`
	Color            *string                 `json:"color,omitempty"`
	Category         *string                 `json:"category,omitempty"`
	WipLimit         *int                    `json:"wip_limit,omitempty"`
	ClearWipLimit    bool                    `json:"clear_wip_limit,omitempty"`
	ColumnGroupID    *string                 `json:"column_group_id,omitempty"`
	ClearColumnGroup bool                    `json:"clear_column_group,omitempty"`
	AgingThresholds  *domain.AgingThresholds `json:"aging_thresholds,omitempty"`
	ClearAging       bool                    `json:"clear_aging_thresholds,omitempty"`
}

// Validate validates the update status request.
func (r *UpdateStatusRequest) Validate() []string {
	var errors []string

	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors = append(errors, "name cannot be empty")
	}
	if r.Category != nil && !domain.StatusCategory(*r.Category).IsValid() {
		errors = append(errors, "category must be todo, in_progress, done or blocked")
	}
	if r.WipLimit != nil && *r.WipLimit < 0 {
		errors = append(errors, "wip_limit must be zero or greater")
	}
	if r.WipLimit != nil && r.ClearWipLimit {
		errors = append(errors, "wip_limit and clear_wip_limit are exclusive")
	}

	return errors
}

// ReorderStatusesRequest lists every status id in the new order.
type ReorderStatusesRequest struct {
	StatusIDs []string `json:"status_ids"`
}

// Validate validates the reorder request.
func (r *ReorderStatusesRequest) Validate() []string {
	if len(r.StatusIDs) == 0 {
		return []string{"status_ids must not be empty"}
	}
	return nil
}

// ApplyTemplateRequest names the template to apply.
type ApplyTemplateRequest struct {
	Name string `json:"name"`
}

// Validate validates the template request.
func (r *ApplyTemplateRequest) Validate() []string {
	if strings.TrimSpace(r.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// CreateGroupRequest represents a request to create a column group.
type CreateGroupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate validates the create group request.
func (r *CreateGroupRequest) Validate() []string {
	if strings.TrimSpace(r.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// UpdateGroupRequest changes a group's collapsed state.
type UpdateGroupRequest struct {
	IsCollapsed *bool `json:"is_collapsed,omitempty"`
}

// SettingsRequest represents a partial settings update.
type SettingsRequest struct {
	EnforceWipLimits    *bool   `json:"enforce_wip_limits,omitempty"`
	SwimlaneProperty    *string `json:"swimlane_property,omitempty"`
	ShowArchivedColumns *bool   `json:"show_archived_columns,omitempty"`
}

// Validate validates the settings request.
func (r *SettingsRequest) Validate() []string {
	if r.SwimlaneProperty != nil && !domain.SwimlaneProperty(*r.SwimlaneProperty).IsValid() {
		return []string{"swimlane_property must be none, assignee, priority or dueDate"}
	}
	return nil
}

// BoardQueryRequest carries per-client board state: the swimlane override,
// collapsed lanes and the filter and sort of each column.
type BoardQueryRequest struct {
	Swimlane     *string            `json:"swimlane,omitempty"`
	ShowArchived *bool              `json:"show_archived,omitempty"`
	Collapsed    []string           `json:"collapsed,omitempty"`
	Views        domain.ColumnViews `json:"views,omitempty"`
}

// Validate validates the board query.
func (r *BoardQueryRequest) Validate() []string {
	if r.Swimlane != nil && !domain.SwimlaneProperty(*r.Swimlane).IsValid() {
		return []string{"swimlane must be none, assignee, priority or dueDate"}
	}
	return nil
}

// SwimlaneValue converts an optional wire swimlane property.
func SwimlaneValue(s *string) *domain.SwimlaneProperty {
	if s == nil {
		return nil
	}
	v := domain.SwimlaneProperty(*s)
	return &v
}

// CategoryValue converts an optional wire category.
func CategoryValue(s *string) *domain.StatusCategory {
	if s == nil {
		return nil
	}
	v := domain.StatusCategory(*s)
	return &v
}
