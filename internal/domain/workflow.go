package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StatusCategory classifies a workflow status for metrics.
type StatusCategory string

const (
	CategoryNone       StatusCategory = ""
	CategoryTodo       StatusCategory = "todo"
	CategoryInProgress StatusCategory = "in_progress"
	CategoryDone       StatusCategory = "done"
	CategoryBlocked    StatusCategory = "blocked"
)

// IsValid checks if the category is known. CategoryNone is valid and means
// the category is inferred from the status name.
func (c StatusCategory) IsValid() bool {
	switch c {
	case CategoryNone, CategoryTodo, CategoryInProgress, CategoryDone, CategoryBlocked:
		return true
	}
	return false
}

// AgingThresholds are the hours after which a task in a column is flagged.
type AgingThresholds struct {
	WarningHours  int `json:"warning_hours"`
	CriticalHours int `json:"critical_hours"`
}

// WorkflowStatus is one column of a custom workflow.
type WorkflowStatus struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Color           string           `json:"color"`
	Order           int              `json:"order"`
	IsDefault       bool             `json:"is_default"`
	IsArchived      bool             `json:"is_archived"`
	ArchivedAt      *time.Time       `json:"archived_at,omitempty"`
	WipLimit        *int             `json:"wip_limit,omitempty"`
	ColumnGroupID   *string          `json:"column_group_id,omitempty"`
	AgingThresholds *AgingThresholds `json:"aging_thresholds,omitempty"`
	Category        StatusCategory   `json:"category,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Clone returns a deep copy of the status.
func (s *WorkflowStatus) Clone() *WorkflowStatus {
	c := *s
	if s.ArchivedAt != nil {
		t := *s.ArchivedAt
		c.ArchivedAt = &t
	}
	if s.WipLimit != nil {
		l := *s.WipLimit
		c.WipLimit = &l
	}
	c.ColumnGroupID = cloneString(s.ColumnGroupID)
	if s.AgingThresholds != nil {
		a := *s.AgingThresholds
		c.AgingThresholds = &a
	}
	return &c
}

// ResolvedCategory returns the explicit category, or one inferred from the
// status name using kw.
func (s *WorkflowStatus) ResolvedCategory(kw CategoryKeywords) StatusCategory {
	if s.Category != CategoryNone {
		return s.Category
	}
	return kw.Classify(s.Name)
}

// ColumnGroup groups adjacent columns under a shared header.
type ColumnGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Color       string   `json:"color"`
	Order       int      `json:"order"`
	IsCollapsed bool     `json:"is_collapsed"`
	StatusIDs   []string `json:"status_ids"`
}

// SwimlaneProperty selects how the board is split into swimlanes.
type SwimlaneProperty string

const (
	SwimlaneNone     SwimlaneProperty = "none"
	SwimlaneAssignee SwimlaneProperty = "assignee"
	SwimlanePriority SwimlaneProperty = "priority"
	SwimlaneDueDate  SwimlaneProperty = "dueDate"
)

// IsValid checks if the property is known.
func (p SwimlaneProperty) IsValid() bool {
	switch p {
	case SwimlaneNone, SwimlaneAssignee, SwimlanePriority, SwimlaneDueDate:
		return true
	}
	return false
}

// WorkflowSettings are the per-project board switches.
type WorkflowSettings struct {
	EnforceWipLimits    bool             `json:"enforce_wip_limits"`
	SwimlaneProperty    SwimlaneProperty `json:"swimlane_property"`
	ShowArchivedColumns bool             `json:"show_archived_columns"`
}

// DefaultSettings returns settings with WIP enforcement off and no swimlanes.
func DefaultSettings() WorkflowSettings {
	return WorkflowSettings{SwimlaneProperty: SwimlaneNone}
}

// CategoryKeywords drive name-based category inference for statuses that
// carry no explicit category. Matching is case-insensitive substring search,
// checked in the order done, blocked, in progress, todo.
type CategoryKeywords struct {
	Done       []string `json:"done" toml:"done"`
	Blocked    []string `json:"blocked" toml:"blocked"`
	InProgress []string `json:"in_progress" toml:"in_progress"`
	Todo       []string `json:"todo" toml:"todo"`
}

// DefaultCategoryKeywords returns the built-in keyword lists.
func DefaultCategoryKeywords() CategoryKeywords {
	return CategoryKeywords{
		Done:       []string{"done", "complete", "closed", "finished", "resolved"},
		Blocked:    []string{"blocked", "on hold", "waiting"},
		InProgress: []string{"progress", "doing", "review", "testing", "active"},
		Todo:       []string{"todo", "to do", "backlog", "open", "new"},
	}
}

// Merge returns kw with every list set in override replaced.
func (kw CategoryKeywords) Merge(override CategoryKeywords) CategoryKeywords {
	if override.Done != nil {
		kw.Done = override.Done
	}
	if override.Blocked != nil {
		kw.Blocked = override.Blocked
	}
	if override.InProgress != nil {
		kw.InProgress = override.InProgress
	}
	if override.Todo != nil {
		kw.Todo = override.Todo
	}
	return kw
}

// Classify infers the category of a status name. Names matching no keyword
// return CategoryNone.
func (kw CategoryKeywords) Classify(name string) StatusCategory {
	n := strings.ToLower(strings.ReplaceAll(name, "_", " "))
	for _, c := range []struct {
		words []string
		cat   StatusCategory
	}{
		{kw.Done, CategoryDone},
		{kw.Blocked, CategoryBlocked},
		{kw.InProgress, CategoryInProgress},
		{kw.Todo, CategoryTodo},
	} {
		for _, w := range c.words {
			if w != "" && strings.Contains(n, strings.ToLower(w)) {
				return c.cat
			}
		}
	}
	return CategoryNone
}

// LegacyStatuses returns synthetic workflow statuses for the legacy enum,
// used when a project has no custom workflow.
func LegacyStatuses() []*WorkflowStatus {
	names := map[LegacyStatus]string{
		StatusTodo:       "To Do",
		StatusInProgress: "In Progress",
		StatusInReview:   "In Review",
		StatusDone:       "Done",
		StatusBlocked:    "Blocked",
	}
	categories := map[LegacyStatus]StatusCategory{
		StatusTodo:       CategoryTodo,
		StatusInProgress: CategoryInProgress,
		StatusInReview:   CategoryInProgress,
		StatusDone:       CategoryDone,
		StatusBlocked:    CategoryBlocked,
	}
	statuses := make([]*WorkflowStatus, 0, len(ValidLegacyStatuses))
	for i, s := range ValidLegacyStatuses {
		statuses = append(statuses, &WorkflowStatus{
			ID:        string(s),
			Name:      names[s],
			Order:     i,
			IsDefault: s == StatusTodo,
			Category:  categories[s],
		})
	}
	return statuses
}

// SortStatuses sorts statuses by order, then id.
func SortStatuses(statuses []*WorkflowStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].Order != statuses[j].Order {
			return statuses[i].Order < statuses[j].Order
		}
		return statuses[i].ID < statuses[j].ID
	})
}

// ReindexOrder sorts statuses and rewrites their orders to 0..N-1.
func ReindexOrder(statuses []*WorkflowStatus) {
	SortStatuses(statuses)
	for i, s := range statuses {
		s.Order = i
	}
}

// FindStatus returns the status with the given id, or nil.
func FindStatus(statuses []*WorkflowStatus, id string) *WorkflowStatus {
	for _, s := range statuses {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// DefaultStatus returns the first default status in order, or nil.
func DefaultStatus(statuses []*WorkflowStatus) *WorkflowStatus {
	var found *WorkflowStatus
	for _, s := range statuses {
		if s.IsDefault && (found == nil || s.Order < found.Order) {
			found = s
		}
	}
	return found
}

// ValidateWorkflow checks the workflow invariants: at least one default
// status, and orders forming exactly 0..N-1.
func ValidateWorkflow(statuses []*WorkflowStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	if DefaultStatus(statuses) == nil {
		return NewDefaultStatusRequiredError("workflow has no default status")
	}
	seen := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		if s.Order < 0 || s.Order >= len(statuses) || seen[s.Order] {
			return NewValidationError([]string{
				fmt.Sprintf("status orders must be contiguous 0..%d", len(statuses)-1),
			})
		}
		seen[s.Order] = true
	}
	return nil
}

// ReorderStatuses assigns orders following ids, which must be a permutation
// of the statuses' ids.
func ReorderStatuses(statuses []*WorkflowStatus, ids []string) error {
	if len(ids) != len(statuses) {
		return NewValidationError([]string{
			fmt.Sprintf("reorder needs all %d status ids, got %d", len(statuses), len(ids)),
		})
	}
	byID := make(map[string]*WorkflowStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if byID[id] == nil {
			return NewStatusNotFoundError(id)
		}
		if seen[id] {
			return NewValidationError([]string{fmt.Sprintf("status %s listed twice", id)})
		}
		seen[id] = true
	}
	for i, id := range ids {
		byID[id].Order = i
	}
	SortStatuses(statuses)
	return nil
}

// ResolveFallback picks the status that receives the tasks of a deleted
// status. An empty fallbackID selects the default status.
func ResolveFallback(statuses []*WorkflowStatus, deletingID, fallbackID string) (*WorkflowStatus, error) {
	deleting := FindStatus(statuses, deletingID)
	if deleting == nil {
		return nil, NewStatusNotFoundError(deletingID)
	}
	if deleting.IsDefault {
		return nil, NewDefaultStatusRequiredError("the default status cannot be deleted")
	}
	var fallback *WorkflowStatus
	if fallbackID == "" {
		fallback = DefaultStatus(statuses)
	} else {
		fallback = FindStatus(statuses, fallbackID)
		if fallback == nil {
			return nil, NewStatusNotFoundError(fallbackID)
		}
	}
	if fallback == nil {
		return nil, NewDefaultStatusRequiredError("workflow has no default status")
	}
	if fallback.ID == deletingID {
		return nil, NewValidationError([]string{"fallback status must differ from the deleted status"})
	}
	if fallback.IsArchived {
		return nil, NewArchivedTargetError(fallback.ID, fallback.Name)
	}
	return fallback, nil
}

// RemoveStatus returns statuses without id, reindexed to contiguous order.
func RemoveStatus(statuses []*WorkflowStatus, id string) []*WorkflowStatus {
	out := make([]*WorkflowStatus, 0, len(statuses))
	for _, s := range statuses {
		if s.ID != id {
			out = append(out, s)
		}
	}
	ReindexOrder(out)
	return out
}

// TemplateStatus is one column of a workflow template.
type TemplateStatus struct {
	Name     string         `json:"name" toml:"name"`
	Color    string         `json:"color" toml:"color"`
	Category StatusCategory `json:"category" toml:"category"`
	WipLimit *int           `json:"wip_limit,omitempty" toml:"wip_limit"`
}

// WorkflowTemplate is a named, ordered set of statuses.
type WorkflowTemplate struct {
	Name     string           `json:"name" toml:"name"`
	Statuses []TemplateStatus `json:"statuses" toml:"statuses"`
}

// BuiltinTemplates returns the templates shipped with flowboard, keyed by name.
func BuiltinTemplates() map[string]WorkflowTemplate {
	three := 3
	return map[string]WorkflowTemplate{
		"basic": {Name: "basic", Statuses: []TemplateStatus{
			{Name: "To Do", Color: "#6b7280", Category: CategoryTodo},
			{Name: "In Progress", Color: "#3b82f6", Category: CategoryInProgress},
			{Name: "Done", Color: "#22c55e", Category: CategoryDone},
		}},
		"kanban": {Name: "kanban", Statuses: []TemplateStatus{
			{Name: "Backlog", Color: "#9ca3af", Category: CategoryTodo},
			{Name: "Ready", Color: "#6b7280", Category: CategoryTodo},
			{Name: "In Progress", Color: "#3b82f6", Category: CategoryInProgress, WipLimit: &three},
			{Name: "Review", Color: "#a855f7", Category: CategoryInProgress, WipLimit: &three},
			{Name: "Done", Color: "#22c55e", Category: CategoryDone},
		}},
		"scrum": {Name: "scrum", Statuses: []TemplateStatus{
			{Name: "To Do", Color: "#6b7280", Category: CategoryTodo},
			{Name: "In Progress", Color: "#3b82f6", Category: CategoryInProgress},
			{Name: "Blocked", Color: "#ef4444", Category: CategoryBlocked},
			{Name: "In Review", Color: "#a855f7", Category: CategoryInProgress},
			{Name: "Done", Color: "#22c55e", Category: CategoryDone},
		}},
	}
}

// Validate checks that the template can be materialized.
func (t WorkflowTemplate) Validate() error {
	var errs []string
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, "template name is required")
	}
	if len(t.Statuses) == 0 {
		errs = append(errs, fmt.Sprintf("template %q has no statuses", t.Name))
	}
	for i, ts := range t.Statuses {
		if strings.TrimSpace(ts.Name) == "" {
			errs = append(errs, fmt.Sprintf("template %q status %d has no name", t.Name, i))
		}
		if !ts.Category.IsValid() {
			errs = append(errs, fmt.Sprintf("unknown category %q", ts.Category))
		}
		if ts.WipLimit != nil && *ts.WipLimit < 0 {
			errs = append(errs, fmt.Sprintf("template %q status %q: wip_limit must be zero or greater", t.Name, ts.Name))
		}
	}
	if len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}

// BuildStatuses materializes a template. The first status is the default.
func (t WorkflowTemplate) BuildStatuses(newID func() string, now time.Time) ([]*WorkflowStatus, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	statuses := make([]*WorkflowStatus, 0, len(t.Statuses))
	for i, ts := range t.Statuses {
		s := &WorkflowStatus{
			ID:        newID(),
			Name:      ts.Name,
			Color:     ts.Color,
			Order:     i,
			IsDefault: i == 0,
			Category:  ts.Category,
			CreatedAt: now,
		}
		if ts.WipLimit != nil {
			l := *ts.WipLimit
			s.WipLimit = &l
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}
