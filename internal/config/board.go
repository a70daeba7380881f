package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/airyra/flowboard/internal/domain"
)

// boardConfig represents the [board] section in TOML. Pointer and nil slice
// fields distinguish "not set" from zero values so files can be layered.
type boardConfig struct {
	EnforceWipLimits    *bool    `toml:"enforce_wip_limits"`
	Swimlane            string   `toml:"swimlane"`
	ShowArchivedColumns *bool    `toml:"show_archived_columns"`
	Locale              string   `toml:"locale"`
	DoneKeywords        []string `toml:"done_keywords"`
	BlockedKeywords     []string `toml:"blocked_keywords"`
	InProgressKeywords  []string `toml:"in_progress_keywords"`
	TodoKeywords        []string `toml:"todo_keywords"`
}

// BoardConfig holds the board defaults of one config file.
type BoardConfig struct {
	EnforceWipLimits    *bool
	Swimlane            domain.SwimlaneProperty
	ShowArchivedColumns *bool
	Locale              string
	Keywords            domain.CategoryKeywords
}

func (b boardConfig) parse(source string) (BoardConfig, error) {
	cfg := BoardConfig{
		EnforceWipLimits:    b.EnforceWipLimits,
		Swimlane:            domain.SwimlaneProperty(b.Swimlane),
		ShowArchivedColumns: b.ShowArchivedColumns,
		Locale:              b.Locale,
		Keywords: domain.CategoryKeywords{
			Done:       b.DoneKeywords,
			Blocked:    b.BlockedKeywords,
			InProgress: b.InProgressKeywords,
			Todo:       b.TodoKeywords,
		},
	}
	if b.Swimlane != "" && !cfg.Swimlane.IsValid() {
		return cfg, fmt.Errorf("%s: invalid swimlane %q: must be none, assignee, priority or dueDate", source, b.Swimlane)
	}
	if b.Locale != "" {
		if _, err := language.Parse(b.Locale); err != nil {
			return cfg, fmt.Errorf("%s: invalid locale %q: %w", source, b.Locale, err)
		}
	}
	return cfg, nil
}

// parseTemplates validates the [[templates]] tables of one file.
func parseTemplates(templates []domain.WorkflowTemplate, source string) ([]domain.WorkflowTemplate, error) {
	seen := make(map[string]bool, len(templates))
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %s", source, details(err))
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%s: duplicate template %q", source, t.Name)
		}
		seen[t.Name] = true
	}
	return templates, nil
}

// details flattens the messages of a validation error.
func details(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if d, ok := de.Context["details"].([]string); ok && len(d) > 0 {
			return strings.Join(d, "; ")
		}
	}
	return err.Error()
}

// overlay applies the values set in b on top of base.
func (b BoardConfig) overlay(base BoardConfig) BoardConfig {
	if b.EnforceWipLimits != nil {
		base.EnforceWipLimits = b.EnforceWipLimits
	}
	if b.Swimlane != "" {
		base.Swimlane = b.Swimlane
	}
	if b.ShowArchivedColumns != nil {
		base.ShowArchivedColumns = b.ShowArchivedColumns
	}
	if b.Locale != "" {
		base.Locale = b.Locale
	}
	base.Keywords = base.Keywords.Merge(b.Keywords)
	return base
}
