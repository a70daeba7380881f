package sqlite

import (
	"database/sql"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// SettingsRepository persists the project's workflow settings.
type SettingsRepository struct {
	db DBTX
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings. found is false when none were saved yet.
func (r *SettingsRepository) Get() (settings domain.WorkflowSettings, found bool, err error) {
	var enforce, showArchived int
	var swimlane string
	err = r.db.QueryRow(`SELECT enforce_wip_limits, swimlane_property, show_archived_columns FROM workflow_settings WHERE id = 1`).
		Scan(&enforce, &swimlane, &showArchived)
	if err == sql.ErrNoRows {
		return domain.WorkflowSettings{}, false, nil
	}
	if err != nil {
		return domain.WorkflowSettings{}, false, err
	}
	return domain.WorkflowSettings{
		EnforceWipLimits:    enforce == 1,
		SwimlaneProperty:    domain.SwimlaneProperty(swimlane),
		ShowArchivedColumns: showArchived == 1,
	}, true, nil
}

// Save stores the settings, replacing any previous value.
func (r *SettingsRepository) Save(s domain.WorkflowSettings, now time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO workflow_settings (id, enforce_wip_limits, swimlane_property, show_archived_columns, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    enforce_wip_limits = excluded.enforce_wip_limits,
		    swimlane_property = excluded.swimlane_property,
		    show_archived_columns = excluded.show_archived_columns,
		    updated_at = excluded.updated_at
	`,
		boolInt(s.EnforceWipLimits),
		string(s.SwimlaneProperty),
		boolInt(s.ShowArchivedColumns),
		formatTime(now),
	)
	return err
}
