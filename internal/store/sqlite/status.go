package sqlite

import (
	"database/sql"

	"github.com/airyra/flowboard/internal/domain"
)

const statusColumns = `id, name, color, position, is_default, is_archived, archived_at, wip_limit, column_group_id, aging_warning_hours, aging_critical_hours, category, created_at`

// StatusRepository handles workflow status persistence operations.
type StatusRepository struct {
	db DBTX
}

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(db DBTX) *StatusRepository {
	return &StatusRepository{db: db}
}

// Create creates a new status.
func (r *StatusRepository) Create(s *domain.WorkflowStatus) error {
	warn, crit := agingColumns(s.AgingThresholds)
	_, err := r.db.Exec(`INSERT INTO workflow_statuses (`+statusColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.Name,
		s.Color,
		s.Order,
		boolInt(s.IsDefault),
		boolInt(s.IsArchived),
		formatNullTime(s.ArchivedAt),
		s.WipLimit,
		s.ColumnGroupID,
		warn,
		crit,
		string(s.Category),
		formatTime(s.CreatedAt),
	)
	return err
}

// GetByID retrieves a status by its ID.
func (r *StatusRepository) GetByID(id string) (*domain.WorkflowStatus, error) {
	return scanStatus(r.db.QueryRow(`SELECT `+statusColumns+` FROM workflow_statuses WHERE id = ?`, id))
}

// List returns every status in board order. An empty result means the
// project still uses the legacy statuses.
func (r *StatusRepository) List() ([]*domain.WorkflowStatus, error) {
	rows, err := r.db.Query(`SELECT ` + statusColumns + ` FROM workflow_statuses ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []*domain.WorkflowStatus{}
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Update writes every mutable field of a status.
func (r *StatusRepository) Update(s *domain.WorkflowStatus) error {
	warn, crit := agingColumns(s.AgingThresholds)
	result, err := r.db.Exec(`
		UPDATE workflow_statuses
		SET name = ?, color = ?, position = ?, is_default = ?, is_archived = ?, archived_at = ?,
		    wip_limit = ?, column_group_id = ?, aging_warning_hours = ?, aging_critical_hours = ?, category = ?
		WHERE id = ?
	`,
		s.Name,
		s.Color,
		s.Order,
		boolInt(s.IsDefault),
		boolInt(s.IsArchived),
		formatNullTime(s.ArchivedAt),
		s.WipLimit,
		s.ColumnGroupID,
		warn,
		crit,
		string(s.Category),
		s.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// UpdatePositions writes the Order of every given status.
func (r *StatusRepository) UpdatePositions(statuses []*domain.WorkflowStatus) error {
	for _, s := range statuses {
		result, err := r.db.Exec(`UPDATE workflow_statuses SET position = ? WHERE id = ?`, s.Order, s.ID)
		if err != nil {
			return err
		}
		if err := expectOneRow(result); err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes a status by ID. Tasks must have been reassigned first.
func (r *StatusRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM workflow_statuses WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func scanStatus(sc scanner) (*domain.WorkflowStatus, error) {
	var s domain.WorkflowStatus
	var isDefault, isArchived int
	var archivedAt, groupID sql.NullString
	var wipLimit, warn, crit sql.NullInt64
	var category, createdAt string

	err := sc.Scan(
		&s.ID,
		&s.Name,
		&s.Color,
		&s.Order,
		&isDefault,
		&isArchived,
		&archivedAt,
		&wipLimit,
		&groupID,
		&warn,
		&crit,
		&category,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	s.IsDefault = isDefault == 1
	s.IsArchived = isArchived == 1
	s.ArchivedAt = parseNullTime(archivedAt)
	s.WipLimit = nullInt(wipLimit)
	s.ColumnGroupID = nullString(groupID)
	if warn.Valid || crit.Valid {
		s.AgingThresholds = &domain.AgingThresholds{WarningHours: int(warn.Int64), CriticalHours: int(crit.Int64)}
	}
	s.Category = domain.StatusCategory(category)
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func agingColumns(a *domain.AgingThresholds) (warn, crit *int) {
	if a == nil {
		return nil, nil
	}
	return &a.WarningHours, &a.CriticalHours
}
