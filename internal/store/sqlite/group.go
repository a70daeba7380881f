package sqlite

import (
	"github.com/airyra/flowboard/internal/domain"
)

// GroupRepository handles column group persistence operations.
type GroupRepository struct {
	db DBTX
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db DBTX) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create creates a new column group.
func (r *GroupRepository) Create(g *domain.ColumnGroup) error {
	_, err := r.db.Exec(`INSERT INTO column_groups (id, name, color, position, is_collapsed) VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Color, g.Order, boolInt(g.IsCollapsed))
	return err
}

// Update writes a group's name, color, position and collapsed flag.
func (r *GroupRepository) Update(g *domain.ColumnGroup) error {
	result, err := r.db.Exec(`UPDATE column_groups SET name = ?, color = ?, position = ?, is_collapsed = ? WHERE id = ?`,
		g.Name, g.Color, g.Order, boolInt(g.IsCollapsed), g.ID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// GetByID retrieves a group with its member status ids.
func (r *GroupRepository) GetByID(id string) (*domain.ColumnGroup, error) {
	var g domain.ColumnGroup
	var collapsed int
	err := r.db.QueryRow(`SELECT id, name, color, position, is_collapsed FROM column_groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Color, &g.Order, &collapsed)
	if err != nil {
		return nil, err
	}
	g.IsCollapsed = collapsed == 1

	members, err := r.members()
	if err != nil {
		return nil, err
	}
	g.StatusIDs = nonNil(members[g.ID])
	return &g, nil
}

// List returns every group in order, each with its member status ids in
// board order.
func (r *GroupRepository) List() ([]*domain.ColumnGroup, error) {
	rows, err := r.db.Query(`SELECT id, name, color, position, is_collapsed FROM column_groups ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*domain.ColumnGroup{}
	for rows.Next() {
		var g domain.ColumnGroup
		var collapsed int
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.Order, &collapsed); err != nil {
			return nil, err
		}
		g.IsCollapsed = collapsed == 1
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := r.members()
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.StatusIDs = nonNil(members[g.ID])
	}
	return groups, nil
}

// Delete deletes a group. Member statuses lose their group.
func (r *GroupRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM column_groups WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (r *GroupRepository) members() (map[string][]string, error) {
	rows, err := r.db.Query(`
		SELECT column_group_id, id FROM workflow_statuses
		WHERE column_group_id IS NOT NULL
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var groupID, statusID string
		if err := rows.Scan(&groupID, &statusID); err != nil {
			return nil, err
		}
		members[groupID] = append(members[groupID], statusID)
	}
	return members, rows.Err()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
