// Package store manages the per-project SQLite databases.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Valid project name: alphanumeric, hyphens, underscores, 1-64 chars.
var validProjectName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ErrInvalidProjectName is returned for names that cannot be used as a
// database file name.
var ErrInvalidProjectName = errors.New("invalid project name: must be 1-64 alphanumeric characters, hyphens, or underscores")

// ValidProjectName reports whether name can be used as a project.
func ValidProjectName(name string) bool {
	return validProjectName.MatchString(name)
}

// Manager handles multiple SQLite database connections, one per project.
type Manager struct {
	basePath string
	dbs      map[string]*sql.DB
	mu       sync.RWMutex
}

// NewManager creates a new database manager.
// basePath is the directory where project databases are stored (e.g., ~/.flowboard/projects/).
func NewManager(basePath string) (*Manager, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return &Manager{
		basePath: basePath,
		dbs:      make(map[string]*sql.DB),
	}, nil
}

// BasePath returns the directory holding the project databases.
func (m *Manager) BasePath() string {
	return m.basePath
}

// GetDB returns the database connection for a project, creating and
// migrating it if necessary.
func (m *Manager) GetDB(project string) (*sql.DB, error) {
	if !ValidProjectName(project) {
		return nil, ErrInvalidProjectName
	}

	m.mu.RLock()
	if db, ok := m.dbs[project]; ok {
		m.mu.RUnlock()
		return db, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if db, ok := m.dbs[project]; ok {
		return db, nil
	}

	db, err := sql.Open("sqlite3", m.dbPath(project)+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	m.dbs[project] = db
	return db, nil
}

// HasProject reports whether a database exists for project.
func (m *Manager) HasProject(project string) bool {
	if !ValidProjectName(project) {
		return false
	}
	_, err := os.Stat(m.dbPath(project))
	return err == nil
}

// ListProjects returns the known projects (based on existing database files), sorted.
func (m *Manager) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(m.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".db" {
			projects = append(projects, name[:len(name)-3])
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Close closes all database connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for project, db := range m.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", project, err))
		}
	}
	m.dbs = make(map[string]*sql.DB)
	return errors.Join(errs...)
}

func (m *Manager) dbPath(project string) string {
	return filepath.Join(m.basePath, project+".db")
}
