package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/bitacora/internal/domain"
)

// maxSupervisors matches the page size of the hosted supervisor listing.
const maxSupervisors = 100

type SupervisorStore struct {
	db *sql.DB
}

func NewSupervisorStore(db *sql.DB) *SupervisorStore {
	return &SupervisorStore{db: db}
}

// GetSupervisor returns the supervisor with its assigned project identifiers.
func (s *SupervisorStore) GetSupervisor(ctx context.Context, id string) (*domain.Supervisor, error) {
	sup := &domain.Supervisor{Projects: []domain.Project{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, active FROM supervisors WHERE id = ?
	`, id).Scan(&sup.ID, &sup.Name, &sup.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supervisor %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor: %w", err)
	}

	links, err := s.projectLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.ProjectIDs = links[id]
	if sup.ProjectIDs == nil {
		sup.ProjectIDs = []string{}
	}
	return sup, nil
}

func (s *SupervisorStore) ListActiveSupervisors(ctx context.Context) ([]*domain.Supervisor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active FROM supervisors WHERE active = 1 ORDER BY name ASC LIMIT ?
	`, maxSupervisors)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	defer rows.Close()

	var sups []*domain.Supervisor
	for rows.Next() {
		sup := &domain.Supervisor{Projects: []domain.Project{}}
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Active); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		sups = append(sups, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisors: %w", err)
	}
	rows.Close()

	links, err := s.projectLinks(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, sup := range sups {
		sup.ProjectIDs = links[sup.ID]
		if sup.ProjectIDs == nil {
			sup.ProjectIDs = []string{}
		}
	}
	return sups, nil
}

// projectLinks maps supervisor id to assigned project ids, for one supervisor
// or, when supervisorID is empty, for all of them.
func (s *SupervisorStore) projectLinks(ctx context.Context, supervisorID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT supervisor_id, project_id FROM supervisor_projects
		WHERE ? = '' OR supervisor_id = ?
		ORDER BY supervisor_id, position
	`, supervisorID, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned projects: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var sid, pid string
		if err := rows.Scan(&sid, &pid); err != nil {
			return nil, fmt.Errorf("failed to scan assigned project: %w", err)
		}
		links[sid] = append(links[sid], pid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assigned projects: %w", err)
	}
	return links, nil
}

// SaveSupervisor inserts or replaces a supervisor and its project assignments.
// An empty ID gets a new record identifier, written back into sup.
func (s *SupervisorStore) SaveSupervisor(ctx context.Context, sup *domain.Supervisor) error {
	if sup.ID == "" {
		sup.ID = newRecordID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO supervisors (id, name, active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active
	`, sup.ID, sup.Name, sup.Active); err != nil {
		return fmt.Errorf("failed to save supervisor: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM supervisor_projects WHERE supervisor_id = ?`, sup.ID); err != nil {
		return fmt.Errorf("failed to clear assigned projects: %w", err)
	}
	for i, pid := range sup.ProjectIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO supervisor_projects (supervisor_id, project_id, position) VALUES (?, ?, ?)
		`, sup.ID, pid, i); err != nil {
			return fmt.Errorf("failed to assign project %s: %w", pid, err)
		}
	}
	return tx.Commit()
}
