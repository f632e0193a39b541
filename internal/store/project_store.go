package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vbonduro/bitacora/internal/domain"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// ListProjectsByIDs fetches the given projects in one query.
func (s *ProjectStore) ListProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(ctx, `SELECT id, name FROM projects WHERE id IN (`+placeholders+`) ORDER BY name ASC`, args...)
}

func (s *ProjectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.query(ctx, `SELECT id, name FROM projects ORDER BY name ASC`)
}

func (s *ProjectStore) query(ctx context.Context, q string, args ...any) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// SaveProject inserts or renames a project. An empty ID gets a new record
// identifier, which is returned.
func (s *ProjectStore) SaveProject(ctx context.Context, p domain.Project) (string, error) {
	if p.ID == "" {
		p.ID = newRecordID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name)
	if err != nil {
		return "", fmt.Errorf("failed to save project: %w", err)
	}
	return p.ID, nil
}
