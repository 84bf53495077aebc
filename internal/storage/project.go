package storage

import (
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/domain"
)

// ProjectStore implements domain.ProjectStore.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) CreateProject(p *domain.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO projects (id, name, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *ProjectStore) GetProject(id string) (*domain.Project, error) {
	p := &domain.Project{}
	err := s.db.conn.QueryRow(
		`SELECT id, name, description, status, created_at, updated_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) ListProjects() ([]domain.Project, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, description, status, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *ProjectStore) UpdateProject(p *domain.Project) error {
	p.UpdatedAt = time.Now()
	res, err := s.db.conn.Exec(
		`UPDATE projects SET name = ?, description = ?, status = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.Status, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *ProjectStore) DeleteProject(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM projects WHERE id = ?`, id)
	return err
}
