package storage

import (
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/domain"
)

// TaskStore implements domain.TaskStore.
type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, project_id, title, description, status, priority, due_date, assignee, imported, overdue, created_at, updated_at`

func scanTask(scan func(...any) error) (domain.Task, error) {
	var t domain.Task
	var due sql.NullTime
	err := scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&due, &t.Assignee, &t.Imported, &t.Overdue, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	return t, nil
}

func (s *TaskStore) CreateTask(t *domain.Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.Assignee, t.Imported, t.Overdue, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *TaskStore) GetTask(id string) (*domain.Task, error) {
	row := s.db.conn.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

func (s *TaskStore) ListTasks(projectID string) ([]domain.Task, error) {
	rows, err := s.db.conn.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at ASC`, projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkOverdueTasks flags unfinished tasks whose due date has passed and
// returns the newly flagged ones. Tasks already flagged are skipped, so a
// periodic sweep announces each task once.
func (s *TaskStore) MarkOverdueTasks(now time.Time) ([]domain.Task, error) {
	rows, err := s.db.conn.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE overdue = ? AND due_date IS NOT NULL AND due_date < ? AND status != ? ORDER BY due_date ASC`,
		false, now, domain.TaskDone,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		tasks[i].Overdue = true
		tasks[i].UpdatedAt = now
		if _, err := s.db.conn.Exec(
			`UPDATE tasks SET overdue = ?, updated_at = ? WHERE id = ?`,
			true, now, tasks[i].ID,
		); err != nil {
			return nil, fmt.Errorf("mark task %s overdue: %w", tasks[i].ID, err)
		}
	}
	return tasks, nil
}

func (s *TaskStore) UpdateTask(t *domain.Task) error {
	t.UpdatedAt = time.Now()
	res, err := s.db.conn.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, assignee = ?, overdue = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Assignee, t.Overdue, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (s *TaskStore) DeleteTask(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

func (s *TaskStore) DeleteTasksByProject(projectID string) error {
	_, err := s.db.conn.Exec(`DELETE FROM tasks WHERE project_id = ?`, projectID)
	return err
}

// DeleteImportedTasks removes only import-created tasks, used by replace-mode syncs.
func (s *TaskStore) DeleteImportedTasks(projectID string) error {
	_, err := s.db.conn.Exec(`DELETE FROM tasks WHERE project_id = ? AND imported = ?`, projectID, true)
	return err
}
