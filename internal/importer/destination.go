package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/domain"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes transformed records into a target project.

// SyncMode determines how records are written to the destination.
type SyncMode string

const (
	SyncReplace SyncMode = "replace" // delete previously imported tasks, insert fresh
	SyncAppend  SyncMode = "append"  // add tasks without deleting existing
)

// Destination writes records to a target system.
type Destination interface {
	Write(ctx context.Context, job *ImportJob, records []Record) (int, error)
}

// ── Task Destination ───────────────────────────────────────

// TaskWriter implements Destination by mapping record fields onto Task
// fields through the job's field mapping and inserting them into the
// target project.
type TaskWriter struct {
	Tasks    domain.TaskStore
	Projects domain.ProjectStore
}

// defaultMapping is used when a job carries no explicit field mapping:
// source fields are matched to task fields by name.
var defaultMapping = map[string]string{
	"title":       "title",
	"description": "description",
	"status":      "status",
	"priority":    "priority",
	"dueDate":     "due_date",
	"assignee":    "assignee",
}

func (w *TaskWriter) Write(ctx context.Context, job *ImportJob, records []Record) (int, error) {
	if _, err := w.Projects.GetProject(job.TargetProjectID); err != nil {
		return 0, fmt.Errorf("target project: %w", err)
	}

	// Replace mode clears only tasks created by earlier imports; tasks
	// the user created by hand survive.
	if job.SyncMode == SyncReplace {
		if err := w.Tasks.DeleteImportedTasks(job.TargetProjectID); err != nil {
			return 0, fmt.Errorf("clear imported tasks: %w", err)
		}
	}

	mapping := job.FieldMapping
	if len(mapping) == 0 {
		mapping = defaultMapping
	}

	written := 0
	for i, rec := range records {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		task, err := recordToTask(rec, mapping, job.TargetProjectID)
		if err != nil {
			return written, fmt.Errorf("record %d: %w", i, err)
		}
		if err := w.Tasks.CreateTask(task); err != nil {
			return written, fmt.Errorf("create task %d: %w", i, err)
		}
		written++
	}
	return written, nil
}

// recordToTask maps one record onto a Task. The title is required;
// unknown status/priority values fall back to the defaults.
func recordToTask(rec Record, mapping map[string]string, projectID string) (*domain.Task, error) {
	get := func(taskField string) any {
		src, ok := mapping[taskField]
		if !ok {
			return nil
		}
		return rec.Data[src]
	}
	str := func(taskField string) string {
		v := get(taskField)
		if v == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}

	title := str("title")
	if title == "" {
		return nil, fmt.Errorf("missing title")
	}

	task := &domain.Task{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       title,
		Description: str("description"),
		Status:      domain.TaskStatus(strings.ToLower(str("status"))),
		Priority:    domain.TaskPriority(strings.ToLower(str("priority"))),
		Assignee:    str("assignee"),
		Imported:    true,
	}
	if !task.Status.Valid() {
		task.Status = domain.TaskTodo
	}
	if !task.Priority.Valid() {
		task.Priority = domain.PriorityMedium
	}
	if due := str("dueDate"); due != "" {
		if ts, err := parseDueDate(due); err == nil {
			task.DueDate = &ts
		}
	}
	return task, nil
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
