package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/importer"
)

// ImportStore implements persistence for import jobs and run logs.
type ImportStore struct {
	db *DB
}

// NewImportStore creates a new ImportStore.
func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

// ── ImportJob CRUD ─────────────────────────────────────────

const importJobColumns = `id, name, source_type, source_config, transforms, target_project_id,
	 field_mapping, sync_mode, dedupe_key, trigger_type, trigger_config, enabled,
	 last_run_at, last_status, last_error, created_at, updated_at`

func (s *ImportStore) CreateJob(job *importer.ImportJob) error {
	now := time.Now()
	job.ID = uuid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now

	srcCfg, _ := json.Marshal(job.SourceCfg)
	transforms, _ := json.Marshal(job.Transforms)
	mapping, _ := json.Marshal(job.FieldMapping)

	_, err := s.db.conn.Exec(
		`INSERT INTO import_jobs (id, name, source_type, source_config, transforms, target_project_id,
		 field_mapping, sync_mode, dedupe_key, trigger_type, trigger_config, enabled, last_error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.SourceType, string(srcCfg), string(transforms),
		job.TargetProjectID, string(mapping), job.SyncMode, job.DedupeKey,
		job.TriggerType, job.TriggerConfig, job.Enabled, "",
		job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func scanJob(scan func(...any) error) (importer.ImportJob, error) {
	var job importer.ImportJob
	var srcCfg, transforms, mapping string
	var lastRun sql.NullTime

	err := scan(
		&job.ID, &job.Name, &job.SourceType, &srcCfg, &transforms,
		&job.TargetProjectID, &mapping, &job.SyncMode, &job.DedupeKey,
		&job.TriggerType, &job.TriggerConfig, &job.Enabled,
		&lastRun, &job.LastStatus, &job.LastError,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return job, err
	}
	if lastRun.Valid {
		job.LastRunAt = lastRun.Time
	}
	json.Unmarshal([]byte(srcCfg), &job.SourceCfg)
	json.Unmarshal([]byte(transforms), &job.Transforms)
	json.Unmarshal([]byte(mapping), &job.FieldMapping)
	return job, nil
}

func (s *ImportStore) GetJob(id string) (*importer.ImportJob, error) {
	row := s.db.conn.QueryRow(`SELECT `+importJobColumns+` FROM import_jobs WHERE id = ?`, id)
	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *ImportStore) UpdateJob(job *importer.ImportJob) error {
	job.UpdatedAt = time.Now()
	srcCfg, _ := json.Marshal(job.SourceCfg)
	transforms, _ := json.Marshal(job.Transforms)
	mapping, _ := json.Marshal(job.FieldMapping)

	_, err := s.db.conn.Exec(
		`UPDATE import_jobs SET name=?, source_type=?, source_config=?, transforms=?,
		 target_project_id=?, field_mapping=?, sync_mode=?, dedupe_key=?, trigger_type=?,
		 trigger_config=?, enabled=?, updated_at=? WHERE id=?`,
		job.Name, job.SourceType, string(srcCfg), string(transforms),
		job.TargetProjectID, string(mapping), job.SyncMode, job.DedupeKey,
		job.TriggerType, job.TriggerConfig, job.Enabled,
		job.UpdatedAt, job.ID,
	)
	return err
}

func (s *ImportStore) UpdateJobStatus(id, status, errMsg string) error {
	now := time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE import_jobs SET last_run_at=?, last_status=?, last_error=?, updated_at=? WHERE id=?`,
		now, status, errMsg, now, id,
	)
	return err
}

func (s *ImportStore) DeleteJob(id string) error {
	// Delete run logs first.
	if _, err := s.db.conn.Exec(`DELETE FROM import_runs WHERE job_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM import_jobs WHERE id = ?`, id)
	return err
}

func (s *ImportStore) ListJobs() ([]importer.ImportJob, error) {
	rows, err := s.db.conn.Query(`SELECT ` + importJobColumns + ` FROM import_jobs ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []importer.ImportJob
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ListEnabledTriggeredJobs returns enabled jobs with a schedule or
// file-watch trigger, for the trigger manager to arm at startup.
func (s *ImportStore) ListEnabledTriggeredJobs() ([]importer.ImportJob, error) {
	rows, err := s.db.conn.Query(
		`SELECT `+importJobColumns+` FROM import_jobs
		 WHERE enabled = ? AND trigger_type IN ('schedule', 'file_watch')
		 ORDER BY created_at ASC`, true,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []importer.ImportJob
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ── Run Logs ───────────────────────────────────────────────

func (s *ImportStore) CreateRunLog(log *importer.RunLog) error {
	log.ID = uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO import_runs (id, job_id, started_at, finished_at, status, rows_read, rows_written, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.JobID, log.StartedAt, log.FinishedAt, log.Status, log.RowsRead, log.RowsWritten, log.Error,
	)
	return err
}

func (s *ImportStore) ListRunLogs(jobID string, limit int) ([]importer.RunLog, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, job_id, started_at, finished_at, status, rows_read, rows_written, error
		 FROM import_runs WHERE job_id = ? ORDER BY started_at DESC LIMIT ?`,
		jobID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []importer.RunLog
	for rows.Next() {
		var l importer.RunLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.RowsRead, &l.RowsWritten, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
