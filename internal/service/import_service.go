package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"taskboard/internal/importer"
	"taskboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Import Service — business logic for task import jobs
// ─────────────────────────────────────────────────────────────

// ImportService manages import jobs, scheduling, and file watching.
// It is decoupled from the HTTP layer via the EventEmitter interface.
type ImportService struct {
	store       *storage.ImportStore
	tasks       *storage.TaskStore
	projects    *storage.ProjectStore
	emitter     EventEmitter
	runningJobs runningJobsGuard

	// lifeCtx is the service lifetime context. Cron and file-watch
	// triggered runs execute under it, never under the request context
	// of whichever API call last rebuilt the watchers.
	lifeCtx    context.Context
	runTimeout time.Duration

	// watcher / cron lifecycle
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewImportService creates an ImportService ready for use. ctx bounds the
// service lifetime; runTimeout caps a single run (<= 0 means the default
// of five minutes).
func NewImportService(
	ctx context.Context,
	store *storage.ImportStore,
	tasks *storage.TaskStore,
	projects *storage.ProjectStore,
	emitter EventEmitter,
	runTimeout time.Duration,
) *ImportService {
	if ctx == nil {
		ctx = context.Background()
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &ImportService{
		store:      store,
		tasks:      tasks,
		projects:   projects,
		emitter:    emitter,
		lifeCtx:    ctx,
		runTimeout: runTimeout,
	}
}

// ── Job CRUD ───────────────────────────────────────────────

type CreateImportJobInput struct {
	Name            string                     `json:"name"`
	SourceType      string                     `json:"sourceType"`
	SourceConfig    map[string]any             `json:"sourceConfig"`
	Transforms      []importer.TransformConfig `json:"transforms"`
	TargetProjectID string                     `json:"targetProjectId"`
	FieldMapping    map[string]string          `json:"fieldMapping"`
	SyncMode        string                     `json:"syncMode"`
	DedupeKey       string                     `json:"dedupeKey"`
	TriggerType     string                     `json:"triggerType"`
	TriggerConfig   string                     `json:"triggerConfig"`
	Enabled         bool                       `json:"enabled"`
}

func (s *ImportService) CreateJob(ctx context.Context, input CreateImportJobInput) (*importer.ImportJob, error) {
	if _, err := importer.GetSource(input.SourceType); err != nil {
		return nil, err
	}
	if _, err := s.projects.GetProject(input.TargetProjectID); err != nil {
		return nil, fmt.Errorf("target project: %w", err)
	}

	job := &importer.ImportJob{
		Name:            input.Name,
		SourceType:      input.SourceType,
		SourceCfg:       input.SourceConfig,
		Transforms:      input.Transforms,
		TargetProjectID: input.TargetProjectID,
		FieldMapping:    input.FieldMapping,
		SyncMode:        importer.SyncMode(input.SyncMode),
		DedupeKey:       input.DedupeKey,
		TriggerType:     input.TriggerType,
		TriggerConfig:   input.TriggerConfig,
		Enabled:         input.Enabled,
	}
	if job.SyncMode == "" {
		job.SyncMode = importer.SyncAppend
	}
	if job.TriggerType == "" {
		job.TriggerType = "manual"
	}

	if err := s.store.CreateJob(job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	s.RestartWatchers()
	return job, nil
}

func (s *ImportService) GetJob(id string) (*importer.ImportJob, error) {
	return s.store.GetJob(id)
}

func (s *ImportService) ListJobs() ([]importer.ImportJob, error) {
	return s.store.ListJobs()
}

func (s *ImportService) UpdateJob(ctx context.Context, id string, input CreateImportJobInput) error {
	job, err := s.store.GetJob(id)
	if err != nil {
		return err
	}
	job.Name = input.Name
	job.SourceType = input.SourceType
	job.SourceCfg = input.SourceConfig
	job.Transforms = input.Transforms
	job.TargetProjectID = input.TargetProjectID
	job.FieldMapping = input.FieldMapping
	job.SyncMode = importer.SyncMode(input.SyncMode)
	job.DedupeKey = input.DedupeKey
	job.TriggerType = input.TriggerType
	job.TriggerConfig = input.TriggerConfig
	job.Enabled = input.Enabled

	if err := s.store.UpdateJob(job); err != nil {
		return err
	}
	s.RestartWatchers()
	return nil
}

func (s *ImportService) DeleteJob(ctx context.Context, id string) error {
	err := s.store.DeleteJob(id)
	if err == nil {
		s.RestartWatchers()
	}
	return err
}

// ── Run ────────────────────────────────────────────────────

// RunJob executes a single import job synchronously and emits events on success.
func (s *ImportService) RunJob(ctx context.Context, id string) (*importer.RunResult, error) {
	// Prevent concurrent execution of the same job.
	if !s.runningJobs.TryLock(id) {
		return nil, fmt.Errorf("job %s is already running", id)
	}
	defer s.runningJobs.Unlock(id)

	job, err := s.store.GetJob(id)
	if err != nil {
		return nil, err
	}

	s.store.UpdateJobStatus(id, "running", "")

	engine := &importer.Engine{
		Dest: &importer.TaskWriter{Tasks: s.tasks, Projects: s.projects},
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	result, runErr := engine.RunSync(runCtx, job)

	runLog := &importer.RunLog{
		JobID:       id,
		StartedAt:   start,
		FinishedAt:  time.Now(),
		Status:      result.Status,
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
	}
	if runErr != nil {
		runLog.Error = runErr.Error()
	}
	s.store.CreateRunLog(runLog)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	s.store.UpdateJobStatus(id, result.Status, errMsg)

	// Notify clients so open task lists refresh.
	if result.Status == "success" {
		s.emitter.Emit(ctx, "import:completed", map[string]string{
			"projectId": job.TargetProjectID,
			"jobId":     id,
		})
	}

	return result, runErr
}

// ListSources returns the available import source descriptors.
func (s *ImportService) ListSources() []importer.SourceSpec {
	return importer.ListSources()
}

// ListRunLogs returns the last 50 run logs for a job.
func (s *ImportService) ListRunLogs(jobID string) ([]importer.RunLog, error) {
	return s.store.ListRunLogs(jobID, 50)
}

// ── Preview / Schema Discovery ─────────────────────────────

// PreviewResult is the response from PreviewSource.
type PreviewResult struct {
	Schema  *importer.Schema  `json:"schema"`
	Records []importer.Record `json:"records"`
}

func (s *ImportService) PreviewSource(ctx context.Context, sourceType string, cfgJSON string) (*PreviewResult, error) {
	var cfg importer.SourceConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, fmt.Errorf("parse source config: %w", err)
	}

	engine := &importer.Engine{
		Dest: &importer.TaskWriter{Tasks: s.tasks, Projects: s.projects},
	}

	previewCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	records, schema, err := engine.Preview(previewCtx, sourceType, cfg, 10)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{Schema: schema, Records: records}, nil
}

func (s *ImportService) DiscoverSchema(ctx context.Context, sourceType string, cfgJSON string) (*importer.Schema, error) {
	var cfg importer.SourceConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, fmt.Errorf("parse source config: %w", err)
	}

	source, err := importer.GetSource(sourceType)
	if err != nil {
		return nil, err
	}

	discCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	return source.Discover(discCtx, cfg)
}

// ── Watchers (cron + file_watch) ──────────────────────────

// RestartWatchers tears down the current watcher/cron and rebuilds them from scratch.
func (s *ImportService) RestartWatchers() {
	s.stopWatchers()

	jobs, err := s.store.ListEnabledTriggeredJobs()
	if err != nil {
		log.Printf("import watcher: failed to list jobs: %v", err)
		return
	}

	// ── Cron jobs ──
	var cronJobs []struct {
		jobID string
		expr  string
	}
	for _, j := range jobs {
		if j.TriggerType == "schedule" && j.TriggerConfig != "" {
			cronJobs = append(cronJobs, struct {
				jobID string
				expr  string
			}{jobID: j.ID, expr: j.TriggerConfig})
		}
	}

	if len(cronJobs) > 0 {
		c := cron.New()
		for _, cj := range cronJobs {
			jid := cj.jobID
			_, err := c.AddFunc(cj.expr, func() {
				log.Printf("import cron: running job %s", jid)
				if _, err := s.RunJob(s.lifeCtx, jid); err != nil {
					log.Printf("import cron: job %s failed: %v", jid, err)
				}
			})
			if err != nil {
				log.Printf("import cron: invalid expression %q for job %s: %v", cj.expr, cj.jobID, err)
			}
		}
		c.Start()
		s.cronSched = c
		log.Printf("import cron: scheduled %d job(s)", len(cronJobs))
	}

	// ── File watchers ──
	type watchEntry struct {
		jobID string
		path  string
	}
	var entries []watchEntry
	for _, j := range jobs {
		if j.TriggerType == "file_watch" && j.TriggerConfig != "" {
			entries = append(entries, watchEntry{jobID: j.ID, path: j.TriggerConfig})
		}
	}

	if len(entries) == 0 {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("import watcher: failed to create watcher: %v", err)
		return
	}
	s.watcher = watcher

	pathToJob := make(map[string]string)
	watchedDirs := make(map[string]bool)
	for _, e := range entries {
		absPath, err := filepath.Abs(e.path)
		if err != nil {
			log.Printf("import watcher: bad path %q: %v", e.path, err)
			continue
		}
		pathToJob[absPath] = e.jobID

		dir := filepath.Dir(absPath)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				log.Printf("import watcher: failed to watch dir %q: %v", dir, err)
			} else {
				watchedDirs[dir] = true
			}
		}
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		// Editors fire several write events per save; debounce per job.
		timers := make(map[string]*time.Timer)
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				absPath, _ := filepath.Abs(event.Name)
				jobID, ok := pathToJob[absPath]
				if !ok {
					continue
				}
				if t, exists := timers[jobID]; exists {
					t.Stop()
				}
				jid := jobID
				timers[jobID] = time.AfterFunc(500*time.Millisecond, func() {
					log.Printf("import watcher: file changed %q, running job %s", absPath, jid)
					if _, err := s.RunJob(s.lifeCtx, jid); err != nil {
						log.Printf("import watcher: run failed for job %s: %v", jid, err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("import watcher: error: %v", err)
			}
		}
	}()

	log.Printf("import watcher: watching %d file(s)", len(pathToJob))
}

// WaitRunning blocks until all running jobs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *ImportService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}

// Stop tears down all watchers and schedulers.
func (s *ImportService) Stop() {
	s.stopWatchers()
}

func (s *ImportService) stopWatchers() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
