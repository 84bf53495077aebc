package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskboard/internal/service"
	"taskboard/internal/storage"

	_ "taskboard/internal/importer/sources"
)

func newImportFixture(t *testing.T) (*service.ImportService, *service.TaskService, string, *service.MockEmitter) {
	t.Helper()
	db := newTestDB(t)
	projects := storage.NewProjectStore(db)
	tasks := storage.NewTaskStore(db)
	imports := storage.NewImportStore(db)
	emitter := &service.MockEmitter{}

	projSvc := service.NewProjectService(projects, tasks, emitter)
	taskSvc := service.NewTaskService(tasks, projects, emitter)
	impSvc := service.NewImportService(context.Background(), imports, tasks, projects, emitter, 0)
	t.Cleanup(impSvc.Stop)

	p, err := projSvc.CreateProject(context.Background(), service.CreateProjectInput{Name: "Import Target"})
	if err != nil {
		t.Fatal(err)
	}
	return impSvc, taskSvc, p.ID, emitter
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportService_CreateJobValidatesSourceAndProject(t *testing.T) {
	svc, _, projectID, _ := newImportFixture(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, service.CreateImportJobInput{
		Name:            "bad source",
		SourceType:      "carrier_pigeon",
		TargetProjectID: projectID,
	})
	if err == nil {
		t.Fatal("expected error for unknown source type")
	}

	_, err = svc.CreateJob(ctx, service.CreateImportJobInput{
		Name:            "bad project",
		SourceType:      "csv_file",
		TargetProjectID: "missing",
	})
	if err == nil {
		t.Fatal("expected error for unknown target project")
	}
}

func TestImportService_RunJobFromCSV(t *testing.T) {
	svc, taskSvc, projectID, emitter := newImportFixture(t)
	ctx := context.Background()

	csvPath := writeCSV(t, "title,priority,status\nFix login,high,todo\nUpdate docs,low,done\n")

	job, err := svc.CreateJob(ctx, service.CreateImportJobInput{
		Name:            "csv import",
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": csvPath},
		TargetProjectID: projectID,
	})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	result, err := svc.RunJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("expected success, got %q (%s)", result.Status, result.Error)
	}
	if result.RowsWritten != 2 {
		t.Errorf("expected 2 rows written, got %d", result.RowsWritten)
	}

	tasks, err := taskSvc.ListTasks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 imported tasks, got %d", len(tasks))
	}
	byTitle := map[string]bool{}
	for _, task := range tasks {
		byTitle[task.Title] = true
		if !task.Imported {
			t.Errorf("expected task %q flagged as imported", task.Title)
		}
	}
	if !byTitle["Fix login"] || !byTitle["Update docs"] {
		t.Errorf("unexpected titles: %v", byTitle)
	}

	last := emitter.Events[len(emitter.Events)-1]
	if last.Event != "import:completed" {
		t.Errorf("expected import:completed event, got %q", last.Event)
	}

	logs, err := svc.ListRunLogs(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != "success" {
		t.Errorf("expected one successful run log, got %+v", logs)
	}
}

func TestImportService_ReplaceModeKeepsManualTasks(t *testing.T) {
	svc, taskSvc, projectID, _ := newImportFixture(t)
	ctx := context.Background()

	manual, err := taskSvc.CreateTask(ctx, projectID, service.CreateTaskInput{Title: "Hand made"})
	if err != nil {
		t.Fatal(err)
	}

	csvPath := writeCSV(t, "title\nImported one\nImported two\n")
	job, err := svc.CreateJob(ctx, service.CreateImportJobInput{
		Name:            "replace import",
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": csvPath},
		TargetProjectID: projectID,
		SyncMode:        "replace",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Run twice: replace mode must not duplicate imported rows,
	// and the hand-created task must survive both runs.
	for i := 0; i < 2; i++ {
		if _, err := svc.RunJob(ctx, job.ID); err != nil {
			t.Fatalf("RunJob #%d failed: %v", i+1, err)
		}
	}

	tasks, err := taskSvc.ListTasks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks (1 manual + 2 imported), got %d", len(tasks))
	}
	found := false
	for _, task := range tasks {
		if task.ID == manual.ID {
			found = true
		}
	}
	if !found {
		t.Error("manual task was deleted by replace import")
	}
}

func TestImportService_RunJobFailureRecordsError(t *testing.T) {
	svc, taskSvc, projectID, _ := newImportFixture(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, service.CreateImportJobInput{
		Name:            "broken import",
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": filepath.Join(t.TempDir(), "missing.csv")},
		TargetProjectID: projectID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RunJob(ctx, job.ID); err == nil {
		t.Fatal("expected RunJob to fail for missing file")
	}

	reloaded, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.LastStatus != "error" {
		t.Errorf("expected job status error, got %q", reloaded.LastStatus)
	}
	if reloaded.LastError == "" {
		t.Error("expected job error message recorded")
	}

	tasks, err := taskSvc.ListTasks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks written on failure, got %d", len(tasks))
	}
}

func TestImportService_PreviewSource(t *testing.T) {
	svc, _, _, _ := newImportFixture(t)
	csvPath := writeCSV(t, "title,assignee\nReview PR,dana\nDeploy,sam\n")

	preview, err := svc.PreviewSource(context.Background(), "csv_file",
		`{"filePath": "`+csvPath+`"}`)
	if err != nil {
		t.Fatalf("PreviewSource failed: %v", err)
	}
	if len(preview.Records) != 2 {
		t.Errorf("expected 2 preview records, got %d", len(preview.Records))
	}
	if preview.Records[0].Data["title"] != "Review PR" {
		t.Errorf("unexpected first record: %+v", preview.Records[0].Data)
	}
}

func TestImportService_WaitRunning_Immediate(t *testing.T) {
	svc, _, _, _ := newImportFixture(t)

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		svc.WaitRunning(ctx)
		close(done)
	}()

	select {
	case <-done:
		// expected — no jobs running
	case <-time.After(500 * time.Millisecond):
		t.Fatal("WaitRunning hung with no running jobs")
	}
}

func TestImportService_StopIdempotent(t *testing.T) {
	svc, _, _, _ := newImportFixture(t)
	svc.Stop()
	svc.Stop()
}

func TestImportService_WatchedRunOutlivesRequestContext(t *testing.T) {
	svc, taskSvc, projectID, _ := newImportFixture(t)

	csvPath := writeCSV(t, "title\nFirst pass\n")

	// Like the HTTP handler: the request context dies as soon as the
	// create response is written. Triggered runs must not inherit it.
	reqCtx, cancel := context.WithCancel(context.Background())
	job, err := svc.CreateJob(reqCtx, service.CreateImportJobInput{
		Name:            "watched import",
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": csvPath},
		TargetProjectID: projectID,
		TriggerType:     "file_watch",
		TriggerConfig:   csvPath,
		Enabled:         true,
	})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	cancel()

	if err := os.WriteFile(csvPath, []byte("title\nFirst pass\nSecond pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		logs, err := svc.ListRunLogs(job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(logs) > 0 {
			if logs[0].Status != "success" {
				t.Fatalf("watched run failed: %+v", logs[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watched run never executed")
		}
		time.Sleep(50 * time.Millisecond)
	}

	tasks, err := taskSvc.ListTasks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks from the watched run, got %d", len(tasks))
	}
}

func TestImportService_CancelledRunDoesNotWipeTasks(t *testing.T) {
	svc, taskSvc, projectID, _ := newImportFixture(t)

	csvPath := writeCSV(t, "title\nKeep one\nKeep two\n")
	job, err := svc.CreateJob(context.Background(), service.CreateImportJobInput{
		Name:            "replace sync",
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": csvPath},
		TargetProjectID: projectID,
		SyncMode:        "replace",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RunJob(context.Background(), job.ID); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}

	dead, cancel := context.WithCancel(context.Background())
	cancel()
	result, runErr := svc.RunJob(dead, job.ID)
	if runErr == nil {
		t.Fatal("expected the cancelled run to fail")
	}
	if result == nil || result.Status != "error" {
		t.Fatalf("expected error status, got %+v", result)
	}

	tasks, err := taskSvc.ListTasks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("cancelled replace run must keep previously imported tasks, got %d", len(tasks))
	}

	reloaded, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.LastStatus != "error" {
		t.Errorf("expected job status error, got %q", reloaded.LastStatus)
	}
}

func TestImportService_RunTimeoutEnforced(t *testing.T) {
	db := newTestDB(t)
	projects := storage.NewProjectStore(db)
	tasks := storage.NewTaskStore(db)
	imports := storage.NewImportStore(db)
	emitter := &service.MockEmitter{}

	projSvc := service.NewProjectService(projects, tasks, emitter)
	svc := service.NewImportService(context.Background(), imports, tasks, projects, emitter,
		100*time.Millisecond)
	t.Cleanup(svc.Stop)

	p, err := projSvc.CreateProject(context.Background(), service.CreateProjectInput{Name: "Slow Source"})
	if err != nil {
		t.Fatal(err)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			w.Write([]byte(`[]`))
		}
	}))
	defer slow.Close()

	job, err := svc.CreateJob(context.Background(), service.CreateImportJobInput{
		Name:            "slow import",
		SourceType:      "http",
		SourceConfig:    map[string]any{"url": slow.URL},
		TargetProjectID: p.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, runErr := svc.RunJob(context.Background(), job.ID)
	if runErr == nil {
		t.Fatal("expected the run to fail once the timeout elapsed")
	}
	if result.Status != "error" {
		t.Fatalf("expected error status, got %q", result.Status)
	}
}
