package importer

import (
	"context"
	"fmt"
	"time"
)

// ── ImportJob ──────────────────────────────────────────────
// Orchestrates: source.Read → transform chain → TaskWriter.

// ImportJob holds the configuration for a single task import.
type ImportJob struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	SourceType      string            `json:"sourceType"`
	SourceCfg       SourceConfig      `json:"sourceConfig"`
	Transforms      []TransformConfig `json:"transforms,omitempty"`
	TargetProjectID string            `json:"targetProjectId"`
	FieldMapping    map[string]string `json:"fieldMapping,omitempty"` // task field → source field
	SyncMode        SyncMode          `json:"syncMode"`
	DedupeKey       string            `json:"dedupeKey,omitempty"`
	TriggerType     string            `json:"triggerType"`   // "manual" | "schedule" | "file_watch"
	TriggerConfig   string            `json:"triggerConfig"` // cron expression or watch path
	Enabled         bool              `json:"enabled"`
	LastRunAt       time.Time         `json:"lastRunAt"`
	LastStatus      string            `json:"lastStatus"` // "success" | "error" | "running" | ""
	LastError       string            `json:"lastError"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TransformConfig is a declarative transform definition (stored as JSON).
type TransformConfig struct {
	Type   string         `json:"type"` // "filter" | "rename" | "select" | "sort" | "limit"
	Config map[string]any `json:"config"`
}

// RunResult is the outcome of running an import job.
type RunResult struct {
	JobID       string        `json:"jobId"`
	Status      string        `json:"status"` // "success" | "error"
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunLog is a historical record of an import run.
type RunLog struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rowsRead"`
	RowsWritten int       `json:"rowsWritten"`
	Error       string    `json:"error,omitempty"`
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs import jobs using the registered sources and a destination.
type Engine struct {
	Dest Destination
}

// RunSync executes an import job end-to-end.
func (e *Engine) RunSync(ctx context.Context, job *ImportJob) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{JobID: job.ID}

	fail := func(err error) (*RunResult, error) {
		result.Status = "error"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result, err
	}

	// 1. Resolve source from registry.
	source, err := GetSource(job.SourceType)
	if err != nil {
		return fail(err)
	}

	// 2. Read records from source.
	recCh, errCh := source.Read(ctx, job.SourceCfg)

	// 3. Build transformer chain from config.
	transformers := buildTransformers(job.Transforms, job.DedupeKey)

	// 4. Collect + transform records.
	var records []Record
	for rec := range recCh {
		result.RowsRead++
		transformed, keep := ApplyTransformers(rec, transformers)
		if keep {
			records = append(records, transformed)
		}
	}

	// 4b. Apply batch transforms (sort).
	records = ApplyBatchSort(records, transformers)

	// Check for source errors.
	if err := <-errCh; err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}

	// A cancelled or timed-out read must fail here, not masquerade as an
	// empty source — in replace mode the write below would clear the
	// project's imported tasks first.
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}

	// 5. Write tasks to the target project.
	written, err := e.Dest.Write(ctx, job, records)
	if err != nil {
		return fail(fmt.Errorf("write: %w", err))
	}

	result.Status = "success"
	result.RowsWritten = written
	result.Duration = time.Since(start)
	return result, nil
}

// Preview executes only the source read phase and returns up to maxRows records.
func (e *Engine) Preview(ctx context.Context, sourceType string, cfg SourceConfig, maxRows int) ([]Record, *Schema, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, nil, err
	}

	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}

	recCh, errCh := source.Read(ctx, cfg)

	var records []Record
	for rec := range recCh {
		records = append(records, rec)
		if len(records) >= maxRows {
			break
		}
	}

	// Drain remaining and check for errors.
	go func() {
		for range recCh {
		}
	}()
	if err := <-errCh; err != nil {
		return records, schema, err
	}

	return records, schema, nil
}

// buildTransformers converts declarative TransformConfig into Transformer instances.
func buildTransformers(configs []TransformConfig, dedupeKey string) []Transformer {
	var ts []Transformer

	for _, tc := range configs {
		switch tc.Type {
		case "filter":
			field, _ := tc.Config["field"].(string)
			op, _ := tc.Config["op"].(string)
			value := tc.Config["value"]
			if field != "" && op != "" {
				ts = append(ts, &FilterTransform{Field: field, Op: op, Value: value})
			}

		case "rename":
			if mapping, ok := tc.Config["mapping"].(map[string]any); ok {
				m := make(map[string]string)
				for k, v := range mapping {
					m[k] = fmt.Sprint(v)
				}
				ts = append(ts, &RenameTransform{Mapping: m})
			}

		case "select":
			if fields, ok := tc.Config["fields"].([]any); ok {
				var ff []string
				for _, f := range fields {
					ff = append(ff, fmt.Sprint(f))
				}
				ts = append(ts, &SelectTransform{Fields: ff})
			}

		case "sort":
			field, _ := tc.Config["field"].(string)
			direction, _ := tc.Config["direction"].(string)
			if direction == "" {
				direction = "asc"
			}
			if field != "" {
				ts = append(ts, &SortTransform{Field: field, Direction: direction})
			}

		case "limit":
			if count, ok := tc.Config["count"].(float64); ok && count > 0 {
				ts = append(ts, NewLimitTransform(int(count)))
			}
		}
	}

	// Dedupe is always applied last if a key is specified.
	if dedupeKey != "" {
		ts = append(ts, NewDedupeTransform(dedupeKey))
	}

	return ts
}
