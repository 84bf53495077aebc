package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"taskboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Overdue sweep — periodic scan for tasks past their due date
// ─────────────────────────────────────────────────────────────

// OverdueSweeper periodically flags unfinished tasks whose due date has
// passed and notifies clients. The flag is persisted on the task, so a
// client that missed the event still sees the overdue state; each task is
// announced once. The schedule comes from config (cron expression, e.g.
// "*/15 * * * *").
type OverdueSweeper struct {
	tasks   *storage.TaskStore
	emitter EventEmitter
	sched   *cron.Cron
}

// NewOverdueSweeper creates an OverdueSweeper.
func NewOverdueSweeper(tasks *storage.TaskStore, emitter EventEmitter) *OverdueSweeper {
	return &OverdueSweeper{tasks: tasks, emitter: emitter}
}

// Start arms the sweep on the given cron schedule. An empty schedule
// disables it.
func (s *OverdueSweeper) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.sched = c
	log.Printf("overdue sweep: scheduled %q", schedule)
	return nil
}

// Sweep marks newly overdue tasks and emits a task:overdue event for each.
func (s *OverdueSweeper) Sweep(ctx context.Context) {
	marked, err := s.tasks.MarkOverdueTasks(time.Now())
	if err != nil {
		log.Printf("overdue sweep: mark failed: %v", err)
		return
	}
	for _, t := range marked {
		s.emitter.Emit(ctx, "task:overdue", map[string]string{
			"taskId":    t.ID,
			"projectId": t.ProjectID,
		})
	}
	if len(marked) > 0 {
		log.Printf("overdue sweep: %d task(s) newly overdue", len(marked))
	}
}

// Stop tears down the schedule.
func (s *OverdueSweeper) Stop() {
	if s.sched != nil {
		s.sched.Stop()
		s.sched = nil
	}
}
