// Package reminder nudges on workflow runs whose current phase has sat
// in awaiting_approval too long.
package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/jonlwowski012/agentfactory/internal/config"
	"github.com/jonlwowski012/agentfactory/internal/natsbus"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

// Publisher is the subset of the bus client the reminder needs.
type Publisher interface {
	Publish(topic string, data []byte) error
}

type Reminder struct {
	store    *store.Store
	pub      Publisher
	cfg      config.ReminderConfig
	cron     *gronx.Gronx
	reloadCh chan struct{}

	now func() time.Time
}

func New(s *store.Store, pub Publisher, cfg config.ReminderConfig) *Reminder {
	return &Reminder{
		store:    s,
		pub:      pub,
		cfg:      cfg,
		cron:     gronx.New(),
		reloadCh: make(chan struct{}, 1),
		now:      time.Now,
	}
}

// UpdateConfig swaps the schedule and stall threshold, then signals the
// run loop to reset its ticker.
func (r *Reminder) UpdateConfig(cfg config.ReminderConfig) {
	r.cfg = cfg
	select {
	case r.reloadCh <- struct{}{}:
	default:
	}
}

func (r *Reminder) Start(ctx context.Context) {
	if !r.cfg.Enabled {
		slog.Info("reminder disabled")
		return
	}
	if !r.cron.IsValid(r.cfg.Schedule) {
		slog.Error("invalid reminder schedule, reminder disabled", "schedule", r.cfg.Schedule)
		return
	}

	// Cron granularity is one minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	slog.Info("reminder started", "schedule", r.cfg.Schedule, "after", r.cfg.After)

	for {
		select {
		case <-ctx.Done():
			slog.Info("reminder stopped")
			return
		case <-r.reloadCh:
			ticker.Reset(time.Minute)
			slog.Info("reminder config reloaded", "schedule", r.cfg.Schedule, "after", r.cfg.After)
		case <-ticker.C:
			due, err := r.cron.IsDue(r.cfg.Schedule, r.now())
			if err != nil {
				slog.Error("reminder schedule check failed", "error", err)
				continue
			}
			if due {
				r.Sweep()
			}
		}
	}
}

// Sweep publishes a reminder event for every run stalled past the
// configured threshold.
func (r *Reminder) Sweep() {
	cutoff := r.now().Add(-r.cfg.After)

	runs, err := r.store.ListStalledRuns(cutoff)
	if err != nil {
		slog.Error("list stalled runs failed", "error", err)
		return
	}

	for _, run := range runs {
		r.remind(run)
	}
}

func (r *Reminder) remind(run store.WorkflowRun) {
	slog.Info("workflow awaiting approval", "run", run.ID, "since", run.UpdatedAt)

	if r.pub == nil {
		return
	}

	event := map[string]any{
		"type":      "approval_reminder",
		"timestamp": r.now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"run_id":        run.ID,
			"current_index": run.CurrentIndex,
			"stalled_since": run.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := r.pub.Publish(natsbus.TopicWorkflowReminder(run.ID), data); err != nil {
		slog.Error("publish reminder failed", "run", run.ID, "error", err)
	}
}
