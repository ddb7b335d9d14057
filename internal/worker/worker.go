// Package worker runs the scheduled background work on Temporal: refreshing feeds and
// sweeping old items.
package worker

import (
	"context"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/jdholdren/newsroom/internal/news"
)

const TaskQueue = "newsroom"

type Config struct {
	SyncInterval       time.Duration
	RetentionInterval  time.Duration
	RetentionThreshold int
	// Must match the deadline the retention manager was built with.
	RetentionDeadline time.Duration
}

// NewWorker sets up the worker with registration of workflows, activities, and schedules.
func NewWorker(ctx context.Context, cfg Config, cli client.Client, feeds news.FeedRepo, syncer FeedSyncer, sweeper Sweeper) (worker.Worker, error) {
	if cfg.RetentionThreshold < 0 {
		return nil, fmt.Errorf("retention threshold must not be negative, got %d: %w", cfg.RetentionThreshold, news.ErrInvalidConfig)
	}
	if cfg.RetentionDeadline < 0 {
		return nil, fmt.Errorf("retention deadline must not be negative, got %s: %w", cfg.RetentionDeadline, news.ErrInvalidConfig)
	}

	a := activities{
		feeds:     feeds,
		syncer:    syncer,
		retention: sweeper,
	}

	w := worker.New(cli, TaskQueue, worker.Options{})
	register(w, a, workflows{sweepDeadline: cfg.RetentionDeadline})

	if err := ensureSchedules(ctx, cli, cfg); err != nil {
		return nil, fmt.Errorf("error registering schedules: %T, %v", err, err)
	}

	return w, nil
}

func register(w worker.Registry, a activities, wfs workflows) {
	// Workflows
	w.RegisterWorkflow(wfs.SyncAllFeeds)
	w.RegisterWorkflow(wfs.SyncFeed)
	w.RegisterWorkflow(wfs.SweepRetention)

	// Activities
	w.RegisterActivity(&a)
}

func ensureSchedules(ctx context.Context, cli client.Client, cfg Config) error {
	wfs := workflows{}

	// Sync RSS feeds
	if err := ensureSchedule(ctx, cli, client.ScheduleOptions{
		ID: "sync_all",
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.SyncInterval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "sync_all",
			Workflow:  wfs.SyncAllFeeds,
			TaskQueue: TaskQueue,
		},
		Overlap:            enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		TriggerImmediately: true,
	}); err != nil {
		return err
	}

	// Trim old items. Skipping overlaps keeps sweeps single-flight across workers, the
	// manager's own guard only covers one process.
	return ensureSchedule(ctx, cli, client.ScheduleOptions{
		ID: "retention_sweep",
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.RetentionInterval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "retention_sweep",
			Workflow:  wfs.SweepRetention,
			Args:      []any{cfg.RetentionThreshold},
			TaskQueue: TaskQueue,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
}

// Creates the schedule, or brings an existing one in line with opts.
func ensureSchedule(ctx context.Context, cli client.Client, opts client.ScheduleOptions) error {
	handle := cli.ScheduleClient().GetHandle(ctx, opts.ID)
	if _, err := handle.Describe(ctx); err != nil {
		if _, err := cli.ScheduleClient().Create(ctx, opts); err != nil {
			return fmt.Errorf("error creating schedule %s: %w", opts.ID, err)
		}
		return nil
	}

	return handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			schedule := input.Description.Schedule
			schedule.Spec = &opts.Spec
			schedule.Action = opts.Action
			if schedule.Policy != nil {
				schedule.Policy.Overlap = opts.Overlap
			}

			return &client.ScheduleUpdate{
				Schedule: &schedule,
			}, nil
		},
	})
}
