package worker

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/retention"
)

type workflows struct {
	// How long the retention manager may run before it stops itself.
	sweepDeadline time.Duration
}

// SyncFeed refreshes a single feed.
func (workflows) SyncFeed(ctx workflow.Context, feedID int64) (int, error) {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3, // 0 is unlimited retries
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var inserted int
	err := workflow.ExecuteActivity(ctx, acts.SyncFeed, feedID).Get(ctx, &inserted)
	return inserted, err
}

// SyncAllFeeds refreshes every feed. One feed failing doesn't fail the rest.
//
// Returns how many feeds synced.
func (workflows) SyncAllFeeds(ctx workflow.Context) (int, error) {
	l := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var feedIDs []int64
	if err := workflow.ExecuteActivity(ctx, acts.AllFeeds).Get(ctx, &feedIDs); err != nil {
		l.Error("failed to list feeds", "error", err)
		return 0, err
	}

	var (
		wg     = workflow.NewWaitGroup(ctx)
		synced int
	)
	wg.Add(len(feedIDs))
	for _, feedID := range feedIDs {
		feedID := feedID
		workflow.Go(ctx, func(ctx workflow.Context) {
			defer wg.Done()

			if err := workflow.ExecuteActivity(ctx, acts.SyncFeed, feedID).Get(ctx, nil); err != nil {
				l.Error("failed to sync feed", "feed_id", feedID, "error", err)
				return
			}
			synced++ // Coroutines don't run in parallel
		})
	}

	wg.Wait(ctx)

	return synced, nil
}

// SweepRetention trims old read items from every feed.
//
// A sweep that finds another one already running is skipped rather than failed.
func (wfs workflows) SweepRetention(ctx workflow.Context, threshold int) (SweepResult, error) {
	l := workflow.GetLogger(ctx)
	deadline := wfs.sweepDeadline
	if deadline == 0 {
		deadline = retention.DefaultDeadline
	}
	options := workflow.ActivityOptions{
		// The manager stops itself at its deadline, this just leaves room to report back.
		StartToCloseTimeout: deadline + time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var res SweepResult
	err := workflow.ExecuteActivity(ctx, acts.SweepRetention, threshold).Get(ctx, &res)
	if isErrType(err, errTypeSweepInProgress) {
		l.Info("retention sweep already running, skipping")
		return SweepResult{}, nil
	}
	if err != nil {
		return SweepResult{}, err
	}

	return res, nil
}

// TriggerRetentionSweep runs a sweep on a worker and waits for it to finish.
func TriggerRetentionSweep(ctx context.Context, c client.Client, threshold int) (SweepResult, error) {
	options := client.StartWorkflowOptions{
		TaskQueue: TaskQueue,
	}
	we, err := c.ExecuteWorkflow(ctx, options, workflows{}.SweepRetention, threshold)
	if err != nil {
		return SweepResult{}, fmt.Errorf("unable to execute workflow: %s", err)
	}

	var res SweepResult
	err = we.Get(ctx, &res)
	newsErr := &newserrs.Error{}
	if asNewsErr(err, &newsErr) {
		return SweepResult{}, newsErr
	}
	if err != nil {
		return SweepResult{}, fmt.Errorf("error executing workflow: %s", err)
	}

	return res, nil
}
