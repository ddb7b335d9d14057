// Package retention trims old read items from feeds.
//
// For every feed, items that are neither starred nor unread are eligible. Once a feed holds
// more than articles_per_update + threshold eligible items, the oldest of them (by id) are
// deleted until it doesn't.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/news"
)

const DefaultDeadline = 5 * time.Minute

type (
	// Manager runs retention sweeps against a store. Only one sweep runs at a time per Manager.
	Manager struct {
		repo     news.RetentionRepo
		deadline time.Duration
		running  *semaphore.Weighted
		log      *slog.Logger
	}

	Option func(*Manager)

	// Report describes a finished, or partially finished, sweep.
	Report struct {
		RunID    string
		Deleted  int
		Feeds    int // Feeds that had items deleted
		Duration time.Duration
	}
)

// CheckDeadline rejects a deadline no sweep could finish within.
func CheckDeadline(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("retention deadline must be positive, got %s: %w", d, news.ErrInvalidConfig)
	}

	return nil
}

// WithDeadline bounds how long a single sweep may run.
func WithDeadline(d time.Duration) Option {
	return func(m *Manager) {
		m.deadline = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

func NewManager(repo news.RetentionRepo, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		deadline: DefaultDeadline,
		running:  semaphore.NewWeighted(1),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RunRetentionSweep deletes surplus eligible items from every feed and returns how many were
// removed.
func (m *Manager) RunRetentionSweep(ctx context.Context, threshold int) (int, error) {
	report, err := m.Sweep(ctx, threshold)
	return report.Deleted, err
}

// Sweep is [Manager.RunRetentionSweep] with the full report.
//
// When the deadline passes or ctx is cancelled the sweep stops before the next feed, and the
// report covers what was deleted until then.
func (m *Manager) Sweep(ctx context.Context, threshold int) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	if threshold < 0 {
		return report, fmt.Errorf("threshold must not be negative, got %d: %w", threshold, news.ErrInvalidConfig)
	}
	if err := CheckDeadline(m.deadline); err != nil {
		return report, err
	}
	if !m.running.TryAcquire(1) {
		return report, news.ErrSweepInProgress
	}
	defer m.running.Release(1)

	start := time.Now()
	ctx = logger.Ctx(ctx, slog.String("sweep_run_id", report.RunID), slog.Int("threshold", threshold))
	ctx, cancel := context.WithTimeout(ctx, m.deadline)
	defer cancel()

	err := m.sweep(ctx, threshold, &report)
	report.Duration = time.Since(start)

	if err != nil {
		m.log.ErrorContext(ctx, "retention sweep stopped", "deleted", report.Deleted, "feeds", report.Feeds, "error", err)
		return report, err
	}
	m.log.InfoContext(ctx, "retention sweep finished", "deleted", report.Deleted, "feeds", report.Feeds, "duration", report.Duration)

	return report, nil
}

func (m *Manager) sweep(ctx context.Context, threshold int, report *Report) error {
	overflows, err := m.repo.OverflowingFeeds(ctx, threshold)
	if err != nil {
		return fmt.Errorf("error finding overflowing feeds: %w", err)
	}

	for _, overflow := range overflows {
		// Only stop between feeds.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retention sweep interrupted after %d items: %w", report.Deleted, err)
		}

		// A started trim always runs to completion.
		deleted, err := m.repo.TrimFeed(context.WithoutCancel(ctx), overflow.FeedID, threshold)
		if err != nil {
			if errors.Is(err, news.ErrConstraint) {
				m.log.ErrorContext(ctx, "constraint violation trimming feed", "feed_id", overflow.FeedID, "error", err)
			}
			return fmt.Errorf("error trimming feed %d: %w", overflow.FeedID, err)
		}
		if deleted == 0 {
			continue
		}

		report.Deleted += int(deleted)
		report.Feeds++
		m.log.DebugContext(ctx, "trimmed feed", "feed_id", overflow.FeedID, "overflow", overflow.Size, "deleted", deleted)
	}

	return nil
}
