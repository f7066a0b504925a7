package matchrepair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

type Queue interface {
	Peek(ctx context.Context, limit int) ([]model.MatchPair, error)
	Ack(ctx context.Context, pair model.MatchPair) error
	Defer(ctx context.Context, pair model.MatchPair) error
	Len(ctx context.Context) (int64, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, pair model.MatchPair) error
}

type backlogGauge interface {
	SetRepairBacklog(n int64)
}

// Job drains the repair queue filled by half-written matches.
type Job struct {
	queue      Queue
	reconciler Reconciler
	batch      int
	interval   time.Duration
	backlog    backlogGauge
	now        func() time.Time
	logger     *zap.Logger
}

func New(queue Queue, reconciler Reconciler, batch int, interval time.Duration, logger *zap.Logger) *Job {
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		queue:      queue,
		reconciler: reconciler,
		batch:      batch,
		interval:   interval,
		now:        time.Now,
		logger:     logger,
	}
}

func (j *Job) AttachBacklogGauge(gauge backlogGauge) {
	j.backlog = gauge
}

// Run processes one batch. Pairs that fail with a transient error are moved to
// the back of the queue for a later cycle; permanently invalid pairs are dropped.
func (j *Job) Run(ctx context.Context) error {
	if j.queue == nil || j.reconciler == nil {
		return nil
	}

	pairs, err := j.queue.Peek(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("peek repair queue: %w", err)
	}

	started := j.now()
	healed := 0
	deferred := 0
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := j.reconciler.Reconcile(ctx, pair)
		if err != nil && !errors.Is(err, errs.ErrValidation) {
			deferred++
			j.logger.Warn("match repair deferred",
				zap.String("profile_id", pair.ProfileID),
				zap.String("counterpart_id", pair.CounterpartID),
				zap.Error(err),
			)
			if err := j.queue.Defer(ctx, pair); err != nil {
				j.logger.Warn("requeue deferred repair failed", zap.Error(err))
			}
			continue
		}
		if err != nil {
			j.logger.Warn("dropping invalid repair entry",
				zap.String("profile_id", pair.ProfileID),
				zap.String("counterpart_id", pair.CounterpartID),
				zap.Error(err),
			)
		}

		if err := j.queue.Ack(ctx, pair); err != nil {
			return fmt.Errorf("ack repair entry: %w", err)
		}
		healed++
	}

	if j.backlog != nil {
		if n, err := j.queue.Len(ctx); err == nil {
			j.backlog.SetRepairBacklog(n)
		}
	}

	if len(pairs) > 0 {
		j.logger.Info("match repair cycle completed",
			zap.Int("processed", healed),
			zap.Int("deferred", deferred),
			zap.Duration("duration", j.now().Sub(started)),
		)
	}
	return nil
}

// Start runs the job on its interval until ctx is cancelled.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Warn("match repair cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
