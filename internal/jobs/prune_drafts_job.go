package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PruneDraftsJobName is the scheduler name of the stale draft job
const PruneDraftsJobName = "prune-stale-drafts"

const pruneTimeout = 2 * time.Minute

// DraftPruner removes drafts nobody has touched within the retention window
type DraftPruner interface {
	PruneStale(ctx context.Context) (int64, error)
}

// PruneDraftsJob deletes abandoned dialog drafts
type PruneDraftsJob struct {
	pruner DraftPruner
	logger *zap.Logger
}

// NewPruneDraftsJob creates the pruning job
func NewPruneDraftsJob(pruner DraftPruner, logger *zap.Logger) *PruneDraftsJob {
	return &PruneDraftsJob{pruner: pruner, logger: logger}
}

// Run prunes once and returns the number of removed drafts
func (j *PruneDraftsJob) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.pruner.PruneStale(ctx)
	if err != nil {
		j.logger.Error("stale draft pruning failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		j.logger.Info("pruned stale drafts",
			zap.Int64("count", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return n, nil
}

// Register schedules the job on s
func (j *PruneDraftsJob) Register(s *Scheduler, cronExpr string) error {
	return s.AddJob(PruneDraftsJobName, cronExpr, func() {
		_, _ = j.Run(context.Background())
	})
}

// Apply brings the registration on s in line with enabled and cronExpr. An
// existing registration is replaced so a changed schedule takes effect.
func (j *PruneDraftsJob) Apply(s *Scheduler, enabled bool, cronExpr string) error {
	if s.HasJob(PruneDraftsJobName) {
		if err := s.RemoveJob(PruneDraftsJobName); err != nil {
			return err
		}
	}
	if !enabled {
		j.logger.Info("draft pruning disabled")
		return nil
	}
	return j.Register(s, cronExpr)
}
