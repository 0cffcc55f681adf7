package services

import (
	"context"
	"time"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type LeaseConfig struct {
	// Timeout <= 0 disables the sweeper.
	Timeout   time.Duration
	Interval  time.Duration
	BatchSize int
}

// LeaseSweeper returns Working requests whose worker stopped heartbeating to
// Pending, through the same guarded update an admin revoke uses.
type LeaseSweeper struct {
	log      *logger.Logger
	requests repos.ProcessRequestRepo
	agg      domainagg.AssignmentAggregate
	notifier Notifier
	metrics  *observability.Metrics
	cfg      LeaseConfig
	now      func() time.Time
}

func NewLeaseSweeper(
	log *logger.Logger,
	requests repos.ProcessRequestRepo,
	agg domainagg.AssignmentAggregate,
	notifier Notifier,
	metrics *observability.Metrics,
	cfg LeaseConfig,
) *LeaseSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LeaseSweeper{
		log:      log.With("service", "LeaseSweeper"),
		requests: requests,
		agg:      agg,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *LeaseSweeper) Enabled() bool { return s != nil && s.cfg.Timeout > 0 }

// Run sweeps every Interval until ctx is done. It returns immediately when
// the sweeper is disabled.
func (s *LeaseSweeper) Run(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.log.Info("lease sweeper started", "timeout", s.cfg.Timeout.String(), "interval", s.cfg.Interval.String())
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("lease sweep failed", "error", err)
			}
		}
	}
}

// Sweep expires one batch of stale leases and reports how many it expired.
func (s *LeaseSweeper) Sweep(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.Timeout)
	stale, err := s.requests.ListStale(dbctx.Context{Ctx: ctx}, cutoff, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, pr := range stale {
		res, err := s.agg.Transition(ctx, domainagg.TransitionInput{
			RequestID:   pr.ID,
			Transition:  processing.TransitionExpire,
			Actor:       auth.System(),
			StaleBefore: &cutoff,
			At:          s.now(),
		})
		if domainagg.IsCode(err, domainagg.CodeNotModified) || domainagg.IsCode(err, domainagg.CodeNotFound) {
			// heartbeat, completion or delete landed between the scan and the update
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
		s.metrics.IncLeaseExpired()
		s.notifier.Publish(ctx, processing.NewEvent(processing.EventExpired, &res.Request))
		s.log.Warn("lease expired", "process_request_id", pr.ID, "worker_id", pr.WorkerID)
	}
	return expired, nil
}
