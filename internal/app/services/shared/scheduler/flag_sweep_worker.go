package scheduler

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/utils"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// leaderLockKey makes a single instance run each sweep.
	leaderLockKey   = "alerting:flag-sweep:leader"
	leaderLockTTL   = 2 * time.Minute
	defaultCronSpec = "@daily"
)

// FlagSweepWorker runs the expired flag sweep on a cron schedule.
type FlagSweepWorker struct {
	log     *zap.Logger
	locker  contracts.LockerService
	sweeper contracts.FlagSweeper
	spec    string
	cron    *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
}

func NewFlagSweepWorker(log *zap.Logger, lockerSvc contracts.LockerService, sweeper contracts.FlagSweeper, spec string) *FlagSweepWorker {
	return &FlagSweepWorker{log: log, locker: lockerSvc, sweeper: sweeper, spec: spec}
}

// Start schedules the sweep. An invalid spec falls back to @daily.
func (w *FlagSweepWorker) Start(ctx context.Context) {
	w.runCtx, w.cancel = context.WithCancel(ctx)
	c := cron.New()
	_, err := c.AddFunc(w.spec, func() { w.RunOnce(w.runCtx) })
	if err != nil {
		w.log.Warn("scheduler.FlagSweepWorker: invalid cron spec, falling back to @daily",
			zap.String("cron_spec", w.spec),
			zap.Error(err),
		)
		c = cron.New()
		_, _ = c.AddFunc(defaultCronSpec, func() { w.RunOnce(w.runCtx) })
	}
	c.Start()
	w.cron = c
}

// Stop waits for a running sweep to finish.
func (w *FlagSweepWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		ctx := w.cron.Stop()
		<-ctx.Done()
	}
}

func (w *FlagSweepWorker) RunOnce(ctx context.Context) {
	acquired, token, err := w.locker.TryLock(ctx, leaderLockKey, leaderLockTTL)
	if err != nil {
		w.log.Warn("scheduler.FlagSweepWorker: leader lock attempt failed", zap.Error(err))
		return
	}
	if !acquired {
		w.log.Info("scheduler.FlagSweepWorker: leader lock held by another instance")
		return
	}
	defer w.locker.Unlock(ctx, leaderLockKey, token)

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go func() {
		tick := time.NewTicker(leaderLockTTL / 2)
		defer tick.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-tick.C:
				if err := w.locker.Refresh(ctx, leaderLockKey, token, leaderLockTTL); err != nil {
					w.log.Warn("scheduler.FlagSweepWorker: failed to refresh leader lock", zap.Error(err))
				}
			}
		}
	}()

	var swept int
	err = utils.LogOperation(w.log, "scheduler.FlagSweepWorker.sweep", "", func() error {
		var sweepErr error
		swept, sweepErr = w.sweeper.SweepExpiredFlags(ctx)
		return sweepErr
	})
	if err != nil {
		return
	}
	w.log.Info("scheduler.FlagSweepWorker: sweep finished", zap.Int(constvars.LoggingSweptCountKey, swept))
}
