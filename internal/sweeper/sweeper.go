// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sweeper runs the periodic expired-session collection job.

Lookups already treat expired sessions as absent, so the sweep is purely a
space reclamation concern: it deletes rows whose expiry has passed so the
store does not grow without bound. It wraps gocron with a single recurring
job in singleton mode — if a sweep is still running when the next tick
fires, the tick is skipped.
*/
package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/constants"
)

// Sweeper owns the gocron scheduler and the single sweep job.
// The zero value is not usable — create instances with New.
type Sweeper struct {
	cron    gocron.Scheduler
	service *iam.Service
	log     *slog.Logger
}

// New constructs a [Sweeper] with the sweep job registered but not started.
func New(service *iam.Service, log *slog.Logger) (*Sweeper, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("sweeper_scheduler_init_failed: %w", err)
	}

	sweeper := &Sweeper{
		cron:    cron,
		service: service,
		log:     log,
	}

	_, err = cron.NewJob(
		gocron.DurationJob(constants.SessionSweepInterval),
		gocron.NewTask(sweeper.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("sweeper_job_registration_failed: %w", err)
	}

	return sweeper, nil
}

// Start begins ticking. It returns immediately; sweeps run on the
// scheduler's goroutine.
func (sweeper *Sweeper) Start() {
	sweeper.cron.Start()
	sweeper.log.Info("session_sweeper_started",
		slog.Duration("interval", constants.SessionSweepInterval))
}

// Shutdown stops the scheduler and waits for an in-flight sweep to finish.
func (sweeper *Sweeper) Shutdown() error {
	return sweeper.cron.Shutdown()
}

func (sweeper *Sweeper) sweep() {
	if err := sweeper.service.SweepExpiredSessions(context.Background()); err != nil {
		sweeper.log.Error("session_sweep_failed", slog.Any("error", err))
	}
}
