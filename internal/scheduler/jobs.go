package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"agency_crm_backend/internal/automation"
	"agency_crm_backend/internal/exports"
	"agency_crm_backend/platform/logger"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
)

// dispatchHorizonDays covers tomorrow's sends; a step never falls due on the
// day it is planned.
const dispatchHorizonDays = 1

// JobsDeps wires Jobs.
type JobsDeps struct {
	Automation *automation.Service
	Exports    *exports.Service
	Enqueuer   DripEnqueuer
	Location   *time.Location
	SendHour   int
	Log        *logger.Logger
	Now        func() time.Time
}

// Jobs runs the recurring planning and backup work on a cron schedule.
type Jobs struct {
	cron       *cron.Cron
	automation *automation.Service
	exports    *exports.Service
	enqueuer   DripEnqueuer
	loc        *time.Location
	sendHour   int
	log        *logger.Logger
	now        func() time.Time
}

func NewJobs(deps JobsDeps) *Jobs {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logger.NewWithWriter("production", io.Discard)
	}
	return &Jobs{
		cron:       cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{log}))),
		automation: deps.Automation,
		exports:    deps.Exports,
		enqueuer:   deps.Enqueuer,
		loc:        loc,
		sendHour:   deps.SendHour,
		log:        log,
		now:        now,
	}
}

// PlanDrips forecasts the roster and enqueues every message due tomorrow at
// the configured send hour. It returns the number of enqueued messages.
func (j *Jobs) PlanDrips(ctx context.Context) (int, error) {
	if j.automation == nil || j.enqueuer == nil {
		return 0, nil
	}

	now := j.now()
	forecast, err := j.automation.Plan(ctx, now, dispatchHorizonDays)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, entry := range forecast.Entries {
		runAt := j.sendTime(entry.SendDate)
		if runAt.Before(now) {
			runAt = now
		}
		payload := DripSendPayload{
			LeadID:        entry.LeadID.String(),
			SequenceID:    entry.SequenceID,
			StepID:        entry.StepID,
			TriggerStatus: entry.TriggerStatus.String(),
			SendDate:      entry.SendDate.String(),
			PlannedAt:     now,
		}
		if err := j.enqueuer.EnqueueDripSend(ctx, payload, runAt); err != nil {
			return enqueued, fmt.Errorf("enqueue drip %s for lead %s: %w", entry.StepID, entry.LeadID, err)
		}
		enqueued++
	}
	return enqueued, nil
}

// ArchiveBackup stores the nightly roster backup.
func (j *Jobs) ArchiveBackup(ctx context.Context) (exports.ArchiveResult, error) {
	if j.exports == nil {
		return exports.ArchiveResult{}, nil
	}
	return j.exports.Archive(ctx)
}

// Run registers the jobs and blocks until ctx is cancelled. An empty spec
// disables its job.
func (j *Jobs) Run(ctx context.Context, planSpec, backupSpec string) error {
	if planSpec != "" {
		if _, err := j.cron.AddFunc(planSpec, func() { j.runPlan(ctx) }); err != nil {
			return fmt.Errorf("schedule drip planning %q: %w", planSpec, err)
		}
	}
	if backupSpec != "" {
		if _, err := j.cron.AddFunc(backupSpec, func() { j.runBackup(ctx) }); err != nil {
			return fmt.Errorf("schedule backup %q: %w", backupSpec, err)
		}
	}

	j.log.Info("cron started", "plan", planSpec, "backup", backupSpec, "location", j.loc.String())
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
	j.log.Info("cron stopped")
	return nil
}

func (j *Jobs) runPlan(ctx context.Context) {
	count, err := j.PlanDrips(ctx)
	if err != nil {
		j.log.Error("drip planning failed", "error", err, "enqueued", count)
		return
	}
	j.log.Info("drip planning finished", "enqueued", count)
}

func (j *Jobs) runBackup(ctx context.Context) {
	result, err := j.ArchiveBackup(ctx)
	if err != nil {
		j.log.Error("roster backup failed", "error", err)
		return
	}
	j.log.Info("roster backup stored", "key", result.ObjectKey, "rows", result.Rows)
}

func (j *Jobs) sendTime(date civil.Date) time.Time {
	return time.Date(date.Year, date.Month, date.Day, j.sendHour, 0, 0, 0, j.loc)
}

// cronLogger routes cron's internal messages, including recovered job panics,
// through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
