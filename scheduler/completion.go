// Package scheduler runs the daily completion sweep over active interns.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"intern_certify_v1/certificate"
	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/robfig/cron/v3"
)

var ErrSweepRunning = errors.New("completion sweep already running")

type InternStore interface {
	ListActive(ctx context.Context) ([]model.Intern, error)
	Transition(ctx context.Context, id uint, from, to string, at time.Time) error
}

type Issuer interface {
	IssueCompletion(ctx context.Context, intern *model.Intern) certificate.Outcome
}

const (
	ResultCompleted = "completed"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

type InternResult struct {
	InternID    uint                 `json:"internId"`
	InternCode  string               `json:"internEmployeeId"`
	Result      string               `json:"result"`
	Error       string               `json:"error,omitempty"`
	Certificate *certificate.Outcome `json:"certificate,omitempty"`
}

// SweepReport summarizes one sweep. Checked counts every active intern;
// interns not yet due appear in no other counter.
type SweepReport struct {
	Day       string         `json:"day"`
	Checked   int            `json:"checked"`
	Completed int            `json:"completed"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Results   []InternResult `json:"results"`
}

type Options struct {
	Schedule string
	Location *time.Location
	Now      func() time.Time
	Locker   Locker
	// Timeout bounds a scheduled run. Sweeps started through Sweep use the
	// caller's context instead.
	Timeout time.Duration
}

type CompletionJob struct {
	interns InternStore
	issuer  Issuer
	opts    Options

	mu   sync.Mutex
	cron *cron.Cron
}

func NewCompletionJob(interns InternStore, issuer Issuer, opts Options) *CompletionJob {
	if opts.Schedule == "" {
		opts.Schedule = "0 2 * * *"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Minute
	}
	return &CompletionJob{interns: interns, issuer: issuer, opts: opts}
}

// Start registers the sweep on the cron schedule and starts the scheduler.
func (j *CompletionJob) Start() error {
	c := cron.New(
		cron.WithLocation(j.opts.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(j.opts.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.opts.Timeout)
		defer cancel()

		if _, err := j.Sweep(ctx); err != nil {
			log.Printf("[SWEEP] scheduled run: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid completion schedule %q: %w", j.opts.Schedule, err)
	}
	j.cron = c
	c.Start()
	log.Printf("[SWEEP] started schedule=%q tz=%s", j.opts.Schedule, j.opts.Location)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *CompletionJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Sweep completes every active intern whose internship has run its full
// duration and issues their completion certificate. One intern's failure
// never stops the others.
func (j *CompletionJob) Sweep(ctx context.Context) (SweepReport, error) {
	if !j.mu.TryLock() {
		return SweepReport{}, ErrSweepRunning
	}
	defer j.mu.Unlock()

	if j.opts.Locker != nil {
		release, ok, err := j.opts.Locker.TryLock(ctx)
		switch {
		case err != nil:
			log.Printf("[SWEEP] distributed lock unavailable, continuing: %v", err)
		case !ok:
			return SweepReport{}, ErrSweepRunning
		default:
			defer release()
		}
	}

	today := model.CalendarDay(j.opts.Now(), j.opts.Location)
	report := SweepReport{Day: today.Format("2006-01-02"), Results: []InternResult{}}

	interns, err := j.interns.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("listing active interns: %w", err)
	}
	report.Checked = len(interns)
	log.Printf("[SWEEP] %s: checking %d active interns", report.Day, len(interns))

	for idx := range interns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		intern := &interns[idx]
		if !intern.IsDueForCompletion(today) {
			continue
		}

		res := j.complete(ctx, intern, today)
		switch res.Result {
		case ResultCompleted:
			report.Completed++
		case ResultSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}

	log.Printf("[SWEEP] %s: completed=%d skipped=%d failed=%d",
		report.Day, report.Completed, report.Skipped, report.Failed)
	return report, nil
}

func (j *CompletionJob) complete(ctx context.Context, intern *model.Intern, today time.Time) (res InternResult) {
	res = InternResult{InternID: intern.ID, InternCode: intern.Code}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SWEEP] panic while completing %s: %v", intern.Code, r)
			res.Result, res.Error = ResultFailed, fmt.Sprint(r)
		}
	}()

	err := j.interns.Transition(ctx, intern.ID, model.InternActive, model.InternCompleted, today)
	if errors.Is(err, repository.ErrInvalidTransition) {
		log.Printf("[SWEEP] %s already left active, skipping", intern.Code)
		res.Result = ResultSkipped
		return res
	}
	if err != nil {
		log.Printf("[SWEEP] completing %s: %v", intern.Code, err)
		res.Result, res.Error = ResultFailed, err.Error()
		return res
	}

	intern.Status = model.InternCompleted
	intern.CompletionDate = &today
	res.Result = ResultCompleted

	outcome := j.issuer.IssueCompletion(ctx, intern)
	res.Certificate = &outcome
	return res
}
