// Package scheduler runs the dispatch loop: on every cron fire it picks due
// emails within the daily limit and hands them to the transport.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"github.com/alitto/pond"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/internal/dao"
	"github.com/modfin/brevq/internal/metrics"
	"github.com/modfin/brevq/internal/posthook"
	"github.com/modfin/brevq/internal/ratelimit"
	"github.com/modfin/brevq/internal/retry"
	"github.com/modfin/brevq/internal/selector"
	"github.com/modfin/brevq/internal/signals"
	"github.com/modfin/brevq/internal/transport"
	"github.com/modfin/brevq/tools"
	"github.com/sirupsen/logrus"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const tickLock = "tick"

type Config struct {
	Workers  int
	Location *time.Location // blacklist rules and the cron schedule are evaluated here
	Now      func() time.Time
	Hooks    *posthook.Hooker // optional, notified after every send attempt
}

type Scheduler struct {
	cfg       Config
	store     dao.DAO
	transport transport.Transport
	limiter   *ratelimit.Limiter
	retry     *retry.Manager
	metrics   *metrics.Collectors
	log       *logrus.Logger

	lock *tools.KeyedMutex
	pool *pond.WorkerPool

	ostart sync.Once
	ostop  sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, store dao.DAO, t transport.Transport, collectors *metrics.Collectors, lc *tools.Logger) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := lc.New("scheduler")

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		transport: t,
		limiter:   ratelimit.New(store),
		retry:     retry.New(store, log),
		metrics:   collectors,
		log:       log,
		lock:      tools.NewKeyedMutex(),
		pool:      pond.New(cfg.Workers, 0, pond.MinWorkers(1)),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (s *Scheduler) now() time.Time {
	return s.cfg.Now().UTC()
}

func (s *Scheduler) Start() {
	s.ostart.Do(func() {
		go s.start()
	})
}

func (s *Scheduler) start() {
	defer close(s.done)

	s.log.Infof("starting scheduler with %d workers", s.cfg.Workers)

	released, err := s.Recover(s.ctx)
	if err != nil {
		s.log.WithError(err).Error("could not release emails left processing")
	}
	if len(released) > 0 {
		s.log.Warnf("released %d emails left processing by a previous run", len(released))
	}

	urgent, cancelUrgent := signals.Listen(signals.UrgentEmailQueued)
	defer cancelUrgent()
	changed, cancelChanged := signals.Listen(signals.SettingsChanged)
	defer cancelChanged()

	for {
		wait := s.untilNextFire()
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-changed:
			timer.Stop()
			s.log.Debug("settings changed, recalculating next fire")
			continue
		case <-urgent:
			timer.Stop()
			s.log.Debug("urgent email queued, ticking early")
		case <-timer.C:
		}

		_, err := s.Tick(s.ctx)
		if err != nil {
			s.log.WithError(err).Error("tick failed")
		}
	}
}

// untilNextFire re-reads settings so schedule changes apply to the next wait.
func (s *Scheduler) untilNextFire() time.Duration {
	settings, err := s.store.GetSettings(s.ctx)
	if err != nil {
		s.log.WithError(err).Errorf("could not read settings, retrying in %s", DefaultInterval)
		return DefaultInterval
	}
	sched, err := ParseSchedule(settings.CronSchedule)
	if err != nil {
		s.log.WithError(err).Errorf("invalid schedule, retrying in %s", DefaultInterval)
		return DefaultInterval
	}
	now := s.now()
	next := sched.Next(now.In(s.cfg.Location))
	if next.IsZero() {
		s.log.Errorf("schedule %q never fires, retrying in %s", settings.CronSchedule, DefaultInterval)
		return DefaultInterval
	}
	return next.Sub(now)
}

// Recover releases claims left processing for more than one tick interval,
// the same cutoff every tick applies. Younger claims may belong to another
// process sharing the database and are left alone.
func (s *Scheduler) Recover(ctx context.Context) ([]string, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read settings: %w", err)
	}
	now := s.now()
	return s.store.ReleaseStale(ctx, now.Add(-s.staleInterval(settings, now)), now)
}

// staleInterval is how long a claim may stay processing before it is
// considered abandoned.
func (s *Scheduler) staleInterval(settings brevq.Settings, now time.Time) time.Duration {
	sched, err := ParseSchedule(settings.CronSchedule)
	if err != nil {
		return DefaultInterval
	}
	return Interval(sched, now.In(s.cfg.Location))
}

// Stop waits for a running tick to finish its in flight sends.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.ostop.Do(func() {
		s.cancel()
		s.ostart.Do(func() { close(s.done) })

		select {
		case <-s.done:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}

		stopped := make(chan struct{})
		go func() {
			s.pool.StopAndWait()
			close(stopped)
		}()

		select {
		case <-stopped:
			s.log.Info("scheduler has been shut down")
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

type Report struct {
	Skipped  bool `json:"skipped,omitempty"`
	Disabled bool `json:"disabled,omitempty"`

	Released  int `json:"released"`
	Remaining int `json:"remaining"`
	Due       int `json:"due"`
	Selected  int `json:"selected"`
	Held      int `json:"held"`
	Deferred  int `json:"deferred"`

	Sent      int `json:"sent"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
	Unclaimed int `json:"unclaimed"`
}

// Tick runs one dispatch pass. If a pass is already running the call returns
// at once with Report.Skipped set.
func (s *Scheduler) Tick(ctx context.Context) (Report, error) {
	var rep Report
	var err error
	ran := s.lock.Do(tickLock, func() {
		rep, err = s.tick(ctx)
	})
	if !ran {
		s.log.Debug("a tick is already running, skipping")
		s.metrics.Tick("skipped")
		return Report{Skipped: true}, nil
	}
	switch {
	case err != nil:
		s.metrics.Tick("error")
	case rep.Disabled:
		s.metrics.Tick("disabled")
	default:
		s.metrics.Tick("ran")
	}
	return rep, err
}

func (s *Scheduler) tick(ctx context.Context) (rep Report, err error) {
	now := s.now()
	log := s.log.WithField("tick", now.Format(time.RFC3339))

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return rep, fmt.Errorf("could not read settings: %w", err)
	}
	if !settings.Enabled {
		log.Debug("scheduling is disabled")
		rep.Disabled = true
		return rep, nil
	}

	interval := s.staleInterval(settings, now)
	released, err := s.store.ReleaseStale(ctx, now.Add(-interval), now)
	if err != nil {
		return rep, fmt.Errorf("could not release stale claims: %w", err)
	}
	rep.Released = len(released)
	if rep.Released > 0 {
		log.Warnf("released %d emails stuck in processing for more than %s", rep.Released, interval)
	}

	defer s.observeQueue(ctx, settings.DailyLimit)

	rep.Remaining, err = s.limiter.Remaining(ctx, now, settings.DailyLimit)
	if err != nil {
		return rep, err
	}
	if rep.Remaining == 0 {
		log.Infof("daily limit of %d reached", settings.DailyLimit)
		return rep, nil
	}

	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		return rep, err
	}
	rep.Due = len(due)

	local := now.In(s.cfg.Location)
	sel := selector.Select(due, local, rep.Remaining)
	rep.Selected = len(sel.Selected)
	rep.Held = len(sel.Held)
	rep.Deferred = sel.Deferred
	for _, e := range sel.Held {
		l := log.WithField("eid", e.ID.String())
		if reasons := e.BlacklistRules.Covers(local); len(reasons) > 0 {
			l = l.WithField("reasons", strings.Join(reasons, ", "))
		}
		l.Debug("held back by blacklist rules")
	}
	if rep.Selected == 0 {
		return rep, nil
	}

	s.dispatch(ctx, sel.Selected, settings.DailyLimit, &rep)

	log.Infof("tick done, selected %d, sent %d, retried %d, failed %d", rep.Selected, rep.Sent, rep.Retried, rep.Failed)
	return rep, nil
}

// dispatch sends the selected emails concurrently. In flight sends are not
// cancelled by ctx, they are bounded by the transport timeout.
func (s *Scheduler) dispatch(ctx context.Context, emails []brevq.QueuedEmail, dailyLimit int, rep *Report) {
	sendCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	var exhausted atomic.Bool
	count := func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		f()
	}

	group := s.pool.Group()
	for _, e := range emails {
		e := e
		group.Submit(func() {
			log := s.log.WithField("eid", e.ID.String())

			if exhausted.Load() || ctx.Err() != nil {
				count(func() { rep.Unclaimed++ })
				return
			}

			claimed, err := s.store.Claim(sendCtx, e, s.now())
			if errors.Is(err, brevq.ErrConflict) {
				log.Debug("email changed since it was selected, skipping")
				s.metrics.Outcome("conflict")
				count(func() { rep.Conflicts++ })
				return
			}
			if err != nil {
				log.WithError(err).Error("could not claim email")
				count(func() { rep.Unclaimed++ })
				return
			}

			start := time.Now()
			sendErr := s.transport.Send(sendCtx, transport.MessageOf(claimed))
			s.metrics.ObserveSend(s.transport.Name(), sendErr, time.Since(start))

			outcome, err := s.retry.Resolve(sendCtx, claimed, sendErr, s.now())
			if err != nil {
				log.WithError(err).Error("could not record outcome")
				if errors.Is(err, brevq.ErrConflict) {
					count(func() { rep.Conflicts++ })
				}
				return
			}
			s.metrics.Outcome(outcome.String())
			_ = s.cfg.Hooks.Post(sendCtx, hookOf(claimed, outcome, sendErr, s.now()))

			switch outcome {
			case retry.Sent:
				count(func() { rep.Sent++ })
				remaining, err := s.limiter.Remaining(sendCtx, s.now(), dailyLimit)
				if err != nil || remaining == 0 {
					exhausted.Store(true)
				}
			case retry.Requeued:
				count(func() { rep.Retried++ })
			case retry.Failed:
				count(func() { rep.Failed++ })
			}
		})
	}
	group.Wait()
}

func hookOf(e brevq.QueuedEmail, outcome retry.Outcome, sendErr error, now time.Time) brevq.Posthook {
	hook := brevq.Posthook{
		EmailID:   e.ID.String(),
		BatchID:   e.BatchID,
		To:        e.To,
		Attempt:   e.Attempts + 1,
		Event:     brevq.EventDelivered,
		CreatedAt: now,
	}
	switch outcome {
	case retry.Requeued:
		hook.Event = brevq.EventDeferred
	case retry.Failed:
		hook.Event = brevq.EventFailed
	}
	if sendErr != nil {
		hook.Info = tools.Truncate(sendErr.Error(), retry.MaxErrorLength)
	}
	return hook
}

func (s *Scheduler) observeQueue(ctx context.Context, dailyLimit int) {
	if s.metrics == nil {
		return
	}
	queued, err := s.store.CountQueued(ctx)
	if err != nil {
		return
	}
	remaining, err := s.limiter.Remaining(ctx, s.now(), dailyLimit)
	if err != nil {
		return
	}
	s.metrics.Queue(queued, remaining)
}
