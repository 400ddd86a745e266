// Package queue is the submission side of brevq: everything callers do to the
// queue short of dispatching.
package queue

import (
	"context"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/internal/batch"
	"github.com/modfin/brevq/internal/dao"
	"github.com/modfin/brevq/internal/ratelimit"
	"github.com/modfin/brevq/internal/scheduler"
	"github.com/modfin/brevq/internal/signals"
	"github.com/modfin/brevq/tools"
	"github.com/sirupsen/logrus"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Config struct {
	DefaultFrom string
	Location    *time.Location
	Now         func() time.Time
}

type Service struct {
	cfg     Config
	store   dao.DAO
	batches *batch.Coordinator
	limiter *ratelimit.Limiter
	log     *logrus.Logger
}

func New(cfg Config, store dao.DAO, lc *tools.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultFrom == "" {
		cfg.DefaultFrom = tools.SystemUri()
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		batches: batch.New(store, cfg.DefaultFrom),
		limiter: ratelimit.New(store),
		log:     lc.New("queue"),
	}
}

func (s *Service) now() time.Time {
	return s.cfg.Now().UTC()
}

func (s *Service) Schedule(ctx context.Context, req brevq.ScheduleRequest) (brevq.Receipt, error) {
	if err := req.Validate(); err != nil {
		return brevq.Receipt{}, err
	}
	e := req.Content.Record(req.To, s.cfg.DefaultFrom, s.now())
	if err := s.store.Enqueue(ctx, e); err != nil {
		return brevq.Receipt{}, fmt.Errorf("could not enqueue email: %w", err)
	}
	s.log.WithField("eid", e.ID.String()).Debugf("queued %s email, %s", e.Priority, e.Status)
	s.wake(e.Priority)
	return brevq.Receipt{ID: e.ID.String()}, nil
}

func (s *Service) QueueBatch(ctx context.Context, req brevq.BatchRequest) (brevq.BatchReceipt, error) {
	receipt, err := s.batches.Submit(ctx, req, s.now())
	if err != nil {
		return receipt, err
	}
	s.log.WithField("batch", receipt.BatchID).Debugf("queued batch of %d emails", len(receipt.IDs))
	priority, _ := brevq.ParsePriority(req.Priority)
	s.wake(priority)
	return receipt, nil
}

func (s *Service) Batch(ctx context.Context, batchID string) (brevq.BatchStatus, error) {
	return s.batches.Status(ctx, batchID)
}

func (s *Service) Get(ctx context.Context, id string) (brevq.QueuedEmail, error) {
	return s.store.Get(ctx, id)
}

// Log is the audit trail of an email, it outlives a cancel.
func (s *Service) Log(ctx context.Context, id string) ([]dao.LogEntry, error) {
	entries, err := s.store.Log(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("email %s, %w", id, brevq.ErrNotFound)
	}
	return entries, nil
}

// List pages through all emails, newest first. page starts at 1, out of range
// values are normalized rather than rejected.
func (s *Service) List(ctx context.Context, page, pageSize int) (brevq.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	emails, total, err := s.store.List(ctx, page, pageSize)
	if err != nil {
		return brevq.Page{}, err
	}
	return brevq.Page{
		Emails:     emails,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *Service) Update(ctx context.Context, req brevq.UpdateRequest) (brevq.QueuedEmail, error) {
	if err := req.Validate(); err != nil {
		return brevq.QueuedEmail{}, err
	}

	patch := dao.Patch{
		Subject:        req.Subject,
		HTML:           req.HTML,
		ScheduledFor:   req.ScheduledFor,
		BlacklistRules: req.BlacklistRules,
		EditableUntil:  req.EditableUntil,
	}
	if req.Priority != nil {
		p, _ := brevq.ParsePriority(*req.Priority)
		patch.Priority = &p
	}

	e, err := s.store.Update(ctx, req.ID, patch, s.now())
	if err != nil {
		return brevq.QueuedEmail{}, err
	}
	s.log.WithField("eid", req.ID).Debug("email updated")
	s.wake(e.Priority)
	return e, nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	err := s.store.Cancel(ctx, id, s.now())
	if err != nil {
		return err
	}
	s.log.WithField("eid", id).Debug("email cancelled")
	return nil
}

func (s *Service) Status(ctx context.Context) (brevq.QueueStatus, error) {
	now := s.now()

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return brevq.QueueStatus{}, err
	}
	queued, err := s.store.CountQueued(ctx)
	if err != nil {
		return brevq.QueueStatus{}, err
	}
	sent, err := s.limiter.Sent(ctx, now)
	if err != nil {
		return brevq.QueueStatus{}, err
	}
	earliest, err := s.store.Earliest(ctx)
	if err != nil {
		return brevq.QueueStatus{}, err
	}
	next, err := scheduler.NextSendTime(settings, earliest, now, s.cfg.Location)
	if err != nil {
		s.log.WithError(err).Warn("could not compute next send time")
	}

	return brevq.QueueStatus{
		QueueLength:       queued,
		DailyCount:        sent,
		DailyLimit:        settings.DailyLimit,
		RemainingCapacity: ratelimit.Remaining(settings.DailyLimit, sent),
		NextSendTime:      next,
		IsEnabled:         settings.Enabled,
	}, nil
}

func (s *Service) Settings(ctx context.Context) (brevq.Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, update brevq.SettingsUpdate) (brevq.Settings, error) {
	if err := update.Validate(); err != nil {
		return brevq.Settings{}, err
	}
	if update.CronSchedule != nil {
		if _, err := scheduler.ParseSchedule(*update.CronSchedule); err != nil {
			return brevq.Settings{}, err
		}
	}
	settings, err := s.store.UpdateSettings(ctx, update, s.now())
	if err != nil {
		return brevq.Settings{}, err
	}
	s.log.Infof("settings updated, daily limit %d, schedule %q, enabled %t", settings.DailyLimit, settings.CronSchedule, settings.Enabled)
	signals.Broadcast(signals.SettingsChanged)
	return settings, nil
}

func (s *Service) wake(p brevq.Priority) {
	if p == brevq.PriorityNow {
		signals.Broadcast(signals.UrgentEmailQueued)
	}
}
