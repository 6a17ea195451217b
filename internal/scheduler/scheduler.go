package scheduler

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/domain"
	"github.com/ykvlv/checkin-bot/internal/logger"
)

const skipText = "Skipping today's check-in."

type Users interface {
	All(ctx context.Context) iter.Seq2[domain.UserRecord, error]
	Get(ctx context.Context, chatID int64) (domain.UserRecord, error)
	Put(ctx context.Context, r domain.UserRecord) error
}

type Checkiner interface {
	Checkin(ctx context.Context, r domain.UserRecord) (string, error)
}

// Notifier delivers a message to a chat. Delivery failures are the
// notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string, formatted bool)
}

// Report summarizes one sweep. AlreadyHandled counts users inside their
// window that an earlier sweep already acted on; they are not in Matched.
type Report struct {
	Matched        int `json:"matched"`
	Skipped        int `json:"skipped"`
	CheckedIn      int `json:"checked_in"`
	Failed         int `json:"failed"`
	AlreadyHandled int `json:"already_handled"`
}

// Scheduler periodically sweeps all users and checks in those whose
// configured time is now.
type Scheduler struct {
	users    Users
	runner   Checkiner
	notifier Notifier
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
}

type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(users Users, runner Checkiner, notifier Notifier, log *zap.Logger, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &Scheduler{
		users:    users,
		runner:   runner,
		notifier: notifier,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			// Errors are logged inside Sweep; the next tick retries.
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Users are first classified while enumerating; queued
// check-ins run afterwards, one at a time. Any enumeration error aborts the
// sweep before a single check-in is made.
//
// Each window is acted on once: the window key is persisted with the skip
// decrement, or after the check-in attempt, and later sweeps inside the same
// window leave the user alone. This holds for ticker and on-demand sweeps.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	now := s.now()
	nowM := domain.MinutesOfDay(now)
	log := s.log.With(zap.String("now", domain.FormatMinutes(nowM)))
	ctx = logger.WithContext(ctx, log)

	var (
		rep   Report
		queue []domain.UserRecord
	)
	for rec, err := range s.users.All(ctx) {
		if err != nil {
			log.Error("sweep aborted: user enumeration failed", zap.Error(err))
			return rep, err
		}
		if !domain.InWindow(rec, nowM) {
			continue
		}
		key := domain.WindowKey(rec, now)
		if rec.LastWindow == key {
			rep.AlreadyHandled++
			continue
		}
		rep.Matched++

		if rec.SkipCount > 0 {
			rec = domain.WithHandledWindow(domain.ConsumeSkip(rec), key)
			if err := s.users.Put(ctx, rec); err != nil {
				log.Error("sweep aborted: persist skip failed", zap.Int64("chat_id", rec.ChatID), zap.Error(err))
				return rep, err
			}
			rep.Skipped++
			s.notifier.Notify(ctx, rec.ChatID, skipText, false)
			s.notifier.Notify(ctx, rec.ChatID, domain.PrettyRecord(rec), true)
			continue
		}
		queue = append(queue, rec)
	}

	for _, rec := range queue {
		msg, err := s.runner.Checkin(ctx, rec)
		s.markHandled(ctx, rec.ChatID, domain.WindowKey(rec, now))
		if err != nil {
			rep.Failed++
			s.notifier.Notify(ctx, rec.ChatID, "Check-in failed: "+domain.Describe(err), false)
			continue
		}
		rep.CheckedIn++
		s.notifier.Notify(ctx, rec.ChatID, msg, false)
	}

	log.Info("sweep done",
		zap.Int("matched", rep.Matched),
		zap.Int("skipped", rep.Skipped),
		zap.Int("checked_in", rep.CheckedIn),
		zap.Int("failed", rep.Failed),
		zap.Int("already_handled", rep.AlreadyHandled),
	)
	return rep, nil
}

// markHandled re-reads the record so changes made during the check-in are
// kept. The check-in already happened, so failures are only logged.
func (s *Scheduler) markHandled(ctx context.Context, chatID int64, key string) {
	log := logger.FromContext(ctx).With(zap.Int64("chat_id", chatID))

	rec, err := s.users.Get(ctx, chatID)
	if domain.IsKind(err, domain.KindUserNotFound) {
		return
	}
	if err != nil {
		log.Error("mark window handled: read failed", zap.Error(err))
		return
	}
	if err := s.users.Put(ctx, domain.WithHandledWindow(rec, key)); err != nil {
		log.Error("mark window handled: write failed", zap.Error(err))
	}
}
