package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

// args returns the whitespace-separated words after the command itself.
func args(text string) []string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return nil
	}
	return f[1:]
}

func malformed(in Inbound, reason string) error {
	return &domain.Error{Kind: domain.KindMalformedCommand, ChatID: in.ChatID, Command: in.Text, Reason: reason}
}

func (r *Router) echo(ctx context.Context, rec domain.UserRecord) {
	r.Notifier.Notify(ctx, rec.ChatID, domain.PrettyRecord(rec), true)
}

// update applies fn to the stored record, persists the result and echoes it.
func (r *Router) update(ctx context.Context, chatID int64, fn func(domain.UserRecord) domain.UserRecord) error {
	rec, err := r.Users.Get(ctx, chatID)
	if err != nil {
		return err
	}
	rec = fn(rec)
	if err := r.Users.Put(ctx, rec); err != nil {
		return err
	}
	r.echo(ctx, rec)
	return nil
}

func (r *Router) handleStart(ctx context.Context, in Inbound) error {
	r.Notifier.Notify(ctx, in.ChatID, helpText, false)
	return nil
}

func (r *Router) handleLogin(ctx context.Context, in Inbound) error {
	a := args(in.Text)
	if len(a) != 2 {
		return malformed(in, "usage: /login <username> <password>")
	}
	if _, err := r.Auth.Authenticate(ctx, a[0], a[1]); err != nil {
		return err
	}
	rec := domain.NewRegistration(in.ChatID, a[0], a[1])
	if err := r.Users.Put(ctx, rec); err != nil {
		return err
	}
	r.echo(ctx, rec)
	return nil
}

func (r *Router) handleCheckinAt(ctx context.Context, in Inbound) error {
	a := args(in.Text)
	if len(a) != 1 {
		return malformed(in, "usage: /checkin_at <HH:MM>, one of "+domain.AllowedSlots())
	}
	ct, err := domain.ParseCheckinTime(a[0])
	if err != nil {
		return err
	}
	return r.update(ctx, in.ChatID, func(rec domain.UserRecord) domain.UserRecord {
		return domain.WithCheckinTime(rec, ct)
	})
}

func (r *Router) handleCheckin(ctx context.Context, in Inbound) error {
	rec, err := r.Users.Get(ctx, in.ChatID)
	if err != nil {
		return err
	}
	msg, err := r.Runner.Checkin(ctx, rec)
	if err != nil {
		return err
	}
	r.Notifier.Notify(ctx, in.ChatID, msg, false)
	return nil
}

func (r *Router) handleInfo(ctx context.Context, in Inbound) error {
	rec, err := r.Users.Get(ctx, in.ChatID)
	if err != nil {
		return err
	}
	now := r.now().In(domain.China).Format("2006-01-02 15:04:05 MST")
	r.Notifier.Notify(ctx, in.ChatID, fmt.Sprintf(nowFmt, now), false)
	r.echo(ctx, rec)
	return nil
}

func (r *Router) handleSkip(ctx context.Context, in Inbound) error {
	return r.update(ctx, in.ChatID, domain.WithSkip)
}

func (r *Router) handleNoSkip(ctx context.Context, in Inbound) error {
	return r.update(ctx, in.ChatID, domain.WithoutSkip)
}

// handleDelete confirms instead of echoing: the record is gone.
func (r *Router) handleDelete(ctx context.Context, in Inbound) error {
	if err := r.Users.Delete(ctx, in.ChatID); err != nil {
		return err
	}
	r.Notifier.Notify(ctx, in.ChatID, deletedText, false)
	return nil
}

func (r *Router) handleInCampus(ctx context.Context, in Inbound) error {
	return r.update(ctx, in.ChatID, func(rec domain.UserRecord) domain.UserRecord {
		return domain.WithCampus(rec, true)
	})
}

func (r *Router) handleOutOfCampus(ctx context.Context, in Inbound) error {
	return r.update(ctx, in.ChatID, func(rec domain.UserRecord) domain.UserRecord {
		return domain.WithCampus(rec, false)
	})
}

func (r *Router) handleSchedule(ctx context.Context, _ Inbound) error {
	_, err := r.Sweeper.Sweep(ctx)
	return err
}

func (r *Router) handleLocation(ctx context.Context, in Inbound) error {
	rec, err := r.Users.Get(ctx, in.ChatID)
	if err != nil {
		return err
	}
	place, err := r.Geocoder.Lookup(ctx, *in.Location)
	if err != nil {
		return err
	}
	rec = domain.WithPlace(rec, place)
	if err := r.Users.Put(ctx, rec); err != nil {
		return err
	}
	r.echo(ctx, rec)
	return nil
}
