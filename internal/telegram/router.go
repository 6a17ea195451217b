package telegram

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/domain"
	"github.com/ykvlv/checkin-bot/internal/logger"
	"github.com/ykvlv/checkin-bot/internal/portal"
	"github.com/ykvlv/checkin-bot/internal/scheduler"
)

type Users interface {
	Get(ctx context.Context, chatID int64) (domain.UserRecord, error)
	Put(ctx context.Context, r domain.UserRecord) error
	Delete(ctx context.Context, chatID int64) error
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (portal.Session, error)
}

type Checkiner interface {
	Checkin(ctx context.Context, r domain.UserRecord) (string, error)
}

type Geocoder interface {
	Lookup(ctx context.Context, loc domain.Location) (domain.Place, error)
}

type Sweeper interface {
	Sweep(ctx context.Context) (scheduler.Report, error)
}

type MessageNotifier interface {
	Notify(ctx context.Context, chatID int64, text string, formatted bool)
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Users    Users
	Auth     Authenticator
	Runner   Checkiner
	Geocoder Geocoder
	Sweeper  Sweeper
	Notifier MessageNotifier
}

// Intent is one row of the dispatch table.
type Intent struct {
	Name string
	// Prefix is the command prefix for text intents, empty otherwise.
	Prefix string
	match  func(in Inbound) bool
	handle func(r *Router, ctx context.Context, in Inbound) error
}

func command(prefix string, h func(*Router, context.Context, Inbound) error) Intent {
	return Intent{
		Name:   prefix,
		Prefix: prefix,
		match: func(in Inbound) bool {
			return in.Location == nil && strings.HasPrefix(in.Text, prefix)
		},
		handle: h,
	}
}

// intents is evaluated top to bottom and the first match wins. A prefix must
// come before any shorter prefix of itself (/checkin_at before /checkin).
var intents = []Intent{
	{
		Name:   "location",
		match:  func(in Inbound) bool { return in.Location != nil },
		handle: (*Router).handleLocation,
	},
	command("/start", (*Router).handleStart),
	command("/login", (*Router).handleLogin),
	command("/checkin_at", (*Router).handleCheckinAt),
	command("/checkin", (*Router).handleCheckin),
	command("/info", (*Router).handleInfo),
	command("/skip", (*Router).handleSkip),
	command("/no_skip", (*Router).handleNoSkip),
	command("/delete", (*Router).handleDelete),
	command("/in_campus", (*Router).handleInCampus),
	command("/out_of_campus", (*Router).handleOutOfCampus),
	command("/schedule", (*Router).handleSchedule),
}

// Intents returns the dispatch table in priority order.
func Intents() []Intent {
	out := make([]Intent, len(intents))
	copy(out, intents)
	return out
}

// Router interprets inbound messages. It keeps no per-chat state; everything
// lives in Users.
type Router struct {
	Deps
	now func() time.Time
}

func NewRouter(d Deps) *Router {
	return &Router{Deps: d, now: time.Now}
}

// Match returns the intent that handles in, or false for the default handler.
func Match(in Inbound) (Intent, bool) {
	for _, it := range intents {
		if it.match(in) {
			return it, true
		}
	}
	return Intent{}, false
}

// Dispatch handles one message. Failures are reported to the chat, never
// returned.
func (r *Router) Dispatch(ctx context.Context, in Inbound) {
	ctx = logger.With(ctx, zap.Int64("chat_id", in.ChatID))
	log := logger.FromContext(ctx)

	it, ok := Match(in)
	if !ok {
		log.Debug("unrecognized command", zap.String("text", in.Text))
		err := &domain.Error{Kind: domain.KindUnrecognizedCommand, ChatID: in.ChatID, Command: in.Text}
		r.Notifier.Notify(ctx, in.ChatID, domain.Describe(err)+"\n\n"+helpText, false)
		return
	}

	log.Debug("dispatch", zap.String("intent", it.Name))
	if err := it.handle(r, ctx, in); err != nil {
		if _, isDomain := domain.KindOf(err); isDomain {
			log.Info("command failed", zap.String("intent", it.Name), zap.Error(err))
		} else {
			log.Error("command failed", zap.String("intent", it.Name), zap.Error(err))
		}
		r.Notifier.Notify(ctx, in.ChatID, domain.Describe(err), false)
	}
}
