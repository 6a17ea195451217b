// Package checkin performs one full portal check-in for a user.
package checkin

import (
	"context"

	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/domain"
	"github.com/ykvlv/checkin-bot/internal/logger"
	"github.com/ykvlv/checkin-bot/internal/portal"
)

// Portal is the subset of the portal client a check-in needs.
type Portal interface {
	Authenticate(ctx context.Context, username, password string) (portal.Session, error)
	SubmitCheckin(ctx context.Context, s portal.Session, d portal.Declaration) (string, error)
}

type Runner struct {
	portal Portal
}

func NewRunner(p Portal) *Runner {
	return &Runner{portal: p}
}

// Checkin logs in with a fresh session and submits r's declaration,
// returning the portal's message.
func (r *Runner) Checkin(ctx context.Context, rec domain.UserRecord) (string, error) {
	log := logger.FromContext(ctx).With(zap.Int64("chat_id", rec.ChatID))

	s, err := r.portal.Authenticate(ctx, rec.Username, rec.Password)
	if err != nil {
		log.Warn("checkin login failed", zap.Error(err))
		return "", err
	}
	msg, err := r.portal.SubmitCheckin(ctx, s, portal.DeclarationFor(rec))
	if err != nil {
		log.Warn("checkin submit failed", zap.Error(err))
		return "", err
	}
	log.Info("checkin done", zap.String("result", msg))
	return msg, nil
}
