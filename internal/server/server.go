// Package server exposes the webhook, health and sweep-trigger endpoints.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/logger"
	"github.com/ykvlv/checkin-bot/internal/scheduler"
	"github.com/ykvlv/checkin-bot/internal/telegram"
)

// SecretHeader is the header Telegram sets when a webhook secret_token is
// configured.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Dispatcher interface {
	Dispatch(ctx context.Context, in telegram.Inbound)
}

type Sweeper interface {
	Sweep(ctx context.Context) (scheduler.Report, error)
}

type Config struct {
	// WebhookSecret, when set, must be the last path segment of the webhook
	// URL or the value of SecretHeader.
	WebhookSecret string
	// SweepToken enables POST /sweep with "Authorization: Bearer <token>".
	SweepToken string
}

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHandler builds the gin engine.
func NewHandler(cfg Config, log *zap.Logger, d Dispatcher, s Sweeper) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(log), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	webhook := []gin.HandlerFunc{}
	if cfg.WebhookSecret != "" {
		webhook = append(webhook, requireWebhookSecret(cfg.WebhookSecret))
	}
	webhook = append(webhook, webhookHandler(d))
	r.POST("/webhook", webhook...)
	r.POST("/webhook/:secret", webhook...)

	if cfg.SweepToken != "" {
		r.POST("/sweep", requireBearer(cfg.SweepToken), sweepHandler(s))
	}
	return r
}

// webhookHandler always answers 200 so Telegram does not redeliver; the
// outcome of the command reaches the user as a chat message.
func webhookHandler(d Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		var upd tgbotapi.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			log.Warn("webhook: bad payload", zap.Error(err))
			c.JSON(http.StatusOK, ack{OK: false, Error: "bad payload"})
			return
		}
		in, err := telegram.FromUpdate(upd)
		if err != nil {
			log.Info("webhook: unsupported update", zap.Int("update_id", upd.UpdateID), zap.Error(err))
			c.JSON(http.StatusOK, ack{OK: false, Error: "unsupported update"})
			return
		}

		d.Dispatch(ctx, in)
		c.JSON(http.StatusOK, ack{OK: true})
	}
}

// sweepHandler finishes the sweep even if the caller hangs up; a half-run
// sweep would report every still-queued user as failed.
func sweepHandler(s Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := s.Sweep(context.WithoutCancel(c.Request.Context()))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "sweep aborted", "report": rep})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "report": rep})
	}
}
