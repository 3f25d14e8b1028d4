package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/keagan/clipbot/internal/conversation"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Handler consumes inbound messages
type Handler interface {
	Handle(ctx context.Context, msg conversation.Message)
}

// Run receives updates until ctx is cancelled. A configured webhook URL
// selects webhook mode; otherwise updates are long polled.
func (b *Bot) Run(ctx context.Context, handler Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	l := newLanes(handler.Handle)
	defer l.wait()
	defer cancel()

	if b.opts.WebhookURL != "" {
		return b.serveWebhook(ctx, l)
	}
	return b.poll(ctx, l)
}

func (b *Bot) poll(ctx context.Context, l *lanes) error {
	// Telegram refuses getUpdates while a webhook is registered
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Int("timeout", u.Timeout).Msg("started polling")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info().Msg("stopped polling")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			b.route(ctx, l, upd)
		}
	}
}

func (b *Bot) serveWebhook(ctx context.Context, l *lanes) error {
	link := strings.TrimSuffix(b.opts.WebhookURL, "/") + "/" + b.opts.Token
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	server := &http.Server{
		Addr:              b.opts.Listen,
		Handler:           b.webhookHandler(ctx, l),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.logger.Info().Str("listen", b.opts.Listen).Msg("webhook server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.logger.Info().Msg("shutting down webhook server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// webhookHandler serves POST /<token>. The path acts as the shared secret.
func (b *Bot) webhookHandler(ctx context.Context, l *lanes) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/"+b.opts.Token, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		upd, err := b.api.HandleUpdate(r)
		if err != nil {
			b.logger.Warn().Err(err).Msg("bad webhook payload")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		b.route(ctx, l, *upd)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (b *Bot) route(ctx context.Context, l *lanes, upd tgbotapi.Update) {
	msg, ok := toMessage(upd)
	if !ok {
		b.logger.Debug().Int("update_id", upd.UpdateID).Msg("ignored update")
		return
	}

	b.logger.Debug().
		Int("update_id", upd.UpdateID).
		Int64("chat_id", msg.ChatID).
		Str("request", msg.RequestID).
		Msg("update received")

	l.dispatch(ctx, msg)

	if n := l.pending(msg.ChatID); n >= backlogWarn {
		b.logger.Warn().Int64("chat_id", msg.ChatID).Int("pending", n).Msg("chat backlog growing")
	}
}
