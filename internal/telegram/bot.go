// Package telegram connects the conversation machine to the Telegram Bot
// API, by long polling or by webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/keagan/clipbot/internal/clipper"
	"github.com/keagan/clipbot/internal/logging"
	"github.com/rs/zerolog"
)

// Options configures the bot
type Options struct {
	Token       string
	WebhookURL  string
	Listen      string
	PollTimeout int
	Debug       bool

	// APIEndpoint and Client override the Bot API server, mainly for tests.
	APIEndpoint string
	Client      tgbotapi.HTTPClient
}

// Bot is the Telegram transport. It implements conversation.Sender.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger zerolog.Logger
	opts   Options
}

// New authenticates against the Bot API
func New(logger zerolog.Logger, opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("telegram: token is required")
	}
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	if opts.Listen == "" {
		opts.Listen = "0.0.0.0:8443"
	}

	logger = logging.WithComponent(logger, "telegram")
	if err := tgbotapi.SetLogger(botLogger{logger: logger}); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.APIEndpoint, opts.Client)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize: %w", err)
	}
	api.Debug = opts.Debug

	logger.Info().Str("username", api.Self.UserName).Msg("authorized")

	return &Bot{api: api, logger: logger, opts: opts}, nil
}

// Username is the bot's account name
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) SendPhoto(ctx context.Context, chatID int64, photo clipper.Thumbnail, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var file tgbotapi.RequestFileData
	switch {
	case photo.URL != "":
		file = tgbotapi.FileURL(photo.URL)
	case photo.Path != "":
		file = tgbotapi.FilePath(photo.Path)
	default:
		return errors.New("send photo: no image")
	}

	msg := tgbotapi.NewPhoto(chatID, file)
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (b *Bot) SendAnimation(ctx context.Context, chatID int64, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo)); err != nil {
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("chat action failed")
	}

	msg := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(path))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send animation: %w", err)
	}
	return nil
}

// botLogger routes the library's log output through zerolog
type botLogger struct {
	logger zerolog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprint(v...))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
