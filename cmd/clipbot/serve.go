package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/keagan/clipbot/internal/clipper"
	"github.com/keagan/clipbot/internal/config"
	"github.com/keagan/clipbot/internal/conversation"
	"github.com/keagan/clipbot/internal/fetch"
	"github.com/keagan/clipbot/internal/library"
	"github.com/keagan/clipbot/internal/preview"
	"github.com/keagan/clipbot/internal/session"
	"github.com/keagan/clipbot/internal/telegram"
	"github.com/keagan/clipbot/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long:  "Run the bot. Updates are long polled unless WEBHOOK is set, in which case a webhook server listens on CLIPBOT_LISTEN.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.Logger

		ff, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		fetcher, err := fetch.New(logger, fetch.Options{
			BinaryPath: cfg.Fetch.BinaryPath,
			OutputDir:  cfg.VideosDir,
			MinHeight:  cfg.Fetch.MinHeight,
			Extension:  cfg.Fetch.Extension,
		})
		if err != nil {
			return err
		}

		lib := library.New(logger, cfg.VideosDir)
		if err := lib.Ensure(); err != nil {
			return err
		}
		if err := util.EnsureDir(cfg.CutDir); err != nil {
			return err
		}

		clips := clipper.New(logger, clipper.Config{
			CutDir:       cfg.CutDir,
			FetchTimeout: cfg.Fetch.Timeout,
			TrimTimeout:  cfg.FFmpeg.TrimTimeout,
			Filter:       clipFilter(cfg),
			CRF:          cfg.FFmpeg.CRF,
			Preset:       cfg.FFmpeg.Preset,
		}, session.NewMemoryStore(), fetcher, ff,
			clipper.WithProber(ff),
			clipper.WithPreviewer(preview.New(logger, ff, cfg.Preview.Width)),
		)

		bot, err := telegram.New(logger, telegram.Options{
			Token:       cfg.Telegram.Token,
			WebhookURL:  cfg.Telegram.WebhookURL,
			Listen:      cfg.Telegram.Listen,
			PollTimeout: cfg.Telegram.PollTimeout,
			Debug:       cfg.Telegram.Debug,
		})
		if err != nil {
			return err
		}

		machine, err := conversation.New(logger, bot, clips, lib, newParser(cfg), cfg.Messages)
		if err != nil {
			return err
		}

		log.Info().
			Str("videos", cfg.VideosDir).
			Str("cut", cfg.CutDir).
			Bool("webhook", cfg.Telegram.WebhookURL != "").
			Msg("clipbot starting")

		return bot.Run(ctx, machine)
	},
}
