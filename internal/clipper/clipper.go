// Package clipper sequences the fetch and trim collaborators for a chat and
// keeps the chat's session in step with the results.
package clipper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/keagan/clipbot/internal/ffmpeg"
	"github.com/keagan/clipbot/internal/logging"
	"github.com/keagan/clipbot/internal/session"
	"github.com/keagan/clipbot/internal/timerange"
	"github.com/keagan/clipbot/pkg/util"
	"github.com/rs/zerolog"
)

// Orchestrator drives downloads and trims for all chats
type Orchestrator struct {
	logger    zerolog.Logger
	config    Config
	store     session.Store
	fetcher   Fetcher
	trimmer   Trimmer
	prober    Prober
	previewer Previewer
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithProber measures files whose duration the fetcher did not report.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithPreviewer renders previews for pages without a thumbnail.
func WithPreviewer(p Previewer) Option {
	return func(o *Orchestrator) { o.previewer = p }
}

// New creates an orchestrator
func New(logger zerolog.Logger, cfg Config, store session.Store, fetcher Fetcher, trimmer Trimmer, opts ...Option) *Orchestrator {
	if cfg.CutDir == "" {
		cfg.CutDir = "cut"
	}

	o := &Orchestrator{
		logger:  logging.WithComponent(logger, "clipper"),
		config:  cfg,
		store:   store,
		fetcher: fetcher,
		trimmer: trimmer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OutputPath is where every clip for the chat is written; each cut
// overwrites the previous one.
func (o *Orchestrator) OutputPath(chatID int64) string {
	return filepath.Join(o.config.CutDir, strconv.FormatInt(chatID, 10)+".mp4")
}

func (o *Orchestrator) previewPath(chatID int64) string {
	return filepath.Join(o.config.CutDir, strconv.FormatInt(chatID, 10)+"_preview.jpg")
}

// RequestDownload fetches url and makes it the chat's active video. On
// failure the chat's existing session, if any, is left untouched.
func (o *Orchestrator) RequestDownload(ctx context.Context, chatID int64, url string) (DownloadResult, error) {
	logger := o.logger.With().Int64("chat_id", chatID).Str("url", url).Logger()
	started := time.Now()

	fetchCtx := ctx
	if o.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, o.config.FetchTimeout)
		defer cancel()
	}

	video, err := o.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Dur("timeout", o.config.FetchTimeout).Msg("download timed out")
		} else {
			logger.Warn().Err(err).Msg("download failed")
		}
		return DownloadResult{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	duration := video.Duration
	if duration <= 0 && o.prober != nil {
		if duration, err = o.prober.Duration(ctx, video.Path); err != nil {
			logger.Warn().Err(err).Str("path", video.Path).Msg("probe failed")
		}
	}
	if duration <= 0 {
		return DownloadResult{}, fmt.Errorf("%w: unknown duration for %s", ErrFetchFailed, video.Path)
	}

	result := DownloadResult{
		Title:     video.Title,
		Path:      video.Path,
		Duration:  duration,
		Thumbnail: Thumbnail{URL: video.ThumbnailURL},
	}

	if result.Thumbnail.IsZero() && o.previewer != nil {
		preview := o.previewPath(chatID)
		if err := util.EnsureDir(o.config.CutDir); err != nil {
			logger.Warn().Err(err).Msg("cut dir unavailable")
		} else if err := o.previewer.Render(ctx, video.Path, duration, preview); err != nil {
			logger.Warn().Err(err).Msg("preview rendering failed")
		} else {
			result.Thumbnail.Path = preview
		}
	}

	o.store.Put(chatID, session.Video{Path: video.Path, Duration: duration})

	logger.Info().
		Str("path", result.Path).
		Dur("duration", result.Duration).
		Dur("elapsed", time.Since(started)).
		Msg("video ready")

	return result, nil
}

// Session returns the chat's active video
func (o *Orchestrator) Session(chatID int64) (session.Video, error) {
	video, ok := o.store.Get(chatID)
	if !ok {
		return session.Video{}, ErrSessionMissing
	}
	return video, nil
}

// RequestTrim cuts each range out of the chat's video and hands the result
// to sink. Ranges are clamped to the video; ranges that end up empty are
// skipped. Finished is only called when more than one clip was delivered.
func (o *Orchestrator) RequestTrim(ctx context.Context, chatID int64, ranges []timerange.Range, sink ClipSink) (int, error) {
	video, err := o.Session(chatID)
	if err != nil {
		return 0, err
	}

	if err := util.EnsureDir(o.config.CutDir); err != nil {
		return 0, fmt.Errorf("failed to create cut dir: %w", err)
	}

	logger := o.logger.With().Int64("chat_id", chatID).Str("video", video.Path).Logger()
	output := o.OutputPath(chatID)
	processed := 0

	for i, requested := range ranges {
		r := Clamp(requested, video.Duration)
		if r.End <= r.Start {
			logger.Warn().Stringer("range", requested).Dur("duration", video.Duration).Msg("range outside video, skipped")
			continue
		}

		if err := o.trim(ctx, video.Path, output, r); err != nil {
			return processed, fmt.Errorf("trim %s: %w", r, err)
		}

		if err := sink.Clip(ctx, i, r, output); err != nil {
			return processed, fmt.Errorf("deliver clip %s: %w", r, err)
		}
		processed++

		logger.Debug().Int("idx", i).Stringer("range", r).Msg("clip delivered")
	}

	if processed > 1 {
		if err := sink.Finished(ctx, processed); err != nil {
			return processed, fmt.Errorf("completion notice: %w", err)
		}
	}

	logger.Info().Int("requested", len(ranges)).Int("processed", processed).Msg("trim request complete")
	return processed, nil
}

func (o *Orchestrator) trim(ctx context.Context, input, output string, r timerange.Range) error {
	if o.config.TrimTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.TrimTimeout)
		defer cancel()
	}

	return o.trimmer.Trim(ctx, input, ffmpeg.TrimOptions{
		Start:  r.Start,
		End:    r.End,
		Output: output,
		Filter: o.config.Filter,
		CRF:    o.config.CRF,
		Preset: o.config.Preset,
	})
}

// Release ends the chat's session and deletes its video file. Filesystem
// errors during deletion are ignored.
func (o *Orchestrator) Release(chatID int64) (session.Video, bool) {
	video, ok := o.store.Delete(chatID)
	if !ok {
		return session.Video{}, false
	}

	if !util.RemoveBestEffort(video.Path) {
		o.logger.Debug().Str("path", video.Path).Msg("video file left in place")
	}
	util.CleanupFiles(o.previewPath(chatID))

	o.logger.Info().Int64("chat_id", chatID).Str("path", video.Path).Msg("session released")
	return video, true
}

// Forget ends the chat's session but keeps the file for /list and /clean.
func (o *Orchestrator) Forget(chatID int64) {
	if _, ok := o.store.Delete(chatID); ok {
		o.logger.Debug().Int64("chat_id", chatID).Msg("session forgotten")
	}
}

// Clamp restricts r to [0, duration].
func Clamp(r timerange.Range, duration time.Duration) timerange.Range {
	return timerange.Range{
		Start: clamp(r.Start, 0, duration),
		End:   clamp(r.End, 0, duration),
	}
}

func clamp(v, lo, hi time.Duration) time.Duration {
	return max(lo, min(v, hi))
}
