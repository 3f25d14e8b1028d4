// Package fetch resolves a video page URL to a downloaded local file using
// yt-dlp.
package fetch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/keagan/clipbot/internal/logging"
	"github.com/rs/zerolog"
)

// Options configures the downloader
type Options struct {
	BinaryPath string
	OutputDir  string
	MinHeight  int
	Extension  string
}

// Video is a successfully downloaded file.
type Video struct {
	Title        string
	Path         string
	Duration     time.Duration
	ThumbnailURL string
	FormatID     string
}

// Fetcher wraps the yt-dlp binary
type Fetcher struct {
	logger zerolog.Logger
	binary string
	opts   Options
}

// New creates a fetcher, resolving the binary from PATH.
func New(logger zerolog.Logger, opts Options) (*Fetcher, error) {
	name := opts.BinaryPath
	if name == "" {
		name = "yt-dlp"
	}
	binary, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "videos"
	}
	if opts.MinHeight == 0 {
		opts.MinHeight = 360
	}
	if opts.Extension == "" {
		opts.Extension = "mp4"
	}

	return &Fetcher{
		logger: logging.WithComponent(logger, "fetch"),
		binary: binary,
		opts:   opts,
	}, nil
}

// Fetch inspects the URL, selects an encoding and downloads it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Video, error) {
	f.logger.Info().Str("url", url).Msg("resolving video")

	raw, err := f.run(ctx, "-J", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return nil, fmt.Errorf("failed to extract info: %w", err)
	}

	meta, err := parseInfo(raw)
	if err != nil {
		return nil, err
	}

	format, err := SelectFormat(meta.Formats, f.opts.MinHeight, f.opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("%s (min height %d, %s): %w", url, f.opts.MinHeight, f.opts.Extension, err)
	}

	f.logger.Info().
		Str("title", meta.Title).
		Str("format", format.FormatID).
		Float64("duration", meta.Duration).
		Msg("downloading video")

	out, err := f.run(ctx,
		"-f", format.FormatID,
		"--no-playlist",
		"--no-overwrites",
		"--no-warnings",
		"-o", filepath.Join(f.opts.OutputDir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	path := lastLine(out)
	if path == "" {
		return nil, fmt.Errorf("download finished without a file path")
	}

	video := &Video{
		Title:        meta.Title,
		Path:         path,
		Duration:     time.Duration(meta.Duration * float64(time.Second)),
		ThumbnailURL: meta.Thumbnail,
		FormatID:     format.FormatID,
	}

	f.logger.Info().Str("path", video.Path).Dur("duration", video.Duration).Msg("download complete")
	return video, nil
}

func (f *Fetcher) run(ctx context.Context, args ...string) ([]byte, error) {
	f.logger.Debug().Strs("args", args).Msg("executing yt-dlp")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := lastLine(stderr.Bytes()); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// info is the subset of yt-dlp's -J output we rely on
type info struct {
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []Format `json:"formats"`
}

func parseInfo(raw []byte) (*info, error) {
	var meta info
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if len(meta.Formats) == 0 {
		return nil, fmt.Errorf("no formats in extractor output")
	}
	return &meta, nil
}

func lastLine(b []byte) string {
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	return last
}
