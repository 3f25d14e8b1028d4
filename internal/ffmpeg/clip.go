package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/keagan/clipbot/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	CopyCodec    bool // If true, use -c copy for fast extraction
	NoAudio      bool
	VideoCodec   string
	AudioCodec   string
	CRF          int // Quality (0-51, lower = better)
	Preset       string
	Filter       string // -vf chain, ignored with CopyCodec
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Bool("copy_codec", opts.CopyCodec).
		Bool("no_audio", opts.NoAudio).
		Msg("extracting clip")

	args := []string{
		"-ss", util.FormatDuration(opts.Start),
		"-i", input,
		"-t", util.FormatDuration(duration),
	}

	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		if opts.Filter != "" {
			args = append(args, "-vf", opts.Filter)
		}

		codec := opts.VideoCodec
		if codec == "" {
			codec = DefaultVideoCodec
		}
		crf := opts.CRF
		if crf == 0 {
			crf = DefaultCRF
		}
		preset := opts.Preset
		if preset == "" {
			preset = DefaultPreset
		}
		args = append(args,
			"-c:v", codec,
			"-crf", strconv.Itoa(crf),
			"-preset", preset,
			"-pix_fmt", "yuv420p",
		)

		if !opts.NoAudio {
			audioCodec := opts.AudioCodec
			if audioCodec == "" {
				audioCodec = DefaultAudioCodec
			}
			args = append(args, "-c:a", audioCodec)
		}
	}

	if opts.NoAudio {
		args = append(args, "-an")
	}

	args = append(args, "-movflags", "+faststart", opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}

// TrimOptions defines trimming parameters
type TrimOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	Filter       string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// Trim writes a re-encoded, video-only copy of [Start, End) to Output.
func (e *Executor) Trim(ctx context.Context, input string, opts TrimOptions) error {
	return e.ExtractClip(ctx, input, ClipOptions{
		Start:        opts.Start,
		End:          opts.End,
		Output:       opts.Output,
		NoAudio:      true,
		CRF:          opts.CRF,
		Preset:       opts.Preset,
		Filter:       opts.Filter,
		ProgressFunc: opts.ProgressFunc,
	})
}
