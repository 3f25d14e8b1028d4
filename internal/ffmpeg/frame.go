package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/clipbot/pkg/util"
)

// ExtractFrame writes the single frame at the given offset as an image.
// The output format follows the file extension (.jpg, .png).
func (e *Executor) ExtractFrame(ctx context.Context, input string, at time.Duration, output string) error {
	if at < 0 {
		at = 0
	}

	e.logger.Debug().
		Str("input", input).
		Dur("at", at).
		Str("output", output).
		Msg("extracting frame")

	opts := RunOptions{
		Args: []string{
			"-ss", util.FormatDuration(at),
			"-i", input,
			"-frames:v", "1",
			"-q:v", "3",
			output,
		},
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}
	return nil
}
