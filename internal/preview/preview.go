// Package preview renders a small still image for a downloaded video when
// the source page offers no thumbnail.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/keagan/clipbot/internal/logging"
	"github.com/keagan/clipbot/pkg/util"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// DefaultWidth is the preview width in pixels.
const DefaultWidth = 320

// FrameExtractor grabs a single frame from a video.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, input string, at time.Duration, output string) error
}

// Renderer produces resized JPEG previews
type Renderer struct {
	logger  zerolog.Logger
	frames  FrameExtractor
	width   uint
	quality int
}

// New creates a renderer. A zero width uses DefaultWidth.
func New(logger zerolog.Logger, frames FrameExtractor, width uint) *Renderer {
	if width == 0 {
		width = DefaultWidth
	}
	return &Renderer{
		logger:  logging.WithComponent(logger, "preview"),
		frames:  frames,
		width:   width,
		quality: 85,
	}
}

// Render writes a preview of the frame at 10% of duration to output.
func (r *Renderer) Render(ctx context.Context, video string, duration time.Duration, output string) error {
	if err := util.EnsureDir(filepath.Dir(output)); err != nil {
		return err
	}

	raw, err := util.TempFile("", "clipbot-frame-", ".png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	rawPath := raw.Name()
	_ = raw.Close()
	defer util.CleanupFiles(rawPath)

	if err := r.frames.ExtractFrame(ctx, video, duration/10, rawPath); err != nil {
		return err
	}

	img, err := decode(rawPath)
	if err != nil {
		return err
	}

	if err := r.writeResized(img, output); err != nil {
		return err
	}

	r.logger.Debug().Str("video", video).Str("output", output).Msg("preview rendered")
	return nil
}

func (r *Renderer) writeResized(img image.Image, output string) error {
	if uint(img.Bounds().Dx()) > r.width {
		// height 0 keeps the aspect ratio
		img = resize.Resize(r.width, 0, img, resize.Lanczos3)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return file.Close()
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
