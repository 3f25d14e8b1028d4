package clipper

import (
	"context"
	"errors"
	"time"

	"github.com/keagan/clipbot/internal/ffmpeg"
	"github.com/keagan/clipbot/internal/fetch"
	"github.com/keagan/clipbot/internal/timerange"
)

var (
	// ErrFetchFailed wraps every reason a URL could not become a local video.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrSessionMissing means a clip request arrived for a chat with no video.
	ErrSessionMissing = errors.New("no active video for chat")
)

// Fetcher resolves a URL to a downloaded file
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Video, error)
}

// Trimmer cuts a video-only sub-clip
type Trimmer interface {
	Trim(ctx context.Context, input string, opts ffmpeg.TrimOptions) error
}

// Prober measures a local file when the fetcher reports no duration
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Previewer renders a still image when the page offers no thumbnail
type Previewer interface {
	Render(ctx context.Context, video string, duration time.Duration, output string) error
}

// ClipSink receives the trimmed clips, typically uploading them.
type ClipSink interface {
	Clip(ctx context.Context, index int, r timerange.Range, path string) error
	Finished(ctx context.Context, count int) error
}

// Thumbnail points at a preview image, either remote or local.
type Thumbnail struct {
	URL  string
	Path string
}

// IsZero reports whether no preview is available
func (t Thumbnail) IsZero() bool {
	return t.URL == "" && t.Path == ""
}

// DownloadResult describes a successful download.
type DownloadResult struct {
	Title     string
	Path      string
	Duration  time.Duration
	Thumbnail Thumbnail
}

// Config holds orchestration settings
type Config struct {
	CutDir       string
	FetchTimeout time.Duration
	TrimTimeout  time.Duration
	Filter       string
	CRF          int
	Preset       string
}
