// Package library inventories the downloaded videos directory.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keagan/clipbot/internal/logging"
	"github.com/keagan/clipbot/pkg/util"
	"github.com/rs/zerolog"
)

// Go's builtin MIME table knows no video types; system tables may be absent.
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".3gp":  "video/3gpp",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".wmv":  "video/x-ms-wmv",
}

func init() {
	for ext, typ := range videoExtensions {
		if mime.TypeByExtension(ext) == "" {
			_ = mime.AddExtensionType(ext, typ)
		}
	}
}

// IsVideo guesses from the file name whether it holds a video.
func IsVideo(name string) bool {
	return strings.HasPrefix(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))), "video/")
}

// Entry is one video file in the library
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// HumanSize renders the file size like "12 MB"
func (e Entry) HumanSize() string {
	return humanize.Bytes(uint64(e.Size))
}

// Library manages the videos directory
type Library struct {
	logger zerolog.Logger
	dir    string
}

// New creates a library rooted at dir
func New(logger zerolog.Logger, dir string) *Library {
	return &Library{
		logger: logging.WithComponent(logger, "library"),
		dir:    dir,
	}
}

// Ensure creates the directory if needed
func (l *Library) Ensure() error {
	return util.EnsureDir(l.dir)
}

// List returns the video files sorted by name. A missing directory is empty.
func (l *Library) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", l.dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !IsVideo(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(l.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Clean removes every video file, ignoring files that cannot be removed.
// It returns how many files are gone.
func (l *Library) Clean() (int, error) {
	entries, err := l.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if util.RemoveBestEffort(e.Path) {
			removed++
			continue
		}
		l.logger.Warn().Str("file", e.Path).Msg("could not remove video")
	}

	l.logger.Info().Int("removed", removed).Int("total", len(entries)).Msg("library cleaned")
	return removed, nil
}
