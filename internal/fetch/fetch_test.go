package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestSelectFormat(t *testing.T) {
	formats := []Format{
		{FormatID: "low", Ext: "mp4", Height: intp(240), TBR: floatp(100)},
		{FormatID: "webm", Ext: "webm", Height: intp(720), TBR: floatp(50)},
		{FormatID: "hd", Ext: "mp4", Height: intp(720), TBR: floatp(2500)},
		{FormatID: "sd", Ext: "mp4", Height: intp(360), TBR: floatp(600)},
		{FormatID: "nobitrate", Ext: "mp4", Height: intp(480)},
		{FormatID: "audio", Ext: "mp4", VCodec: "none", Height: intp(1080), TBR: floatp(1)},
	}

	got, err := SelectFormat(formats, 360, "mp4")
	require.NoError(t, err)
	assert.Equal(t, "sd", got.FormatID)
}

func TestSelectFormatMissingBitrateSortsLast(t *testing.T) {
	formats := []Format{
		{FormatID: "unknown", Ext: "mp4", Height: intp(480)},
		{FormatID: "known", Ext: "mp4", Height: intp(480), TBR: floatp(9000)},
	}

	got, err := SelectFormat(formats, 360, "mp4")
	require.NoError(t, err)
	assert.Equal(t, "known", got.FormatID)
}

func TestSelectFormatNoMatch(t *testing.T) {
	formats := []Format{
		{FormatID: "tiny", Ext: "mp4", Height: intp(144), TBR: floatp(80)},
		{FormatID: "storyboard", Ext: "mhtml"},
	}

	_, err := SelectFormat(formats, 360, "mp4")
	assert.ErrorIs(t, err, ErrNoFormat)
}

func TestParseInfo(t *testing.T) {
	raw := []byte(`{"title": "clip", "duration": 20.5, "thumbnail": "https://img/x.jpg",
		"formats": [{"format_id": "18", "ext": "mp4", "height": 360, "tbr": 500.1}]}`)

	meta, err := parseInfo(raw)
	require.NoError(t, err)
	assert.Equal(t, "clip", meta.Title)
	assert.Equal(t, 20.5, meta.Duration)
	require.Len(t, meta.Formats, 1)
	assert.Equal(t, 360, *meta.Formats[0].Height)

	_, err = parseInfo([]byte(`{"title": "empty", "formats": []}`))
	assert.Error(t, err)

	_, err = parseInfo([]byte(`null garbage`))
	assert.Error(t, err)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "videos/b.mp4", lastLine([]byte("[info] x\nvideos/b.mp4\n\n")))
	assert.Equal(t, "", lastLine(nil))
}

// fakeYtDlp writes a shell script that mimics the two yt-dlp invocations.
func fakeYtDlp(t *testing.T, infoJSON string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}

	dir := t.TempDir()
	script := `#!/bin/sh
for arg in "$@"; do
  if [ "$arg" = "-J" ]; then
    cat <<'JSON'
` + infoJSON + `
JSON
    exit 0
  fi
done
if [ "$1" != "-f" ]; then
  echo "ERROR: unexpected invocation" >&2
  exit 2
fi
out="` + dir + `/out-$2.mp4"
printf 'data' > "$out"
echo "[download] Destination: $out"
echo "$out"
`
	path := filepath.Join(dir, "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestFetchWithFakeBinary(t *testing.T) {
	bin := fakeYtDlp(t, `{"title": "demo", "duration": 20, "thumbnail": "https://example.com/t.jpg",
		"formats": [
			{"format_id": "22", "ext": "mp4", "height": 720, "tbr": 1500},
			{"format_id": "18", "ext": "mp4", "height": 360, "tbr": 400}
		]}`)

	f, err := New(zerolog.Nop(), Options{BinaryPath: bin, OutputDir: t.TempDir()})
	require.NoError(t, err)

	video, err := f.Fetch(context.Background(), "https://example.com/watch?v=1")
	require.NoError(t, err)

	assert.Equal(t, "18", video.FormatID)
	assert.Equal(t, 20*time.Second, video.Duration)
	assert.Equal(t, "https://example.com/t.jpg", video.ThumbnailURL)
	assert.FileExists(t, video.Path)
}

func TestFetchNoMatchingFormat(t *testing.T) {
	bin := fakeYtDlp(t, `{"title": "demo", "duration": 20,
		"formats": [{"format_id": "17", "ext": "3gp", "height": 144, "tbr": 80}]}`)

	f, err := New(zerolog.Nop(), Options{BinaryPath: bin})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://example.com/watch?v=1")
	assert.True(t, errors.Is(err, ErrNoFormat), "got %v", err)
}

func TestFetchHonoursContext(t *testing.T) {
	bin := fakeYtDlp(t, `{}`)
	f, err := New(zerolog.Nop(), Options{BinaryPath: bin})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Fetch(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{BinaryPath: "no-such-yt-dlp-binary"})
	assert.Error(t, err)
}
