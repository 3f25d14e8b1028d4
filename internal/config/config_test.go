package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray config.yaml or .env leaks in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvToken, "")
	t.Setenv(EnvWebhook, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "videos", cfg.VideosDir)
	assert.Equal(t, "cut", cfg.CutDir)
	assert.Equal(t, 5*time.Minute, cfg.Fetch.Timeout)
	assert.Equal(t, 360, cfg.Fetch.MinHeight)
	assert.Equal(t, "mp4", cfg.Fetch.Extension)
	assert.Equal(t, 5*time.Second, cfg.Requests.DefaultClip)
	assert.Empty(t, cfg.Telegram.WebhookURL)
	assert.Equal(t, DefaultMessages(), cfg.Messages)
}

func TestLoadYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
videos_dir: /data/videos
fetch:
  timeout: 90s
  min_height: 480
requests:
  default_gap: 2s
messages:
  start: "send a link"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/videos", cfg.VideosDir)
	assert.Equal(t, "cut", cfg.CutDir)
	assert.Equal(t, 90*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 480, cfg.Fetch.MinHeight)
	assert.Equal(t, 2*time.Second, cfg.Requests.DefaultGap)
	assert.Equal(t, "send a link", cfg.Messages.Start)
	assert.Equal(t, DefaultMessages().Finished, cfg.Messages.Finished)
}

func TestLoadTOML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
cut_dir = "/tmp/cuts"

[ffmpeg]
threads = 2
max_height = 480

[fetch]
timeout = "2m"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cuts", cfg.CutDir)
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
	assert.Equal(t, 480, cfg.FFmpeg.MaxHeight)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t)
	t.Setenv(EnvToken, "123:abc")
	t.Setenv(EnvWebhook, "https://bot.example.com")
	t.Setenv(EnvListen, ":9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "https://bot.example.com", cfg.Telegram.WebhookURL)
	assert.Equal(t, ":9000", cfg.Telegram.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv(EnvToken, "")
	os.Unsetenv(EnvToken)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TOKEN=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(EnvToken) })

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Telegram.Token)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "token missing")

	cfg.Telegram.Token = "t"
	assert.NoError(t, cfg.Validate())

	cfg.Fetch.Timeout = 0
	assert.Error(t, cfg.Validate())
}

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.VideosDir = "elsewhere"

	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, "videos", FromContext(context.Background()).VideosDir)
}

func TestMessagesWithDefaults(t *testing.T) {
	m := Messages{Start: "hi"}.WithDefaults()
	assert.Equal(t, "hi", m.Start)
	assert.Equal(t, DefaultMessages().NotStarted, m.NotStarted)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := chdir(t)
	cfg := Default()
	cfg.FFmpeg.FPS = 15
	path := filepath.Join(dir, "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, loaded.FFmpeg.FPS)
	assert.Equal(t, cfg.Fetch.Timeout, loaded.Fetch.Timeout)
}
