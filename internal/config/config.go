package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Environment variables read on top of the config file
const (
	EnvToken   = "TOKEN"
	EnvWebhook = "WEBHOOK"
	EnvListen  = "CLIPBOT_LISTEN"
)

// Config holds all application configuration
type Config struct {
	// Storage layout
	VideosDir string `yaml:"videos_dir" toml:"videos_dir"`
	CutDir    string `yaml:"cut_dir" toml:"cut_dir"`

	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
	Fetch    FetchConfig    `yaml:"fetch" toml:"fetch"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg" toml:"ffmpeg"`
	Requests RequestConfig  `yaml:"requests" toml:"requests"`
	Preview  PreviewConfig  `yaml:"preview" toml:"preview"`
	Messages Messages       `yaml:"messages" toml:"messages"`
}

type TelegramConfig struct {
	// Token is only taken from the environment
	Token       string `yaml:"-" toml:"-"`
	WebhookURL  string `yaml:"webhook_url" toml:"webhook_url"`
	Listen      string `yaml:"listen" toml:"listen"`
	PollTimeout int    `yaml:"poll_timeout" toml:"poll_timeout"`
	Debug       bool   `yaml:"debug" toml:"debug"`
}

type FetchConfig struct {
	BinaryPath string        `yaml:"binary_path" toml:"binary_path"`
	Timeout    time.Duration `yaml:"timeout" toml:"timeout"`
	MinHeight  int           `yaml:"min_height" toml:"min_height"`
	Extension  string        `yaml:"extension" toml:"extension"`
}

type FFmpegConfig struct {
	BinaryPath  string        `yaml:"binary_path" toml:"binary_path"`
	ProbePath   string        `yaml:"probe_path" toml:"probe_path"`
	Threads     int           `yaml:"threads" toml:"threads"`
	Preset      string        `yaml:"preset" toml:"preset"`
	CRF         int           `yaml:"crf" toml:"crf"`
	MaxHeight   int           `yaml:"max_height" toml:"max_height"`
	FPS         float64       `yaml:"fps" toml:"fps"`
	TrimTimeout time.Duration `yaml:"trim_timeout" toml:"trim_timeout"`
}

type RequestConfig struct {
	DefaultClip time.Duration `yaml:"default_clip" toml:"default_clip"`
	DefaultGap  time.Duration `yaml:"default_gap" toml:"default_gap"`
	MaxSegments int           `yaml:"max_segments" toml:"max_segments"`
}

type PreviewConfig struct {
	Width uint `yaml:"width" toml:"width"`
}

// Load reads configuration from file or returns defaults, then applies
// .env and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

func loadDotEnv() error {
	// existing environment wins over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvToken); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv(EnvWebhook); v != "" {
		c.Telegram.WebhookURL = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Telegram.Listen = v
	}
}

// Validate checks the settings needed to run the bot
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("bot token is required (set %s)", EnvToken)
	}
	if c.VideosDir == "" || c.CutDir == "" {
		return fmt.Errorf("videos_dir and cut_dir must be set")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		VideosDir: "videos",
		CutDir:    "cut",
		Telegram: TelegramConfig{
			Listen:      "0.0.0.0:8443",
			PollTimeout: 60,
		},
		Fetch: FetchConfig{
			BinaryPath: "yt-dlp",
			Timeout:    5 * time.Minute,
			MinHeight:  360,
			Extension:  "mp4",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:  "ffmpeg",
			ProbePath:   "ffprobe",
			Threads:     0,
			Preset:      "veryfast",
			CRF:         23,
			TrimTimeout: 10 * time.Minute,
		},
		Requests: RequestConfig{
			DefaultClip: 5 * time.Second,
			DefaultGap:  5 * time.Second,
			MaxSegments: 200,
		},
		Preview: PreviewConfig{
			Width: 320,
		},
		Messages: DefaultMessages(),
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		"./config.toml",
		filepath.Join(os.Getenv("HOME"), ".clipbot", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
