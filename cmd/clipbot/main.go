package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/keagan/clipbot/internal/clipper"
	"github.com/keagan/clipbot/internal/config"
	"github.com/keagan/clipbot/internal/ffmpeg"
	"github.com/keagan/clipbot/internal/library"
	"github.com/keagan/clipbot/internal/logging"
	"github.com/keagan/clipbot/internal/timerange"
	"github.com/keagan/clipbot/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool
	logJSON bool
	cutOut  string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipbot",
	Short: "clipbot - cut clips out of online videos from a chat",
	Long:  "A Telegram bot that downloads a video from a URL and sends back the sub-clips you ask for.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose, logJSON)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON lines")

	cutCmd.Flags().StringVarP(&cutOut, "out", "o", "", "output directory (default: cut_dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(cutCmd)
	rootCmd.AddCommand(configCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloaded videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		entries, err := library.New(log.Logger, cfg.VideosDir).List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var total uint64
		for _, e := range entries {
			fmt.Fprintf(out, "%-48s %10s  %s\n", e.Name, e.HumanSize(), humanize.Time(e.ModTime))
			total += uint64(e.Size)
		}
		fmt.Fprintf(out, "%d video(s), %s\n", len(entries), humanize.Bytes(total))
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete downloaded videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		n, err := library.New(log.Logger, cfg.VideosDir).Clean()
		if err != nil {
			return err
		}

		log.Info().Int("removed", n).Str("dir", cfg.VideosDir).Msg("videos cleaned")
		return nil
	},
}

var cutCmd = &cobra.Command{
	Use:   "cut [video] [request...]",
	Short: "Cut clips from a local video using the chat request syntax",
	Example: `  clipbot cut videos/talk.mp4 1:30 1:45
  clipbot cut videos/talk.mp4 - 10s 50s`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		ctx := cmd.Context()
		input := args[0]

		ff, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		duration, err := ff.Duration(ctx, input)
		if err != nil {
			return err
		}

		parser := newParser(cfg)
		ranges, err := parser.Parse(strings.Join(args[1:], " "), duration)
		if err != nil {
			return err
		}
		if parser.Truncated(ranges) {
			log.Warn().Int("segments", len(ranges)).Msg("request truncated")
		}
		if len(ranges) == 0 {
			log.Warn().Dur("duration", duration).Msg("video too short for request")
			return nil
		}

		outDir := cutOut
		if outDir == "" {
			outDir = cfg.CutDir
		}
		if err := util.EnsureDir(outDir); err != nil {
			return err
		}

		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		for i, r := range ranges {
			r = clipper.Clamp(r, duration)
			if r.End <= r.Start {
				continue
			}

			output := filepath.Join(outDir, fmt.Sprintf("%s_%03d.mp4", base, i+1))
			err := ff.Trim(ctx, input, ffmpeg.TrimOptions{
				Start:  r.Start,
				End:    r.End,
				Output: output,
				Filter: clipFilter(cfg),
				CRF:    cfg.FFmpeg.CRF,
				Preset: cfg.FFmpeg.Preset,
				ProgressFunc: func(p *ffmpeg.Progress) {
					log.Debug().Str("time", p.Time).Str("speed", p.Speed).Msg("progress")
				},
			})
			if err != nil {
				return err
			}

			log.Info().Str("output", output).Stringer("range", r).Msg("clip written")
		}

		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
	})
}

func newParser(cfg *config.Config) *timerange.Parser {
	return &timerange.Parser{
		DefaultClip: cfg.Requests.DefaultClip,
		DefaultGap:  cfg.Requests.DefaultGap,
		MaxSegments: cfg.Requests.MaxSegments,
	}
}

func clipFilter(cfg *config.Config) string {
	return ffmpeg.NewFilterBuilder().
		MaxHeight(cfg.FFmpeg.MaxHeight).
		FPS(cfg.FFmpeg.FPS).
		Build()
}
