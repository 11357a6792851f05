package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/researchaccelerator-hub/comment-harvester/bot"
	"github.com/researchaccelerator-hub/comment-harvester/client"
	"github.com/researchaccelerator-hub/comment-harvester/common"
	"github.com/researchaccelerator-hub/comment-harvester/config"
	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	ytcrawler "github.com/researchaccelerator-hub/comment-harvester/crawler/youtube"
	"github.com/researchaccelerator-hub/comment-harvester/export"
	"github.com/researchaccelerator-hub/comment-harvester/metrics"
	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/researchaccelerator-hub/comment-harvester/telegramhelper"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile string
	v          *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "comment-harvester",
	Short: "Collect top-level comments from a YouTube channel's videos into a CSV file",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v = config.New(configFile)
		if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
			return err
		}
		if err := v.BindPFlag("log_format", cmd.Flags().Lookup("log-format")); err != nil {
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [link]",
	Short: "Harvest one or more channels from the terminal and write CSV files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHarvestCmd,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default: search ./config.yaml, ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console or json)")

	harvestCmd.Flags().String("mode", "strict", "Harvest mode: strict (latest 5 videos, abort on error) or resilient (all videos, skip failures)")
	harvestCmd.Flags().String("out", ".", "Directory to write CSV files into")
	harvestCmd.Flags().String("url-file", "", "File with one channel link per line")

	rootCmd.AddCommand(serveCmd, harvestCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration and configures the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level, format string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "console", "":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	default:
		return fmt.Errorf("invalid log format %q, expected console or json", format)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Str("work_dir", cfg.WorkDir).Msg("Starting comment harvester bot")

	ytClient, err := client.NewDefaultClientFactory(log.Logger).CreateClient(ctx, cfg.YouTube)
	if err != nil {
		return err
	}
	defer ytClient.Disconnect(context.Background())

	tgBot, err := telegramhelper.NewBot(telegramhelper.BotConfig{
		Token:       cfg.Telegram.Token,
		APIID:       cfg.Telegram.APIID,
		APIHash:     cfg.Telegram.APIHash,
		StorageRoot: cfg.StorageRoot,
		SendTimeout: cfg.SendTimeout,
	}, log.Logger.With().Str("component", "telegram").Logger())
	if err != nil {
		log.Error().Err(err).Msg("Failed to start Telegram bot")
		return err
	}
	defer tgBot.Close()

	cleaner := telegramhelper.NewFileCleaner(cfg.WorkDir, cfg.Cleanup.Interval, cfg.Cleanup.MaxAge, log.Logger.With().Str("component", "file_cleaner").Logger())
	if err := cleaner.Start(); err != nil {
		return err
	}
	defer cleaner.Stop()

	dispatcher := bot.NewDispatcher(
		ytcrawler.NewHarvester(ytClient, log.Logger.With().Str("component", "harvester").Logger()),
		export.NewCSVExporter(cfg.WorkDir, log.Logger),
		tgBot,
		log.Logger.With().Str("component", "dispatcher").Logger(),
		cfg.MaxConcurrentRuns,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tgBot.Run(gctx, dispatcher.Dispatch)
	})
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.MetricsAddr, log.Logger)
	})

	err = g.Wait()
	log.Info().Msg("Waiting for in-flight runs to finish")
	dispatcher.Wait()
	if err != nil {
		log.Error().Err(err).Msg("Bot stopped with error")
		return err
	}
	log.Info().Msg("Bot stopped")
	return nil
}

func runHarvestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateHarvest(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	mode, _ := cmd.Flags().GetString("mode")
	outDir, _ := cmd.Flags().GetString("out")
	urlFile, _ := cmd.Flags().GetString("url-file")

	opts, ok := crawler.OptionsForMode(mode)
	if !ok {
		return fmt.Errorf("unknown mode %q, expected strict or resilient", mode)
	}

	links, err := collectLinks(args, urlFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ytClient, err := client.NewDefaultClientFactory(log.Logger).CreateClient(ctx, cfg.YouTube)
	if err != nil {
		return err
	}
	defer ytClient.Disconnect(context.Background())

	harvester := ytcrawler.NewHarvester(ytClient, log.Logger.With().Str("component", "harvester").Logger())

	var failed int
	for _, link := range links {
		if err := harvestToFile(ctx, harvester, link, opts, outDir); err != nil {
			log.Error().Err(err).Str("link", link).Msg("Harvest failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d harvests failed", failed, len(links))
	}
	return nil
}

// collectLinks merges the positional link with links from urlFile.
func collectLinks(args []string, urlFile string) ([]string, error) {
	links := append([]string{}, args...)
	if urlFile != "" {
		fromFile, err := common.ReadURLsFromFile(urlFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read URL file: %w", err)
		}
		links = append(links, fromFile...)
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("a channel link or --url-file is required")
	}
	return links, nil
}

func harvestToFile(ctx context.Context, harvester *ytcrawler.Harvester, link string, opts crawler.Options, outDir string) error {
	runID := common.GenerateRunID()
	logger := log.Logger.With().Str("run_id", runID).Str("mode", opts.Mode).Logger()
	started := time.Now()

	ref, err := common.ParseChannelRef(link)
	if err != nil {
		metrics.ObserveRun(opts.Mode, "invalid_link", started)
		return err
	}

	result, err := harvester.Harvest(ctx, ref, opts, logNotifier{logger: logger})
	if err != nil {
		metrics.ObserveRun(opts.Mode, "error", started)
		return err
	}

	path := filepath.Join(outDir, result.ArtifactName(export.CSVExtension))
	if err := export.WriteCSVFile(path, result.Records); err != nil {
		metrics.ObserveRun(opts.Mode, "export_error", started)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	metrics.ObserveRun(opts.Mode, "ok", started)

	logger.Info().
		Str("file", path).
		Int("comments", len(result.Records)).
		Int("videos_processed", result.VideosProcessed).
		Int("videos_skipped", result.VideosSkipped).
		Int("videos_failed", result.VideosFailed).
		Dur("duration", time.Since(started)).
		Msg("Comments saved")
	return nil
}

// logNotifier reports per-video events to the log instead of a chat.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) VideoStarted(ctx context.Context, video youtubemodel.VideoRef) {
	n.logger.Info().Str("video_id", video.ID).Str("title", video.Title).Msg("Fetching comments for video")
}

func (n logNotifier) VideoSkipped(ctx context.Context, video youtubemodel.VideoRef, err error) {
	n.logger.Warn().Err(err).Str("video_id", video.ID).Msg("Comments are disabled, skipping video")
}

func (n logNotifier) VideoFailed(ctx context.Context, video youtubemodel.VideoRef, err error) {
	n.logger.Warn().Err(err).Str("video_id", video.ID).Msg("Failed to fetch comments, skipping video")
}
