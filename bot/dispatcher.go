package bot

import (
	"context"
	"errors"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/researchaccelerator-hub/comment-harvester/common"
	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	ytcrawler "github.com/researchaccelerator-hub/comment-harvester/crawler/youtube"
	"github.com/researchaccelerator-hub/comment-harvester/export"
	"github.com/researchaccelerator-hub/comment-harvester/metrics"
	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Delivery sends replies back to a chat.
type Delivery interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, path, name string) error
}

// Harvester collects comments for a channel.
type Harvester interface {
	Harvest(ctx context.Context, ref youtube.ChannelRef, opts crawler.Options, notifier ytcrawler.Notifier) (*ytcrawler.HarvestResult, error)
}

// Exporter turns harvested records into a file artifact.
type Exporter interface {
	Export(runID, name string, records []youtube.CommentRecord) (*export.Artifact, error)
}

// Run outcomes recorded in metrics.
const (
	outcomeOK          = "ok"
	outcomeInvalidLink = "invalid_link"
	outcomeNoVideos    = "no_videos"
	outcomeNoComments  = "no_comments"
	outcomeExportError = "export_error"
	outcomeDelivery    = "delivery_error"
	outcomeError       = "error"
)

// Dispatcher is the run boundary: every message is handled to completion and
// every failure ends as a chat reply, never as a process crash.
type Dispatcher struct {
	harvester Harvester
	exporter  Exporter
	delivery  Delivery
	logger    zerolog.Logger
	runs      *semaphore.Weighted
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher running at most maxConcurrentRuns harvests at once.
func NewDispatcher(harvester Harvester, exporter Exporter, delivery Delivery, logger zerolog.Logger, maxConcurrentRuns int) *Dispatcher {
	if maxConcurrentRuns < 1 {
		maxConcurrentRuns = 1
	}
	return &Dispatcher{
		harvester: harvester,
		exporter:  exporter,
		delivery:  delivery,
		logger:    logger,
		runs:      semaphore.NewWeighted(int64(maxConcurrentRuns)),
	}
}

// Dispatch handles msg on its own goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, msg IncomingMessage) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.HandleMessage(ctx, msg)
	}()
}

// Wait blocks until every dispatched message has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// HandleMessage handles one message synchronously.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg IncomingMessage) {
	logger := d.logger.With().Int64("chat_id", msg.ChatID).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Recovered from panic while handling message")
			d.reply(ctx, logger, msg.ChatID, msgGenericError)
		}
	}()

	cmd := ParseCommand(msg.Text)
	logger.Info().Stringer("command", cmd).Str("text", msg.Text).Msg("Received message")

	switch cmd.Name {
	case CommandStart, CommandHelp:
		d.reply(ctx, logger, msg.ChatID, msgGreeting)
	case CommandComments:
		d.runHarvest(ctx, logger, msg.ChatID, msg.Text, crawler.StrictOptions())
	case CommandParse:
		if len(cmd.Args) == 0 {
			d.reply(ctx, logger, msg.ChatID, msgParseUsage)
			return
		}
		d.runHarvest(ctx, logger, msg.ChatID, cmd.Args[0], crawler.ResilientOptions())
	case "":
		d.runHarvest(ctx, logger, msg.ChatID, msg.Text, crawler.StrictOptions())
	default:
		d.reply(ctx, logger, msg.ChatID, msgGreeting)
	}
}

func (d *Dispatcher) runHarvest(ctx context.Context, logger zerolog.Logger, chatID int64, link string, opts crawler.Options) {
	runID := common.GenerateRunID()
	logger = logger.With().Str("run_id", runID).Str("mode", opts.Mode).Logger()
	started := time.Now()
	outcome := outcomeError
	defer func() {
		metrics.ObserveRun(opts.Mode, outcome, started)
		logger.Info().Str("outcome", outcome).Dur("duration", time.Since(started)).Msg("Run finished")
	}()

	ref, err := common.ParseChannelRef(link)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid YouTube channel link received")
		outcome = outcomeInvalidLink
		d.reply(ctx, logger, chatID, msgInvalidLink)
		return
	}
	logger = logger.With().Str("channel", ref.String()).Logger()
	logger.Info().Msg("Extracted channel reference")

	if !d.runs.TryAcquire(1) {
		d.reply(ctx, logger, chatID, msgQueued)
		if err := d.runs.Acquire(ctx, 1); err != nil {
			logger.Warn().Err(err).Msg("Gave up waiting for a run slot")
			return
		}
	}
	defer d.runs.Release(1)

	if opts.StopAtCommentCap {
		d.reply(ctx, logger, chatID, msgResilientStart)
	} else {
		d.reply(ctx, logger, chatID, msgStrictStarted)
	}

	notifier := &chatNotifier{dispatcher: d, chatID: chatID, logger: logger}
	result, err := d.harvester.Harvest(ctx, ref, opts, notifier)
	if err != nil {
		outcome = d.replyHarvestError(ctx, logger, chatID, opts, err)
		return
	}

	name := result.ArtifactName(export.CSVExtension)
	logger.Info().Str("file", name).Int("count", len(result.Records)).Msg("Saving comments to file")
	artifact, err := d.exporter.Export(runID, name, result.Records)
	if err != nil {
		exportErr := &ExportError{Name: name, Err: err}
		logger.Error().Err(exportErr).Msg("Error saving comments to file")
		outcome = outcomeExportError
		d.reply(ctx, logger, chatID, msgExportFailed)
		return
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			logger.Warn().Err(err).Str("file", artifact.Path).Msg("Failed to release export file")
		}
	}()

	if err := d.deliver(ctx, logger, chatID, artifact); err != nil {
		outcome = outcomeDelivery
		var deliveryErr *DeliveryError
		if errors.As(err, &deliveryErr) && deliveryErr.Missing {
			d.reply(ctx, logger, chatID, msgFileMissing(artifact.Name))
		} else {
			d.reply(ctx, logger, chatID, msgSendFailed(artifact.Name))
		}
		return
	}
	outcome = outcomeOK
}

// replyHarvestError maps a harvest failure to the user message and returns the run outcome.
func (d *Dispatcher) replyHarvestError(ctx context.Context, logger zerolog.Logger, chatID int64, opts crawler.Options, err error) string {
	var (
		noVideos   *youtube.NoVideosFoundError
		noComments *youtube.NoCommentsCollectedError
	)
	switch {
	case errors.As(err, &noVideos):
		logger.Warn().Err(err).Msg("No videos found")
		d.reply(ctx, logger, chatID, msgNoVideos)
		return outcomeNoVideos
	case errors.As(err, &noComments):
		logger.Warn().Err(err).Msg("No comments collected")
		if opts.Policy == crawler.SkipOnError {
			d.reply(ctx, logger, chatID, msgNoVideoComments)
		} else {
			d.reply(ctx, logger, chatID, msgNoComments)
		}
		return outcomeNoComments
	default:
		logger.Error().Err(err).Msg("Harvest failed")
		d.reply(ctx, logger, chatID, msgGenericError)
		return outcomeError
	}
}

func (d *Dispatcher) deliver(ctx context.Context, logger zerolog.Logger, chatID int64, artifact *export.Artifact) error {
	if _, err := os.Stat(artifact.Path); err != nil {
		deliveryErr := &DeliveryError{Name: artifact.Name, Missing: errors.Is(err, os.ErrNotExist), Err: err}
		logger.Error().Err(deliveryErr).Str("file", artifact.Path).Msg("File not found")
		return deliveryErr
	}

	logger.Info().Str("file", artifact.Name).Msg("Attempting to send file")
	if err := d.delivery.SendDocument(ctx, chatID, artifact.Path, artifact.Name); err != nil {
		deliveryErr := &DeliveryError{Name: artifact.Name, Err: err}
		logger.Error().Err(deliveryErr).Msg("Error sending file")
		return deliveryErr
	}
	logger.Info().Str("file", artifact.Name).Msg("File successfully sent")
	return nil
}

func (d *Dispatcher) reply(ctx context.Context, logger zerolog.Logger, chatID int64, text string) {
	if err := d.delivery.SendText(ctx, chatID, text); err != nil {
		logger.Error().Err(err).Msg("Failed to send reply")
	}
}

// chatNotifier relays per-video skips and failures to the chat.
type chatNotifier struct {
	dispatcher *Dispatcher
	chatID     int64
	logger     zerolog.Logger
}

func (n *chatNotifier) VideoStarted(ctx context.Context, video youtube.VideoRef) {
	n.logger.Info().Str("video_id", video.ID).Str("title", video.Title).Msg("Fetching comments for video")
}

func (n *chatNotifier) VideoSkipped(ctx context.Context, video youtube.VideoRef, err error) {
	n.dispatcher.reply(ctx, n.logger, n.chatID, msgCommentsDisabled(video.ID))
}

func (n *chatNotifier) VideoFailed(ctx context.Context, video youtube.VideoRef, err error) {
	n.dispatcher.reply(ctx, n.logger, n.chatID, msgVideoFailed(video.ID))
}

var _ ytcrawler.Notifier = (*chatNotifier)(nil)

