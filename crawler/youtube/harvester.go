package youtube

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	"github.com/researchaccelerator-hub/comment-harvester/metrics"
	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
)

// Notifier receives per-video progress of a run, e.g. to relay it to a chat.
type Notifier interface {
	VideoStarted(ctx context.Context, video youtubemodel.VideoRef)
	VideoSkipped(ctx context.Context, video youtubemodel.VideoRef, err error)
	VideoFailed(ctx context.Context, video youtubemodel.VideoRef, err error)
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

func (NopNotifier) VideoStarted(context.Context, youtubemodel.VideoRef)        {}
func (NopNotifier) VideoSkipped(context.Context, youtubemodel.VideoRef, error) {}
func (NopNotifier) VideoFailed(context.Context, youtubemodel.VideoRef, error)  {}

// HarvestResult is the aggregated outcome of one run.
type HarvestResult struct {
	Channel      youtubemodel.ChannelRef
	ChannelID    string
	ChannelTitle string
	// Records are in discovery order: video order, then page order.
	Records []youtubemodel.CommentRecord

	VideosListed    int
	VideosProcessed int
	VideosSkipped   int
	VideosFailed    int
}

// maxFileNameBytes is the usual NAME_MAX of Linux and macOS file systems.
const maxFileNameBytes = 255

// ArtifactName is the export file name: {channelTitle}_comments_{channelId}{ext}.
// The title is shortened so the whole name fits in maxFileNameBytes.
func (r *HarvestResult) ArtifactName(ext string) string {
	suffix := fmt.Sprintf("_comments_%s%s", sanitizeFileComponent(r.ChannelID), ext)
	title := truncateUTF8(sanitizeFileComponent(r.ChannelTitle), maxFileNameBytes-len(suffix))
	return title + suffix
}

// Harvester drives the lister and the paginator for one channel.
type Harvester struct {
	source youtubemodel.DataSource
	logger zerolog.Logger
}

// NewHarvester creates a harvester reading from source.
func NewHarvester(source youtubemodel.DataSource, logger zerolog.Logger) *Harvester {
	return &Harvester{source: source, logger: logger}
}

// Harvest collects comments from the channel's most recent videos.
//
// With crawler.AbortOnError the first failing video ends the run with that
// error. With crawler.SkipOnError failing videos are reported to notifier and
// skipped. The aggregate never exceeds opts.MaxComments records.
func (h *Harvester) Harvest(ctx context.Context, ref youtubemodel.ChannelRef, opts crawler.Options, notifier Notifier) (*HarvestResult, error) {
	opts = opts.Normalize()
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := h.logger.With().Str("channel", ref.String()).Str("policy", opts.Policy.String()).Logger()

	lister := NewVideoLister(h.source, logger)
	channelID, videos := lister.ListVideos(ctx, ref, opts.MaxVideos)
	if len(videos) == 0 {
		logger.Warn().Msg("No videos found for channel")
		return nil, &youtubemodel.NoVideosFoundError{Channel: ref}
	}

	result := &HarvestResult{
		Channel:      ref,
		ChannelID:    channelID,
		VideosListed: len(videos),
	}
	paginator := NewCommentPaginator(h.source, logger, opts.MaxCommentsPerVideo)

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.StopAtCommentCap && len(result.Records) >= opts.MaxComments {
			logger.Info().Int("count", len(result.Records)).Msg("Comment cap reached, not processing further videos")
			break
		}

		records, err := h.harvestVideo(ctx, paginator, video, notifier)
		if err != nil {
			if opts.Policy == crawler.AbortOnError {
				outcome := metrics.VideoFailed
				if youtubemodel.IsCommentsDisabled(err) {
					outcome = metrics.VideoSkipped
				}
				metrics.Videos.WithLabelValues(outcome).Inc()
				logger.Error().Err(err).Str("video_id", video.ID).Msg("Aborting harvest")
				return nil, fmt.Errorf("harvest aborted at video %s: %w", video.ID, err)
			}
			if youtubemodel.IsCommentsDisabled(err) {
				result.VideosSkipped++
				metrics.Videos.WithLabelValues(metrics.VideoSkipped).Inc()
				logger.Warn().Str("video_id", video.ID).Msg("Comments are disabled for video, skipping")
				notifier.VideoSkipped(ctx, video, err)
				continue
			}
			result.VideosFailed++
			metrics.Videos.WithLabelValues(metrics.VideoFailed).Inc()
			logger.Error().Err(err).Str("video_id", video.ID).Msg("Error fetching comments for video")
			notifier.VideoFailed(ctx, video, err)
			continue
		}

		result.VideosProcessed++
		metrics.Videos.WithLabelValues(metrics.VideoProcessed).Inc()
		result.Records = append(result.Records, records...)
		logger.Info().Str("video_id", video.ID).Int("count", len(records)).Int("total", len(result.Records)).Msg("Fetched comments for video")
	}

	if len(result.Records) == 0 {
		return nil, &youtubemodel.NoCommentsCollectedError{Channel: ref}
	}
	if len(result.Records) > opts.MaxComments {
		result.Records = result.Records[:opts.MaxComments]
	}
	metrics.CommentsCollected.Add(float64(len(result.Records)))

	result.ChannelTitle = h.channelTitle(ctx, logger, channelID)
	return result, nil
}

// harvestVideo resolves the video title and collects its comments.
func (h *Harvester) harvestVideo(ctx context.Context, paginator *CommentPaginator, video youtubemodel.VideoRef, notifier Notifier) ([]youtubemodel.CommentRecord, error) {
	title, err := h.source.GetVideoTitle(ctx, video.ID)
	if err != nil {
		return nil, asFetchError(video.ID, err)
	}
	video.Title = title
	notifier.VideoStarted(ctx, video)

	return paginator.ListComments(ctx, video)
}

// channelTitle looks the title up once; the channel id stands in when the lookup fails.
func (h *Harvester) channelTitle(ctx context.Context, logger zerolog.Logger, channelID string) string {
	title, err := h.source.GetChannelTitle(ctx, channelID)
	if err != nil || strings.TrimSpace(title) == "" {
		logger.Warn().Err(err).Str("channel_id", channelID).Msg("Could not resolve channel title, using channel id")
		return channelID
	}
	return title
}

// sanitizeFileComponent replaces characters that cannot appear in a file name.
func sanitizeFileComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, s)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > n {
			break
		}
		cut += size
	}
	return s[:cut]
}
