// Package youtube implements comment harvesting for YouTube channels
package youtube

import (
	"context"

	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	"github.com/researchaccelerator-hub/comment-harvester/metrics"
	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
)

// VideoLister discovers a channel's videos, most recent first.
type VideoLister struct {
	source youtubemodel.DataSource
	logger zerolog.Logger
}

// NewVideoLister creates a lister backed by source.
func NewVideoLister(source youtubemodel.DataSource, logger zerolog.Logger) *VideoLister {
	return &VideoLister{source: source, logger: logger}
}

// ListVideos returns the resolved channel id and up to maxVideos video refs.
//
// Failures are logged and produce an empty list so the caller can answer the
// user with "no videos found" instead of an error. The channel id is empty
// when the reference could not be resolved.
func (l *VideoLister) ListVideos(ctx context.Context, ref youtubemodel.ChannelRef, maxVideos int) (string, []youtubemodel.VideoRef) {
	if maxVideos <= 0 || maxVideos > crawler.MaxVideosPerChannel {
		maxVideos = crawler.MaxVideosPerChannel
	}

	channelID, err := l.source.ResolveChannelID(ctx, ref)
	if err != nil {
		l.logger.Error().Err(err).Str("channel", ref.String()).Msg("Failed to resolve channel")
		return "", nil
	}

	logger := l.logger.With().Str("channel_id", channelID).Logger()

	var (
		videos []youtubemodel.VideoRef
		token  youtubemodel.PageToken
		page   int
	)
	for len(videos) < maxVideos {
		page++
		resp, err := l.source.SearchVideos(ctx, channelID, token)
		if err != nil {
			logger.Error().Err(err).Int("page", page).Msg("Error fetching videos for channel")
			return channelID, nil
		}
		metrics.PagesFetched.WithLabelValues(metrics.StreamVideos).Inc()

		for _, item := range resp.Items {
			if item.Kind != youtubemodel.VideoKind || item.VideoID == "" {
				continue
			}
			videos = append(videos, youtubemodel.VideoRef{ID: item.VideoID})
		}
		logger.Debug().Int("page", page).Int("count", len(resp.Items)).Msg("Fetched video page")

		if !resp.NextPageToken.Present() {
			break
		}
		if resp.NextPageToken == token {
			logger.Warn().Int("page", page).Msg("Video listing returned the same page token twice, stopping")
			break
		}
		token = resp.NextPageToken
	}

	if len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}

	logger.Info().Int("video_count", len(videos)).Msg("Total video IDs fetched")
	return channelID, videos
}
