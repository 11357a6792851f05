package youtube

import (
	"context"
	"errors"

	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	"github.com/researchaccelerator-hub/comment-harvester/metrics"
	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
)

// commentPageSize is the largest page commentThreads.list serves.
const commentPageSize = 100

// CommentPaginator walks the top-level comment threads of a single video.
type CommentPaginator struct {
	source      youtubemodel.DataSource
	logger      zerolog.Logger
	maxPerVideo int
}

// NewCommentPaginator creates a paginator collecting at most maxPerVideo comments per video.
func NewCommentPaginator(source youtubemodel.DataSource, logger zerolog.Logger, maxPerVideo int) *CommentPaginator {
	if maxPerVideo <= 0 || maxPerVideo > crawler.MaxCommentsPerVideo {
		maxPerVideo = crawler.MaxCommentsPerVideo
	}
	return &CommentPaginator{source: source, logger: logger, maxPerVideo: maxPerVideo}
}

// ListComments collects the video's top-level comments in upstream order.
// It returns *youtubemodel.CommentsDisabledError when comments are off and
// *youtubemodel.FetchError for everything else.
func (p *CommentPaginator) ListComments(ctx context.Context, video youtubemodel.VideoRef) ([]youtubemodel.CommentRecord, error) {
	logger := p.logger.With().Str("video_id", video.ID).Logger()

	var (
		records []youtubemodel.CommentRecord
		token   youtubemodel.PageToken
		page    int
	)
	seen := make(map[string]struct{})

	for len(records) < p.maxPerVideo {
		page++
		logger.Debug().Int("page", page).Msg("Fetching comment page")

		resp, err := p.source.ListCommentThreads(ctx, video.ID, token, commentPageSize)
		if err != nil {
			logger.Error().Err(err).Int("page", page).Msg("Error fetching comments for video")
			return nil, asFetchError(video.ID, err)
		}
		metrics.PagesFetched.WithLabelValues(metrics.StreamComments).Inc()

		for _, comment := range resp.Comments {
			if comment.ThreadID != "" {
				if _, dup := seen[comment.ThreadID]; dup {
					continue
				}
				seen[comment.ThreadID] = struct{}{}
			}
			records = append(records, youtubemodel.CommentRecord{
				Text:       comment.Text,
				VideoTitle: video.Title,
				Author:     comment.Author,
			})
			if len(records) >= p.maxPerVideo {
				break
			}
		}
		logger.Info().Int("page", page).Int("count", len(resp.Comments)).Msg("Fetched comment page")

		if !resp.NextPageToken.Present() {
			break
		}
		if resp.NextPageToken == token {
			logger.Warn().Int("page", page).Msg("Comment listing returned the same page token twice, stopping")
			break
		}
		token = resp.NextPageToken
	}

	logger.Info().Int("count", len(records)).Msg("Total comments fetched for video")
	return records, nil
}

// asFetchError keeps classified errors intact and wraps anything else.
func asFetchError(videoID string, err error) error {
	var disabled *youtubemodel.CommentsDisabledError
	var fetch *youtubemodel.FetchError
	if errors.As(err, &disabled) || errors.As(err, &fetch) {
		return err
	}
	return &youtubemodel.FetchError{Op: "commentThreads.list", ID: videoID, Err: err}
}
