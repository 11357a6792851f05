package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

const (
	// reasonCommentsDisabled is the API error reason for videos with comments turned off.
	reasonCommentsDisabled = "commentsDisabled"

	searchPageSize = 50
)

// Cache size limits to prevent unbounded memory growth
const (
	defaultHandleCacheSize  = 1000
	defaultChannelCacheSize = 1000
	defaultVideoCacheSize   = 10000
)

var errNotConnected = errors.New("YouTube client not connected")

// YouTubeDataClient implements the youtube.YouTubeClient interface for accessing YouTube Data API
type YouTubeDataClient struct {
	service *ytapi.Service
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	logger  zerolog.Logger

	// Lookups that do not change between runs. lru.Cache is safe for concurrent use.
	handleCache       *lru.Cache[string, string] // handle -> channel id
	channelTitleCache *lru.Cache[string, string]
	videoTitleCache   *lru.Cache[string, string]

	// extra options appended when the service is created, tests point these at a fake server
	serviceOptions []option.ClientOption
}

// Option customizes a YouTubeDataClient.
type Option func(*YouTubeDataClient)

// WithLogger sets the logger used by the client.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *YouTubeDataClient) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout for every API request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *YouTubeDataClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRequestsPerSecond paces API calls. Zero or negative means unlimited.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *YouTubeDataClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithServiceOptions appends google API client options to the service.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(c *YouTubeDataClient) {
		c.serviceOptions = append(c.serviceOptions, opts...)
	}
}

// NewYouTubeDataClient creates a new YouTube data client
func NewYouTubeDataClient(apiKey string, opts ...Option) (*YouTubeDataClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	handleCache, err := lru.New[string, string](defaultHandleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle cache: %w", err)
	}
	channelTitleCache, err := lru.New[string, string](defaultChannelCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel cache: %w", err)
	}
	videoTitleCache, err := lru.New[string, string](defaultVideoCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create video cache: %w", err)
	}

	c := &YouTubeDataClient{
		apiKey:            apiKey,
		timeout:           30 * time.Second,
		limiter:           rate.NewLimiter(rate.Inf, 0),
		logger:            zerolog.Nop(),
		handleCache:       handleCache,
		channelTitleCache: channelTitleCache,
		videoTitleCache:   videoTitleCache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect establishes a connection to the YouTube API
func (c *YouTubeDataClient) Connect(ctx context.Context) error {
	c.logger.Info().Msg("Connecting to YouTube API")

	// A custom HTTP client disables option.WithAPIKey, so the key rides on the transport.
	httpClient := &http.Client{
		Timeout:   c.timeout,
		Transport: &transport.APIKey{Key: c.apiKey},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	opts = append(opts, c.serviceOptions...)

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	c.service = service
	c.logger.Info().Msg("Connected to YouTube API successfully")
	return nil
}

// Disconnect closes the connection to the YouTube API
func (c *YouTubeDataClient) Disconnect(ctx context.Context) error {
	// No explicit disconnect needed for the YouTube API client
	c.service = nil
	return nil
}

// ResolveChannelID returns the channel id for a handle. Channel ids pass through.
func (c *YouTubeDataClient) ResolveChannelID(ctx context.Context, ref youtube.ChannelRef) (string, error) {
	if !ref.IsHandle {
		return ref.Value, nil
	}
	handle := "@" + ref.Value
	if id, ok := c.handleCache.Get(strings.ToLower(handle)); ok {
		return id, nil
	}
	if err := c.ready(ctx); err != nil {
		return "", err
	}

	response, err := c.service.Channels.List([]string{"id"}).ForHandle(handle).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", &youtube.FetchError{Op: "channels.list", ID: handle, Err: err}
	}
	if len(response.Items) == 0 {
		return "", &youtube.FetchError{Op: "channels.list", ID: handle, Err: fmt.Errorf("channel not found on YouTube")}
	}

	id := response.Items[0].Id
	c.handleCache.Add(strings.ToLower(handle), id)
	c.logger.Debug().Str("handle", handle).Str("channel_id", id).Msg("Resolved channel handle")
	return id, nil
}

// SearchVideos fetches one page of a channel's search results ordered by publish date
func (c *YouTubeDataClient) SearchVideos(ctx context.Context, channelID string, pageToken youtube.PageToken) (*youtube.VideoPage, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	call := c.service.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		MaxResults(searchPageSize).
		Order("date").
		Context(ctx)
	if pageToken.Present() {
		call = call.PageToken(string(pageToken))
	}

	response, err := call.Do()
	if err != nil {
		return nil, &youtube.FetchError{Op: "search.list", ID: channelID, Err: err}
	}

	page := &youtube.VideoPage{
		Items:         make([]youtube.SearchItem, 0, len(response.Items)),
		NextPageToken: youtube.PageToken(response.NextPageToken),
	}
	for _, item := range response.Items {
		if item.Id == nil {
			continue
		}
		page.Items = append(page.Items, youtube.SearchItem{
			Kind:    item.Id.Kind,
			VideoID: item.Id.VideoId,
		})
	}
	return page, nil
}

// ListCommentThreads fetches one page of top-level comments for a video.
// A video with comments turned off yields *youtube.CommentsDisabledError.
func (c *YouTubeDataClient) ListCommentThreads(ctx context.Context, videoID string, pageToken youtube.PageToken, pageSize int64) (*youtube.CommentPage, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	call := c.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken.Present() {
		call = call.PageToken(string(pageToken))
	}

	response, err := call.Do()
	if err != nil {
		return nil, classifyCommentError(videoID, err)
	}

	page := &youtube.CommentPage{
		Comments:      make([]youtube.Comment, 0, len(response.Items)),
		NextPageToken: youtube.PageToken(response.NextPageToken),
	}
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			c.logger.Warn().Str("video_id", videoID).Str("thread_id", item.Id).Msg("Comment thread without top-level snippet")
			continue
		}
		snippet := item.Snippet.TopLevelComment.Snippet
		page.Comments = append(page.Comments, youtube.Comment{
			ThreadID: item.Id,
			Text:     snippet.TextDisplay,
			Author:   snippet.AuthorDisplayName,
		})
	}
	return page, nil
}

// GetVideoTitle looks up a single video's title
func (c *YouTubeDataClient) GetVideoTitle(ctx context.Context, videoID string) (string, error) {
	if title, ok := c.videoTitleCache.Get(videoID); ok {
		return title, nil
	}
	if err := c.ready(ctx); err != nil {
		return "", err
	}

	response, err := c.service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", &youtube.FetchError{Op: "videos.list", ID: videoID, Err: err}
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return "", &youtube.FetchError{Op: "videos.list", ID: videoID, Err: fmt.Errorf("video not found on YouTube")}
	}
	title := response.Items[0].Snippet.Title
	c.videoTitleCache.Add(videoID, title)
	return title, nil
}

// GetChannelTitle looks up a channel's display title
func (c *YouTubeDataClient) GetChannelTitle(ctx context.Context, channelID string) (string, error) {
	if title, ok := c.channelTitleCache.Get(channelID); ok {
		return title, nil
	}
	if err := c.ready(ctx); err != nil {
		return "", err
	}

	response, err := c.service.Channels.List([]string{"snippet"}).Id(channelID).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", &youtube.FetchError{Op: "channels.list", ID: channelID, Err: err}
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return "", &youtube.FetchError{Op: "channels.list", ID: channelID, Err: fmt.Errorf("channel not found on YouTube")}
	}
	title := response.Items[0].Snippet.Title
	c.channelTitleCache.Add(channelID, title)
	return title, nil
}

// ready checks the connection and waits for the request pacer.
func (c *YouTubeDataClient) ready(ctx context.Context) error {
	if c.service == nil {
		return errNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for request slot: %w", err)
	}
	return nil
}

// classifyCommentError maps an API failure to the harvester's error taxonomy
// using the structured error reason.
func classifyCommentError(videoID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if item.Reason == reasonCommentsDisabled {
				return &youtube.CommentsDisabledError{VideoID: videoID}
			}
		}
	}
	return &youtube.FetchError{Op: "commentThreads.list", ID: videoID, Err: err}
}

var _ youtube.YouTubeClient = (*YouTubeDataClient)(nil)
