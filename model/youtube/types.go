// Package youtube contains YouTube-specific data models
package youtube

import (
	"context"
)

// VideoKind is the search result kind of a playable video. Playlists and
// channels can show up in channel search results too.
const VideoKind = "youtube#video"

// PageToken is an opaque continuation cursor returned by a paginated query.
// It is only ever checked for presence and handed back to the same stream.
type PageToken string

// Present reports whether there is another page to fetch.
func (t PageToken) Present() bool {
	return t != ""
}

// ChannelRef identifies a channel either by id (UC...) or by handle (@name).
type ChannelRef struct {
	Value    string
	IsHandle bool
}

// String renders the reference the way a user would type it.
func (r ChannelRef) String() string {
	if r.IsHandle {
		return "@" + r.Value
	}
	return r.Value
}

// VideoRef is a video discovered on a channel. Title is empty until resolved.
type VideoRef struct {
	ID    string
	Title string
}

// CommentRecord is one exported row.
type CommentRecord struct {
	Text       string
	VideoTitle string
	Author     string
}

// SearchItem is a single entry of a channel search page.
type SearchItem struct {
	Kind    string
	VideoID string
}

// VideoPage is one page of channel search results.
type VideoPage struct {
	Items         []SearchItem
	NextPageToken PageToken
}

// Comment is a top-level comment as returned by the comment-threads listing.
type Comment struct {
	ThreadID string
	Text     string
	Author   string
}

// CommentPage is one page of top-level comments for a video.
type CommentPage struct {
	Comments      []Comment
	NextPageToken PageToken
}

// YouTubeClient defines the methods needed for YouTube API operations
type YouTubeClient interface {
	// Connect establishes a connection to the YouTube API
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the YouTube API
	Disconnect(ctx context.Context) error

	DataSource
}

// DataSource is the read side of the YouTube API used by the harvester.
type DataSource interface {
	// ResolveChannelID turns a handle into a channel id. Ids are returned unchanged.
	ResolveChannelID(ctx context.Context, ref ChannelRef) (string, error)

	// SearchVideos returns one page of the channel's uploads, newest first.
	SearchVideos(ctx context.Context, channelID string, pageToken PageToken) (*VideoPage, error)

	// ListCommentThreads returns one page of top-level comments for a video.
	ListCommentThreads(ctx context.Context, videoID string, pageToken PageToken, pageSize int64) (*CommentPage, error)

	// GetVideoTitle looks up the title of a single video.
	GetVideoTitle(ctx context.Context, videoID string) (string, error)

	// GetChannelTitle looks up the display title of a channel.
	GetChannelTitle(ctx context.Context, channelID string) (string, error)
}
