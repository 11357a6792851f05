package youtube

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
)

// MockYouTubeSource is an in-memory DataSource. Videos are served newest
// first in pages of videoPageSize; comments in pages of the requested size.
type MockYouTubeSource struct {
	mu sync.Mutex

	channelID     string
	channelTitle  string
	channelErr    error
	resolveErr    error
	videos        []string
	videoPageSize int
	searchErr     error
	nonVideoItems bool

	comments   map[string][]youtubemodel.Comment
	disabled   map[string]bool
	commentErr map[string]error
	titleErr   map[string]error
	// stuckToken makes every comment page return the same next token
	stuckToken bool

	searchCalls  int
	commentCalls map[string]int
	titleCalls   map[string]int
}

func newMockSource(channelID string) *MockYouTubeSource {
	return &MockYouTubeSource{
		channelID:     channelID,
		channelTitle:  "Test Channel",
		videoPageSize: 50,
		comments:      make(map[string][]youtubemodel.Comment),
		disabled:      make(map[string]bool),
		commentErr:    make(map[string]error),
		titleErr:      make(map[string]error),
		commentCalls:  make(map[string]int),
		titleCalls:    make(map[string]int),
	}
}

// addVideo appends a video with n generated comments.
func (m *MockYouTubeSource) addVideo(id string, n int) {
	m.videos = append(m.videos, id)
	comments := make([]youtubemodel.Comment, n)
	for i := range comments {
		comments[i] = youtubemodel.Comment{
			ThreadID: fmt.Sprintf("%s-t%d", id, i),
			Text:     fmt.Sprintf("comment %d on %s", i, id),
			Author:   fmt.Sprintf("author%d", i),
		}
	}
	m.comments[id] = comments
}

func (m *MockYouTubeSource) ResolveChannelID(ctx context.Context, ref youtubemodel.ChannelRef) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return m.channelID, nil
}

func (m *MockYouTubeSource) SearchVideos(ctx context.Context, channelID string, pageToken youtubemodel.PageToken) (*youtubemodel.VideoPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++

	if m.searchErr != nil {
		return nil, m.searchErr
	}

	start := 0
	if pageToken.Present() {
		var err error
		if start, err = strconv.Atoi(string(pageToken)); err != nil {
			return nil, errors.New("bad page token")
		}
	}
	end := start + m.videoPageSize
	if end > len(m.videos) {
		end = len(m.videos)
	}

	page := &youtubemodel.VideoPage{}
	if m.nonVideoItems {
		page.Items = append(page.Items,
			youtubemodel.SearchItem{Kind: "youtube#playlist"},
			youtubemodel.SearchItem{Kind: "youtube#channel"},
		)
	}
	for _, id := range m.videos[start:end] {
		page.Items = append(page.Items, youtubemodel.SearchItem{Kind: youtubemodel.VideoKind, VideoID: id})
	}
	if end < len(m.videos) {
		page.NextPageToken = youtubemodel.PageToken(strconv.Itoa(end))
	}
	return page, nil
}

func (m *MockYouTubeSource) ListCommentThreads(ctx context.Context, videoID string, pageToken youtubemodel.PageToken, pageSize int64) (*youtubemodel.CommentPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentCalls[videoID]++

	if m.disabled[videoID] {
		return nil, &youtubemodel.CommentsDisabledError{VideoID: videoID}
	}
	if err := m.commentErr[videoID]; err != nil {
		return nil, err
	}

	all := m.comments[videoID]
	start := 0
	if pageToken.Present() && !m.stuckToken {
		var err error
		if start, err = strconv.Atoi(string(pageToken)); err != nil {
			return nil, errors.New("bad page token")
		}
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}

	page := &youtubemodel.CommentPage{Comments: append([]youtubemodel.Comment(nil), all[start:end]...)}
	switch {
	case m.stuckToken:
		page.NextPageToken = "same"
	case end < len(all):
		page.NextPageToken = youtubemodel.PageToken(strconv.Itoa(end))
	}
	return page, nil
}

func (m *MockYouTubeSource) GetVideoTitle(ctx context.Context, videoID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titleCalls[videoID]++

	if err := m.titleErr[videoID]; err != nil {
		return "", err
	}
	return "Title " + videoID, nil
}

func (m *MockYouTubeSource) GetChannelTitle(ctx context.Context, channelID string) (string, error) {
	if m.channelErr != nil {
		return "", m.channelErr
	}
	return m.channelTitle, nil
}

var _ youtubemodel.DataSource = (*MockYouTubeSource)(nil)
