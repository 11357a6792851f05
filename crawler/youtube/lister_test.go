package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"

	youtubemodel "github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoListerListVideos(t *testing.T) {
	tests := []struct {
		name       string
		videoCount int
		pageSize   int
		max        int
		wantCount  int
		wantPages  int
	}{
		{name: "fewer videos than max", videoCount: 3, pageSize: 50, max: 5, wantCount: 3, wantPages: 1},
		{name: "truncated to max", videoCount: 7, pageSize: 50, max: 5, wantCount: 5, wantPages: 1},
		{name: "stops paging once max is reached", videoCount: 120, pageSize: 50, max: 60, wantCount: 60, wantPages: 2},
		{name: "pages through everything", videoCount: 120, pageSize: 50, max: 5000, wantCount: 120, wantPages: 3},
		{name: "non-positive max means the hard limit", videoCount: 10, pageSize: 4, max: 0, wantCount: 10, wantPages: 3},
		{name: "hard limit cuts long channels", videoCount: 5050, pageSize: 50, max: 0, wantCount: 5000, wantPages: 100},
		{name: "empty channel", videoCount: 0, pageSize: 50, max: 5, wantCount: 0, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newMockSource("UC123")
			source.videoPageSize = tt.pageSize
			for i := 0; i < tt.videoCount; i++ {
				source.addVideo(fmt.Sprintf("v%03d", i), 0)
			}

			lister := NewVideoLister(source, zerolog.Nop())
			channelID, videos := lister.ListVideos(context.Background(), youtubemodel.ChannelRef{Value: "UC123"}, tt.max)

			assert.Equal(t, "UC123", channelID)
			assert.Len(t, videos, tt.wantCount)
			assert.Equal(t, tt.wantPages, source.searchCalls)
			if tt.wantCount > 0 {
				assert.Equal(t, "v000", videos[0].ID, "most recent video comes first")
			}
		})
	}
}

func TestVideoListerSkipsNonVideoItems(t *testing.T) {
	source := newMockSource("UC123")
	source.nonVideoItems = true
	source.addVideo("a", 0)
	source.addVideo("b", 0)

	_, videos := NewVideoLister(source, zerolog.Nop()).ListVideos(context.Background(), youtubemodel.ChannelRef{Value: "UC123"}, 5)

	require.Len(t, videos, 2)
	assert.Equal(t, "a", videos[0].ID)
	assert.Equal(t, "b", videos[1].ID)
	assert.Empty(t, videos[0].Title, "titles are resolved later")
}

func TestVideoListerSoftFailures(t *testing.T) {
	t.Run("search error yields empty list", func(t *testing.T) {
		source := newMockSource("UC123")
		source.addVideo("a", 0)
		source.searchErr = errors.New("quota exceeded")

		channelID, videos := NewVideoLister(source, zerolog.Nop()).ListVideos(context.Background(), youtubemodel.ChannelRef{Value: "UC123"}, 5)
		assert.Equal(t, "UC123", channelID)
		assert.Empty(t, videos)
	})

	t.Run("unresolvable handle yields empty list", func(t *testing.T) {
		source := newMockSource("UC123")
		source.resolveErr = errors.New("channel not found")

		channelID, videos := NewVideoLister(source, zerolog.Nop()).ListVideos(context.Background(), youtubemodel.ChannelRef{Value: "ghost", IsHandle: true}, 5)
		assert.Empty(t, channelID)
		assert.Empty(t, videos)
		assert.Zero(t, source.searchCalls)
	})
}
