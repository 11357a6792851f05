package bot

import (
	"context"

	"github.com/researchaccelerator-hub/comment-harvester/crawler"
	ytcrawler "github.com/researchaccelerator-hub/comment-harvester/crawler/youtube"
	"github.com/researchaccelerator-hub/comment-harvester/export"
	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/stretchr/testify/mock"
)

// MockDelivery is a mock implementation of the Delivery interface.
type MockDelivery struct {
	mock.Mock
}

func (m *MockDelivery) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockDelivery) SendDocument(ctx context.Context, chatID int64, path, name string) error {
	args := m.Called(ctx, chatID, path, name)
	return args.Error(0)
}

// MockHarvester is a mock implementation of the Harvester interface.
type MockHarvester struct {
	mock.Mock
}

func (m *MockHarvester) Harvest(ctx context.Context, ref youtube.ChannelRef, opts crawler.Options, notifier ytcrawler.Notifier) (*ytcrawler.HarvestResult, error) {
	args := m.Called(ctx, ref, opts, notifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ytcrawler.HarvestResult), args.Error(1)
}

// MockExporter is a mock implementation of the Exporter interface.
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(runID, name string, records []youtube.CommentRecord) (*export.Artifact, error) {
	args := m.Called(runID, name, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Artifact), args.Error(1)
}
