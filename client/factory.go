package client

import (
	"context"
	"fmt"

	"github.com/researchaccelerator-hub/comment-harvester/config"
	"github.com/rs/zerolog"
)

// ClientFactory creates connected YouTube clients
type ClientFactory interface {
	// CreateClient builds and connects a client from the YouTube settings
	CreateClient(ctx context.Context, cfg config.YouTubeConfig) (*YouTubeDataClient, error)
}

// DefaultClientFactory implements ClientFactory
type DefaultClientFactory struct {
	logger zerolog.Logger
	extra  []Option
}

// NewDefaultClientFactory creates a new DefaultClientFactory. extra options are
// applied after the ones derived from config.
func NewDefaultClientFactory(logger zerolog.Logger, extra ...Option) *DefaultClientFactory {
	return &DefaultClientFactory{logger: logger, extra: extra}
}

// CreateClient implements ClientFactory
func (f *DefaultClientFactory) CreateClient(ctx context.Context, cfg config.YouTubeConfig) (*YouTubeDataClient, error) {
	opts := []Option{
		WithLogger(f.logger.With().Str("component", "youtube_client").Logger()),
		WithTimeout(cfg.Timeout),
		WithRequestsPerSecond(cfg.RequestsPerSecond),
	}
	opts = append(opts, f.extra...)

	ytClient, err := NewYouTubeDataClient(cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	if err := ytClient.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect YouTube client: %w", err)
	}
	return ytClient, nil
}
