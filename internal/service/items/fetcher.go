package items

import (
	"context"

	"go.uber.org/zap"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// Fetcher loads every record reachable with one credential set and maps them
// into canonical items. Each call re-issues all network requests; nothing is
// cached. Implementations may return gathered items alongside an error when
// only some branches failed.
type Fetcher interface {
	Provider() integration.Provider
	FetchItems(ctx context.Context, creds *integration.Credentials) ([]integration.Item, error)
}

// Service dispatches item loading to the per-provider fetchers.
type Service struct {
	fetchers map[integration.Provider]Fetcher
	logger   *zap.Logger
}

// NewService wires the item service over the given fetchers.
func NewService(fetchers []Fetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	byProvider := make(map[integration.Provider]Fetcher, len(fetchers))
	for _, f := range fetchers {
		byProvider[f.Provider()] = f
	}
	return &Service{fetchers: byProvider, logger: logger}
}

// LoadItems fetches and normalizes all records for the provider. Partial
// results are returned alongside the error when independent branches failed.
func (s *Service) LoadItems(ctx context.Context, provider integration.Provider, creds *integration.Credentials) ([]integration.Item, error) {
	fetcher, ok := s.fetchers[provider]
	if !ok {
		return nil, integration.ErrProviderNotFound
	}
	if creds == nil || creds.AccessToken == "" {
		return nil, integration.ErrInvalidRequest
	}

	items, err := fetcher.FetchItems(ctx, creds)
	if err != nil {
		s.logger.Warn("item fetch incomplete",
			zap.String("provider", string(provider)),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
	} else {
		s.logger.Info("items loaded",
			zap.String("provider", string(provider)),
			zap.Int("items", len(items)),
		)
	}
	return items, err
}
