package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/smallbiznis/valora-connect/internal/adapter/cache"
	oauthadapter "github.com/smallbiznis/valora-connect/internal/adapter/oauth"
	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/domain/integration"
	httptransport "github.com/smallbiznis/valora-connect/internal/http"
	"github.com/smallbiznis/valora-connect/internal/http/handler"
	apimiddleware "github.com/smallbiznis/valora-connect/internal/middleware"
	"github.com/smallbiznis/valora-connect/internal/repository"
	"github.com/smallbiznis/valora-connect/internal/server"
	itemssvc "github.com/smallbiznis/valora-connect/internal/service/items"
	oauthsvc "github.com/smallbiznis/valora-connect/internal/service/oauth"
	"github.com/smallbiznis/valora-connect/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newRedisClient,
			newCredentialStore,
			newAdapters,
			newOrchestrator,
			newFetchers,
			newItemService,
			newRateLimiter,
			handler.NewIntegrationHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newCredentialStore(client redis.UniversalClient) repository.CredentialStore {
	return cacheadapter.NewRedisCredentialStore(client)
}

func newAdapters(cfg config.Config) []oauthadapter.Adapter {
	var adapters []oauthadapter.Adapter
	if pc, ok := cfg.Providers[integration.ProviderHubSpot]; ok {
		adapters = append(adapters, oauthadapter.NewSimpleAdapter(
			integration.ProviderHubSpot, pc, oauthadapter.HubSpotEndpoints, nil))
	}
	if pc, ok := cfg.Providers[integration.ProviderNotion]; ok {
		adapters = append(adapters, oauthadapter.NewBasicSecretAdapter(
			integration.ProviderNotion, pc, oauthadapter.NotionEndpoints, nil))
	}
	if pc, ok := cfg.Providers[integration.ProviderAirtable]; ok {
		adapters = append(adapters, oauthadapter.NewPKCEAdapter(
			integration.ProviderAirtable, pc, oauthadapter.AirtableEndpoints, nil))
	}
	return adapters
}

func newOrchestrator(adapters []oauthadapter.Adapter, store repository.CredentialStore, cfg config.Config, logger *zap.Logger) *oauthsvc.Orchestrator {
	return oauthsvc.NewOrchestrator(adapters, store, cfg.AttemptTTL, logger)
}

func newFetchers(cfg config.Config, logger *zap.Logger) []itemssvc.Fetcher {
	var fetchers []itemssvc.Fetcher
	if _, ok := cfg.Providers[integration.ProviderHubSpot]; ok {
		fetchers = append(fetchers, itemssvc.NewHubSpotFetcher("", nil, logger))
	}
	if _, ok := cfg.Providers[integration.ProviderNotion]; ok {
		fetchers = append(fetchers, itemssvc.NewNotionFetcher("", nil, logger))
	}
	if _, ok := cfg.Providers[integration.ProviderAirtable]; ok {
		fetchers = append(fetchers, itemssvc.NewAirtableFetcher("", nil, logger))
	}
	return fetchers
}

func newItemService(fetchers []itemssvc.Fetcher, logger *zap.Logger) *itemssvc.Service {
	return itemssvc.NewService(fetchers, logger)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
