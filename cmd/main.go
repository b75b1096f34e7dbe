package main

import (
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/treeline/internal/cache/memory"
	rediscache "github.com/davidbz/treeline/internal/cache/redis"
	"github.com/davidbz/treeline/internal/carbon"
	"github.com/davidbz/treeline/internal/carbon/electricitymaps"
	"github.com/davidbz/treeline/internal/carbon/watttime"
	"github.com/davidbz/treeline/internal/config"
	"github.com/davidbz/treeline/internal/domain"
	"github.com/davidbz/treeline/internal/http"
	"github.com/davidbz/treeline/internal/http/middleware"
	"github.com/davidbz/treeline/internal/observability"
)

func main() {
	container := buildContainer()

	// Force logger construction before anything logs through the global.
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		return observability.InitLogger(observability.Options{
			Level: cfg.Log.Level,
			Debug: cfg.Server.Debug,
		})
	}); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Carbon intensity providers. Missing credentials mean the provider
	// is skipped and resolution falls back to the static tables.
	if err := container.Provide(func(
		emCfg *electricitymaps.Config,
		wtCfg *watttime.Config,
	) []carbon.Provider {
		providers := make([]carbon.Provider, 0, 2)
		if emCfg.Token != "" {
			providers = append(providers, electricitymaps.NewClient(*emCfg))
		}
		if wtCfg.Username != "" && wtCfg.Password != "" {
			providers = append(providers, watttime.NewClient(*wtCfg))
		}
		return providers
	}); err != nil {
		log.Fatalf("Failed to provide carbon providers: %v", err)
	}

	if err := container.Provide(func(providers []carbon.Provider) domain.CarbonResolver {
		return carbon.NewResolver(providers...)
	}); err != nil {
		log.Fatalf("Failed to provide carbon resolver: %v", err)
	}

	// Result cache
	if err := container.Provide(func(cfg *config.CacheConfig) domain.ResultCache {
		if cfg.RedisAddr != "" {
			client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
			return rediscache.New(client, cfg.MaxSize)
		}
		return memory.New(cfg.MaxSize)
	}); err != nil {
		log.Fatalf("Failed to provide result cache: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewEnergyTable); err != nil {
		log.Fatalf("Failed to provide energy table: %v", err)
	}
	if err := container.Provide(func(
		calculator *domain.EnergyTable,
		resolver domain.CarbonResolver,
		cache domain.ResultCache,
		cacheCfg *config.CacheConfig,
	) *domain.ImpactService {
		ttl := time.Duration(cacheCfg.TTLSeconds) * time.Second
		return domain.NewImpactService(calculator, resolver, cache, ttl)
	}); err != nil {
		log.Fatalf("Failed to provide impact service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
