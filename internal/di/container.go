package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	channelRepo "github.com/subgate-bot/subgate/internal/modules/channel/repository"
	channelService "github.com/subgate-bot/subgate/internal/modules/channel/service"
	"github.com/subgate-bot/subgate/internal/modules/subscription/cache"
	subscriptionService "github.com/subgate-bot/subgate/internal/modules/subscription/service"
	"github.com/subgate-bot/subgate/internal/shared/config"
	sharedTelegram "github.com/subgate-bot/subgate/internal/shared/telegram"
	httpServer "github.com/subgate-bot/subgate/internal/transport/http"
	telegramHandler "github.com/subgate-bot/subgate/internal/transport/telegram"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Database
	do.Provide(injector, func(i do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)

		var dialector gorm.Dialector
		switch cfg.DatabaseDriver {
		case "mysql":
			dialector = mysql.Open(cfg.DatabaseDSN)
		default:
			dialector = sqlite.Open(cfg.DatabaseDSN)
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		})
		if err != nil {
			return nil, oops.With("database_driver", cfg.DatabaseDriver, "context", "failed to open database").Wrap(err)
		}
		return db, nil
	})

	// Register Membership Cache
	do.Provide(injector, func(i do.Injector) (cache.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ttl := time.Duration(cfg.CacheTTL) * time.Second

		if cfg.RedisAddr == "" {
			slog.Info("No redis address configured, using in-process membership cache")
			return cache.NewMemoryStore(ttl), nil
		}

		store, err := cache.NewRedisStore(context.Background(), cfg.RedisAddr, ttl)
		if err != nil {
			return nil, oops.With("redis_addr", cfg.RedisAddr, "context", "failed to initialize membership cache").Wrap(err)
		}
		return store, nil
	})

	// Register Channel Repository
	do.Provide(injector, func(i do.Injector) (channelRepo.Repository, error) {
		db := do.MustInvoke[*gorm.DB](i)
		repo, err := channelRepo.NewGormStorage(db)
		if err != nil {
			return nil, oops.With("context", "failed to initialize channel repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Channel Service
	do.Provide(injector, func(i do.Injector) (*channelService.Service, error) {
		repo := do.MustInvoke[channelRepo.Repository](i)
		return channelService.New(repo), nil
	})

	// Register Subscription Verifier
	do.Provide(injector, func(i do.Injector) (*subscriptionService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[cache.Store](i)
		return subscriptionService.New(store, cfg.VerifyFailOpen), nil
	})

	// Register Enforcement Gate
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Gate, error) {
		cfg := do.MustInvoke[*config.Config](i)
		channels := do.MustInvoke[*channelService.Service](i)
		verifier := do.MustInvoke[*subscriptionService.Service](i)
		delay := time.Duration(cfg.WarningDeleteDelay) * time.Second
		return telegramHandler.NewGate(channels, verifier, delay), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		channels := do.MustInvoke[*channelService.Service](i)
		return telegramHandler.New(cfg, channels), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		channels := do.MustInvoke[*channelService.Service](i)
		server := httpServer.New(cfg, channels)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)
		gate := do.MustInvoke[*telegramHandler.Gate](i)

		opts := []bot.Option{
			bot.WithServerURL(cfg.TelegramAPIURL),
			bot.WithHTTPClient(time.Minute, sharedTelegram.NewHTTPClient()),
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithMiddlewares(gate.Middleware),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// The bot is constructed last, hand it to the services that call out
		gate.SetAPI(b)
		do.MustInvoke[*subscriptionService.Service](i).SetAPI(b)
		do.MustInvoke[*channelService.Service](i).SetAPI(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	// Close the redis connection if one is in use
	if store, err := do.Invoke[cache.Store](injector); err == nil {
		if redisStore, ok := store.(*cache.RedisStore); ok {
			if err := redisStore.Close(); err != nil {
				slog.Error("Failed to close redis connection", "error", err)
			}
		}
	}

	return nil
}
