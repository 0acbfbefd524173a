// Package app wires the availability engine's dependencies into a runnable
// container.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/slotfair/slotfair/internal/availability/application/commands"
	"github.com/slotfair/slotfair/internal/availability/application/queries"
	"github.com/slotfair/slotfair/internal/availability/application/services"
	"github.com/slotfair/slotfair/internal/availability/application/workers"
	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/persistence"
	"github.com/slotfair/slotfair/internal/shared/infrastructure/database"
	"github.com/slotfair/slotfair/internal/shared/infrastructure/eventbus"
	"github.com/slotfair/slotfair/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds the wired application services.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Calculator *queries.CalculateAvailableSlotsHandler

	CreateRule           *commands.CreateRuleHandler
	CreateOverride       *commands.CreateOverrideHandler
	CreateBlockedTime    *commands.CreateBlockedTimeHandler
	CreateRecurringBlock *commands.CreateRecurringBlockHandler
	UpdateBuffer         *commands.UpdateBufferSettingsHandler

	Sweeper *workers.CacheSweeper

	pool      *pgxpool.Pool
	sqliteDB  *sql.DB
	redis     *redis.Client
	publisher eventbus.Publisher
}

// NewContainer builds the container from configuration. With an empty
// DATABASE_URL the embedded SQLite store is used; with an empty REDIS_URL
// the in-memory cache is used. RabbitMQ is optional in development.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	var (
		rules     domain.AvailabilityRuleRepository
		overrides domain.DateOverrideRepository
		blocks    domain.BlockedTimeRepository
		recurring domain.RecurringBlockRepository
		buffers   domain.BufferSettingsRepository
		bookings  domain.BookingReader
		events    domain.EventTypeReader
		profiles  domain.OrganizerProfileReader
	)

	switch database.DetectDriver(cfg.DatabaseURL) {
	case database.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pinging postgres: %w", err)
		}
		c.pool = pool

		rules = persistence.NewPostgresRuleRepository(pool)
		overrides = persistence.NewPostgresOverrideRepository(pool)
		blocks = persistence.NewPostgresBlockedTimeRepository(pool)
		recurring = persistence.NewPostgresRecurringBlockRepository(pool)
		buffers = persistence.NewPostgresBufferRepository(pool)
		bookings = persistence.NewPostgresBookingReader(pool)
		events = persistence.NewPostgresEventTypeReader(pool)
		profiles = persistence.NewPostgresProfileReader(pool)

	default:
		path := cfg.DatabaseURL
		if path == "" {
			path = "slotfair.db"
		}
		db, err := persistence.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		c.sqliteDB = db

		rules = persistence.NewSQLiteRuleRepository(db)
		overrides = persistence.NewSQLiteOverrideRepository(db)
		blocks = persistence.NewSQLiteBlockedTimeRepository(db)
		recurring = persistence.NewSQLiteRecurringBlockRepository(db)
		buffers = persistence.NewSQLiteBufferRepository(db)
		bookings = persistence.NewSQLiteBookingReader(db)
		events = persistence.NewSQLiteEventTypeReader(db)
		profiles = persistence.NewSQLiteProfileReader(db)
	}

	var store cache.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		c.redis = redis.NewClient(opts)
		store = cache.NewRedisStore(c.redis, cache.DefaultRedisStoreConfig(), logger)
	} else {
		logger.Info("no REDIS_URL configured, using in-memory cache")
		store = cache.NewMemoryStore()
	}

	if cfg.RabbitMQURL != "" {
		pub, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events will not be published", "error", err)
			c.publisher = eventbus.NewNoopPublisher(logger)
		} else {
			c.publisher = pub
		}
	} else {
		c.publisher = eventbus.NewNoopPublisher(logger)
	}

	keys := cache.NewKeyBuilder(cfg.CommonTimezones, cfg.CommonAttendeeCounts)
	dirty := cache.NewDirtyTracker(store, logger)

	c.Calculator = queries.NewCalculateAvailableSlotsHandler(queries.CalculateAvailableSlotsConfig{
		EventTypes:  events,
		Profiles:    profiles,
		Buffers:     buffers,
		Resolver:    services.NewRuleResolver(rules, overrides),
		Enumerator:  services.NewSlotEnumerator(),
		BlockFilter: services.NewBlockFilter(blocks, recurring, overrides),
		Conflicts:   services.NewConflictChecker(bookings),
		Intersector: services.NewInviteeIntersector(logger),
		Store:       store,
		Keys:        keys,
		ResultTTL:   cfg.ResultCacheTTL,
		Logger:      logger,
	})

	c.CreateRule = commands.NewCreateRuleHandler(rules, dirty, c.publisher, logger)
	c.CreateOverride = commands.NewCreateOverrideHandler(overrides, dirty, c.publisher, logger)
	c.CreateBlockedTime = commands.NewCreateBlockedTimeHandler(blocks, dirty, c.publisher, logger)
	c.CreateRecurringBlock = commands.NewCreateRecurringBlockHandler(recurring, dirty, c.publisher, logger)
	c.UpdateBuffer = commands.NewUpdateBufferSettingsHandler(buffers, dirty, c.publisher, logger)

	c.Sweeper = workers.NewCacheSweeper(dirty, store, keys,
		workers.CacheSweeperConfig{Interval: cfg.SweepInterval}, logger)

	return c, nil
}

// Close releases the container's connections.
func (c *Container) Close() {
	if c.publisher != nil {
		_ = c.publisher.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
	if c.sqliteDB != nil {
		_ = c.sqliteDB.Close()
	}
}
