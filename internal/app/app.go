package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoevents/internal/cache"
	"todoevents/internal/config"
	"todoevents/internal/events"
	"todoevents/internal/repo"
	"todoevents/internal/service"
	"todoevents/internal/utils/logger"
	"todoevents/migrations"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	store   repo.TodoRepo
	redis   *redis.Client
	pub     *events.Publisher
	svc     *service.TodoService
	router  *gin.Engine
	closers []func(ctx context.Context) error
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, err := a.newStore(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.store = store

	var listCache service.ListCache
	if cfg.Redis.CacheEnabled() {
		a.redis = newRedis(ctx, cfg.Redis, log)
		a.closers = append(a.closers, func(context.Context) error { return a.redis.Close() })
		listCache = cache.NewTodoCache(cache.NewRedisStore(a.redis), cfg.Redis.DefaultTTL.Duration())
	} else {
		log.Info("REDIS_ADDR not set, list cache disabled")
	}

	var publisher service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		a.pub = events.NewPublisher(
			events.DialAMQP(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange),
			log,
			events.WithReconnectDelay(cfg.RabbitMQ.ReconnectDelay.Duration()),
		)
		// a failed first attempt is retried in the background
		_ = a.pub.Start(ctx)
		a.closers = append(a.closers, func(context.Context) error { return a.pub.Close() })
		publisher = a.pub
	} else {
		log.Info("RABBITMQ_ENABLED=false, events disabled")
	}

	a.svc = service.NewTodoService(a.store, listCache, publisher, log)
	a.router = newRouter(cfg, log, a.svc)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newStore(ctx context.Context) (repo.TodoRepo, error) {
	cfg := a.cfg.Store
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration())
	defer cancel()

	switch cfg.Driver {
	case config.DriverMongo:
		client, err := repo.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		return repo.NewMongoTodoRepo(client.Database(cfg.MongoDatabase)), nil

	case config.DriverPostgres:
		if err := RunMigrations(cfg.PGDSN); err != nil {
			return nil, err
		}
		pool, err := newPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		return repo.NewPGTodoRepo(pool), nil

	case config.DriverFirestore:
		client, err := repo.NewFirestoreClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return repo.NewFirestoreTodoRepo(client), nil

	case config.DriverMemory:
		a.log.Warn("using in-memory store, data is lost on restart")
		return repo.NewMemoryTodoRepo(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

// newRedis builds the cache client. An unreachable Redis is only logged:
// cache faults degrade to store reads.
func newRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, continuing without a warm cache", slog.String("addr", cfg.Addr), logger.Err(err))
	}

	return rdb
}

// RunMigrations applies the embedded goose migrations to the database at dsn.
func RunMigrations(dsn string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
