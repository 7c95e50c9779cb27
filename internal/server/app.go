// Package server wires the socialid components together and runs the gRPC
// and REST endpoints plus the profile refresh scheduler until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/config"
	"github.com/dmitrijs2005/socialid/internal/server/following"
	"github.com/dmitrijs2005/socialid/internal/server/httpapi"
	"github.com/dmitrijs2005/socialid/internal/server/jobs"
	"github.com/dmitrijs2005/socialid/internal/server/platform"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/memory"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialid/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/socialid/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	credentials *services.CredentialService
	socialMedia *services.SocialMediaService
	profiles    *services.ProfileService
	closers     []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	m, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.repomanager = m

	registry := platform.NewRegistry(ctx, c)
	syncer := following.NewSyncer(registry.Following(), app.followingStore(), logger)

	app.credentials = services.NewCredentialService(m, syncer, logger)
	app.socialMedia = services.NewSocialMediaService(registry, app.credentials, m, c, logger)
	app.profiles = services.NewProfileService(registry, m, logger)

	return app, nil
}

// openStore returns the in-memory store for config.MemoryDSN, otherwise a
// migrated PostgreSQL store.
func (app *App) openStore(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == config.MemoryDSN {
		app.logger.Warn(ctx, "Using in-memory identity store, data is lost on exit")
		return memory.NewManager(), nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, err
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}

func (app *App) followingStore() following.Store {
	if app.config.RedisAddr == "" {
		return following.NewMemoryStore(app.config.FollowingTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
	})
	app.closers = append(app.closers, client)
	return following.NewRedisStore(client, app.config.FollowingTTL)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.socialMedia, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	h := httpapi.NewHandler(app.socialMedia, app.logger, app.config.SecretKey)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, h, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startScheduler(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := jobs.NewScheduler(app.config.ProfileRefreshSchedule, app.profiles, app.logger)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for _, start := range []func(context.Context, context.CancelFunc){
		app.startGRPCServer,
		app.startHTTPServer,
		app.startScheduler,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	// let detached following syncs finish before the stores are closed
	app.credentials.Wait()
	app.Close()

	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
