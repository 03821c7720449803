// Package server initializes and runs the auth server: it opens the storage
// backends, applies migrations, wires the services into the HTTP transport,
// and handles graceful shutdown plus the background session sweep.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/auth"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/config"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/httpapi"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/oauthstates"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/repomanager"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
)

// shutdownTimeout bounds how long in-flight requests may finish after a
// termination signal.
const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	sessions *services.SessionStore
	httpSrv  *http.Server
}

// NewApp builds the full object graph. The OAuth code exchanger is injected
// by the caller because the provider client carries its own credentials.
func NewApp(cfg *config.Config, exchanger httpapi.IdentityExchanger) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	sessions := services.NewSessionStore(db, repos, cfg.RefreshSessionValidityDuration, logger)
	signer := auth.NewSigner([]byte(cfg.SecretKey))
	hasher := auth.NewHasher(cfg.BcryptCost)
	csrf := services.NewCSRFGuard()
	mailer := services.NewLogMailer(logger)

	authSvc := services.NewAuthService(db, repos, sessions, csrf, signer, hasher, mailer, logger, cfg)
	states := oauthstates.NewRedisRepository(rdb)
	oauthSvc := services.NewOAuthService(db, repos, states, authSvc, logger,
		cfg.OAuthStateValidityDuration, cfg.DefaultGenerationsLimit)

	settings := services.NewRedisSettings(rdb, logger)
	api := httpapi.NewServer(authSvc, oauthSvc, csrf, settings, exchanger, logger, cfg)

	httpSrv := &http.Server{
		Addr:    cfg.EndpointAddrHTTP,
		Handler: api.Handler(),
	}

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		redis:    rdb,
		sessions: sessions,
		httpSrv:  httpSrv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "http server listening", "addr", app.httpSrv.Addr)

	if err := app.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// runSweeper deletes expired refresh sessions on a fixed interval until the
// context is cancelled. Request paths never pay for the cleanup.
func (app *App) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.sessions.SweepExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting auth server")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweeper(ctx)
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.httpSrv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err)
	}

	wg.Wait()

	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "auth server stopped")
}
