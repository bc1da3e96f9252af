// Command api serves the auth HTTP API.
//
// @title                       Auth API
// @version                     1.0
// @description                 Email and Google sign-in, JWT issuance and refresh, role-gated user management.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/api"
	"github.com/zoubaax/on-time/internal/api/middleware"
	"github.com/zoubaax/on-time/internal/core/ports"
	"github.com/zoubaax/on-time/internal/core/service"
	"github.com/zoubaax/on-time/internal/infrastructure/config"
	mongostore "github.com/zoubaax/on-time/internal/infrastructure/db/mongo"
	redisstore "github.com/zoubaax/on-time/internal/infrastructure/db/redis"
	sqlitestore "github.com/zoubaax/on-time/internal/infrastructure/db/sqlite"
	httpserver "github.com/zoubaax/on-time/internal/infrastructure/http"
	"github.com/zoubaax/on-time/internal/infrastructure/http/handlers"
	"github.com/zoubaax/on-time/internal/infrastructure/identity/gotrue"
	"github.com/zoubaax/on-time/internal/infrastructure/identity/local"
	"github.com/zoubaax/on-time/internal/infrastructure/queue"
	"github.com/zoubaax/on-time/internal/infrastructure/telemetry"
	"github.com/zoubaax/on-time/pkg/logger"
)

const serviceName = "on-time-auth"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores groups the repositories of one storage driver.
type stores struct {
	users       ports.UserRepository
	credentials ports.CredentialRepository
	audit       ports.AuditRepository
	ping        handlers.Pinger
	close       func(context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Env,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	idp := newIdentityProvider(cfg, st.credentials)
	log.Info().Str("provider", cfg.Identity.Provider).Msg("identity provider configured")

	checks := map[string]handlers.Pinger{
		"store":             st.ping,
		"identity_provider": idp,
	}

	limiter, err := newLimiter(ctx, cfg, log, checks)
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, st.audit, logger.Component("audit"))
	dispatcher.Start(ctx)
	defer func() {
		stop()
		dispatcher.Wait()
	}()

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	authService := service.NewAuthService(idp, st.users, tokens, dispatcher, logger.Component("auth"))
	userService := service.NewUserService(st.users, dispatcher, logger.Component("users"))

	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		AuthService: authService,
		UserService: userService,
		Verifier:    tokens,
		Limiter:     limiter,
		Checks:      checks,
		Log:         logger.Component("http"),
	}, api.Options{
		BasePath:       cfg.APIBasePath,
		ClientURL:      cfg.ClientURL,
		BodyLimit:      cfg.BodyLimit,
		GlobalLimit:    cfg.RateLimit.Global,
		AuthLimit:      cfg.RateLimit.Auth,
		LimitWindow:    cfg.RateLimit.Window,
		ExposeErrors:   !cfg.IsProduction(),
		Swagger:        cfg.Swagger,
		TrustedProxies: proxies,
	})

	return httpserver.NewServer(router, cfg.Port, log).Run(ctx)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		db, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:       sqlitestore.NewUserRepository(db),
			credentials: sqlitestore.NewCredentialRepository(db),
			audit:       sqlitestore.NewAuditRepository(db),
			ping:        db,
			close:       func(context.Context) error { return db.Close() },
		}, nil
	default:
		s, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &stores{
			users:       mongostore.NewUserRepository(s.DB),
			credentials: mongostore.NewCredentialRepository(s.DB),
			audit:       mongostore.NewAuditRepository(s.DB),
			ping:        s,
			close:       s.Close,
		}, nil
	}
}

func newIdentityProvider(cfg *config.Config, creds ports.CredentialRepository) ports.IdentityProvider {
	if cfg.Identity.Provider == config.ProviderLocal {
		return local.New(creds, local.Config{
			GoogleClientID:     cfg.Identity.GoogleClientID,
			GoogleClientSecret: cfg.Identity.GoogleClientSecret,
			GoogleRedirectURL:  cfg.Identity.RedirectURL,
		})
	}
	return gotrue.New(gotrue.Config{
		URL:         cfg.Identity.URL,
		APIKey:      cfg.Identity.APIKey,
		RedirectURL: cfg.Identity.RedirectURL,
	})
}

// newLimiter returns the Redis counter when REDIS_ADDR is set and an
// in-memory one otherwise.
func newLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handlers.Pinger) (middleware.CounterStore, error) {
	if cfg.Redis.Addr == "" {
		mem := middleware.NewMemoryStore()
		mem.StartSweeper(ctx, cfg.RateLimit.Window)
		log.Info().Msg("rate limiter using in-memory counters")
		return mem, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = rdb.Close()
	}()
	checks["redis"] = redisstore.NewPinger(rdb)
	log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiter using redis")
	return redisstore.NewWindowCounter(rdb), nil
}
