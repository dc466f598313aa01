package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harentsoaR/neocare-api/internal/cache"
	"github.com/harentsoaR/neocare-api/internal/config"
	"github.com/harentsoaR/neocare-api/internal/handlers"
	"github.com/harentsoaR/neocare-api/internal/jobs"
	"github.com/harentsoaR/neocare-api/internal/services"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

// app owns every long-lived dependency of the process.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	tokens  *utils.TokenIssuer
	notify  *services.NotificationService
	jobs    *jobs.Scheduler
	svc     handlers.Services
	closers []func(context.Context) error
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "neocare-api").Logger()
}

func newMailer(cfg *config.Config, log zerolog.Logger) services.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, emails will only be logged")
		return services.LogMailer{Log: log}
	}
	return &services.SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	utils.SetHashCost(cfg.BcryptCost)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		a.store = store.NewMemoryStore()
	default:
		s, err := a.connectMongo(ctx)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.store = s
	}

	var hospitalCache cache.HospitalCache = cache.Noop{}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		hospitalCache = cache.NewRedisHospitalCache(client, cfg.HospitalCacheTTL)
		log.Info().Dur("ttl", cfg.HospitalCacheTTL).Msg("hospital cache enabled")
	}

	a.jobs = jobs.NewScheduler(a.store, log)
	if err := a.jobs.Schedule(cfg.ResetCleanup); err != nil {
		a.close(ctx)
		return nil, err
	}

	a.tokens = utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	a.notify = services.NewNotificationService(newMailer(cfg, log), log, cfg.AppBaseURL)

	affiliation := services.NewAffiliationService(a.store, log)
	a.svc = handlers.Services{
		Auth:        services.NewAuthService(a.store, affiliation, a.tokens, a.notify, cfg.ResetTokenTTL, log),
		Hospitals:   services.NewHospitalService(a.store, hospitalCache, log),
		Affiliation: affiliation,
		Profiles:    services.NewProfileService(a.store),
		Timeline:    services.NewTimelineService(a.store, affiliation),
		Messaging:   services.NewMessagingService(a.store, affiliation, log),
	}
	return a, nil
}

func (a *app) connectMongo(ctx context.Context) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(a.cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	a.log.Info().Str("database", a.cfg.MongoDatabase).Msg("connected to MongoDB")
	return store.NewMongoStore(db), nil
}

func (a *app) router() *gin.Engine {
	if !a.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandler(a.svc, a.log)
	return handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins: a.cfg.CORSOrigins,
		Tokens:      a.tokens,
		Log:         a.log,
	})
}

// seedSuperadmin creates the configured superadmin when it does not exist yet.
func (a *app) seedSuperadmin(ctx context.Context, name, email, password string) error {
	created, err := a.svc.Auth.SeedSuperadmin(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("seed superadmin: %w", err)
	}
	if created {
		a.log.Info().Str("email", email).Msg("superadmin created")
	} else {
		a.log.Info().Str("email", email).Msg("superadmin already exists")
	}
	return nil
}

// close waits for queued mail and then releases connections in reverse order.
func (a *app) close(ctx context.Context) {
	if a.notify != nil {
		a.notify.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := newLogger(cfg, os.Stdout)
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}
