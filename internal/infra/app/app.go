package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/config"
	"github.com/arklim/campus-clock/internal/infra/database"
	kafkainfra "github.com/arklim/campus-clock/internal/infra/kafka"
	"github.com/arklim/campus-clock/internal/infra/logger"
	redisinfra "github.com/arklim/campus-clock/internal/infra/redis"
	"github.com/arklim/campus-clock/internal/infra/security"
	"github.com/arklim/campus-clock/internal/notify"
	"github.com/arklim/campus-clock/internal/portal"
	postgresrepo "github.com/arklim/campus-clock/internal/repository/postgres"
	redisrepo "github.com/arklim/campus-clock/internal/repository/redis"
	"github.com/arklim/campus-clock/internal/transport/http/middleware"
	"github.com/arklim/campus-clock/internal/transport/http/routes"
	"github.com/arklim/campus-clock/internal/usecase"
	"github.com/arklim/campus-clock/internal/worker"
)

// Application wires the API server and the background scheduler.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	runner *worker.Runner
}

// New assembles the full dependency graph.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Postgres.Migrate {
		if err := database.Migrate(cfg.Postgres); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	cipher, err := security.NewCredentialCipher(cfg.Crypto.Secret)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init credential cipher: %w", err)
	}

	tokens, err := security.NewTokenManager(cfg.Admin.JWTSecret, cfg.App.Name, cfg.Admin.TokenTTL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	queue := redisrepo.NewAttemptQueue(redisClient.Client(), cfg.Redis.QueuePrefix)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	sessions := newSessionFactory(cfg.Portal, location, log)
	attemptMetrics := usecase.NewAttemptMetrics(cfg.Telemetry.MetricsNamespace, prometheus.DefaultRegisterer)
	notifier := notify.NewLogNotifier(log)

	adminService := usecase.NewAdminService(cfg.Admin, tokens)
	userService := usecase.NewUserService(repos.Users, repos.Attempts, cipher, log)
	scheduleService := usecase.NewScheduleService(repos.Users, repos.Attempts, queue, eventPublisher, log)
	clockService := usecase.NewClockService(repos.Users, repos.Attempts, cipher, sessions, notifier, eventPublisher, attemptMetrics, log)

	runner, err := worker.New(worker.Config{
		DailyAt:       cfg.Schedule.DailyAt,
		Location:      location,
		PollInterval:  cfg.Schedule.PollInterval,
		PollBatchSize: cfg.Schedule.PollBatchSize,
		Workers:       cfg.Schedule.Workers,
	}, scheduleService, clockService, queue, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init worker runner: %w", err)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  httpMetrics,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Admin:    adminService,
			Users:    userService,
			Schedule: scheduleService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		runner: runner,
	}, nil
}

// newSessionFactory binds the portal endpoints from configuration into
// a per-user client constructor.
func newSessionFactory(cfg config.PortalSettings, loc *time.Location, log *zap.Logger) usecase.SessionFactory {
	eps := portal.Endpoints{
		Login:        cfg.LoginURL,
		CaptchaProbe: cfg.CaptchaProbeURL,
		AuthProbe:    cfg.AuthProbeURL,
		Logout:       cfg.LogoutURL,
		BusinessNow:  cfg.BusinessNowURL,
		FormInstance: cfg.FormInstanceURL,
		FormSubmit:   cfg.FormSubmitURL,
		LoginOrigin:  cfg.LoginOrigin,
		AppOrigin:    cfg.AppOrigin,
		AppReferer:   cfg.AppReferer,
	}

	return func(user domain.User, password string, persist portal.PersistFunc) (usecase.PortalSession, error) {
		opts := []portal.Option{
			portal.WithLogger(log),
			portal.WithLocation(loc),
			portal.WithPersistFunc(persist),
			portal.WithUserAgent(cfg.UserAgent),
			portal.WithTimeout(cfg.RequestTimeout),
		}
		if user.HasSession() {
			opts = append(opts, portal.WithCookieSnapshot(*user.SessionCookies))
		}

		return portal.NewClient(eps, portal.Credentials{
			Username: user.Username,
			Password: password,
		}, opts...)
	}
}

// Run serves HTTP and the scheduler loops until ctx is cancelled, then
// shuts both down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runner.Run(runnerCtx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting campus clock API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		stopRunner()
		wg.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		stopRunner()
		wg.Wait()
		return err
	}
}
