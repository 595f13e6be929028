package progression

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/habit-progression/internal/cache"
	"github.com/magabrotheeeer/habit-progression/internal/config"
	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/lib/initdata"
	"github.com/magabrotheeeer/habit-progression/internal/lib/jwt"
	"github.com/magabrotheeeer/habit-progression/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/migrations"
	"github.com/magabrotheeeer/habit-progression/internal/services/activity"
	"github.com/magabrotheeeer/habit-progression/internal/services/auth"
	"github.com/magabrotheeeer/habit-progression/internal/services/notifier"
	"github.com/magabrotheeeer/habit-progression/internal/storage/repository"
)

// App держит HTTP-сервер и внешние подключения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	broker *amqp.Connection
}

// New поднимает подключения, накатывает миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.progression.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = prepareDatabase(db, cfg.MigrationsPath); err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	publisher, conn := newPublisher(cfg, logger.With(slog.String("op", op)))

	activityService := activity.NewService(db, notifier.New(publisher, logger), logger,
		activity.WithCache(cacheRedis, cfg.ProfileTTL))

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := auth.NewService(db, initdata.New(cfg.BotToken, cfg.AuthMaxAge), jwtMaker, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authService,
		Activity:      activityService,
		Tokens:        jwtMaker,
		Limiter:       middlewarectx.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		WebhookSecret: cfg.WebhookSecret,
		DB:            db.DB,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		broker: conn,
	}, nil
}

// prepareDatabase накатывает миграции и только потом проверяет схему.
func prepareDatabase(db *repository.Storage, migrationsPath string) error {
	if err := migrations.Run(db.DB, migrationsPath); err != nil {
		return err
	}
	return repository.CheckDatabaseReady(db)
}

// newPublisher подключается к RabbitMQ, без брокера события только пишутся в лог.
func newPublisher(cfg *config.Config, log *slog.Logger) (notifier.Publisher, *amqp.Connection) {
	if cfg.RabbitMQURL == "" {
		log.Info("rabbitmq url is empty, events will be logged only")
		return notifier.LogPublisher{Log: log}, nil
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		log.Warn("rabbitmq unavailable, events will be logged only", sl.Err(err))
		return notifier.LogPublisher{Log: log}, nil
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetProgressionQueues())
	if err != nil {
		log.Warn("failed to setup rabbitmq channel", sl.Err(err))
		_ = conn.Close()
		return notifier.LogPublisher{Log: log}, nil
	}
	return notifier.NewAMQPPublisher(ch, cfg.Exchange), conn
}

// Run запускает сервер и ждёт отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.db.DB.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq", sl.Err(err))
		}
	}
}
