package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/media"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/router"
	"github.com/iliyamo/movie-catalog/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, movies, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("open storage")
	}
	defer closeStore()

	gw, err := openMedia(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("provider", cfg.MediaProvider).Msg("open media host")
	}
	breaker := media.NewBreaker(gw, media.BreakerConfig{
		Name:             cfg.MediaProvider,
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	})

	var orphans service.OrphanReporter
	if cfg.RabbitMQURL != "" {
		orphans = queue.NewPublisher(cfg.RabbitMQURL)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, "logs")
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("orphan consumer stopped")
			}
		}()
	} else {
		logging.Warn().Msg("RABBITMQ_URL not set; orphaned media is only logged")
	}

	pipeline := service.NewMoviePipeline(movies, breaker, orphans, service.PipelineConfig{
		PosterFolder: cfg.PosterFolder,
		VideoFolder:  cfg.VideoFolder,
	})
	userHandler := handler.NewUserHandler(users)
	movieHandler := handler.NewMovieHandler(movies, pipeline, handler.UploadConfig{
		Dir:          cfg.UploadDir,
		MaxFileBytes: cfg.UploadMaxBytes,
	})

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := newEcho(cfg)
	router.RegisterRoutes(e, userHandler, movieHandler, limiter)

	go func() {
		addr := ":" + cfg.Port
		logging.Info().Str("addr", addr).Str("env", cfg.Env).
			Str("storage", cfg.StorageDriver).Str("media", cfg.MediaProvider).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown")
	}
}

func newEcho(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Two files of at most UploadMaxBytes plus the text fields.
	bodyLimit := 2*cfg.UploadMaxBytes + 1<<20

	e.Use(
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		middleware.RequestContext(),
		echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
			LogMethod:    true,
			LogURIPath:   true,
			LogRoutePath: true,
			LogStatus:    true,
			LogLatency:   true,
			LogError:     true,
			HandleError:  true,
			LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
				ev := logging.Ctx(c.Request().Context()).Info()
				if v.Error != nil {
					ev = logging.Ctx(c.Request().Context()).Error().Err(v.Error)
				}
				ev.Str("method", v.Method).Str("path", v.URIPath).Str("route", v.RoutePath).
					Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
				return nil
			},
		}),
		middleware.Metrics(),
		echomw.Recover(),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FrontendOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		}),
		echomw.BodyLimit(formatBytes(bodyLimit)),
	)
	return e
}

// openStores opens the configured backend, makes sure its unique indexes
// exist and returns a function that closes it.
func openStores(ctx context.Context, cfg config.Config) (repository.UserStore, repository.MovieStore, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverMySQL:
		db, err := database.OpenMySQL(ctx, database.MySQLConfig{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repository.EnsureMySQLSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return repository.NewUserRepo(db), repository.NewMovieRepo(db), func() { _ = db.Close() }, nil
	default:
		db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return repository.NewMongoUserRepo(db), repository.NewMongoMovieRepo(db), closeFn, nil
	}
}

func openMedia(cfg config.Config) (media.Gateway, error) {
	if cfg.MediaProvider == config.ProviderS3 {
		return media.NewS3Gateway(cfg.AWSRegion, cfg.S3Bucket)
	}
	return media.NewCloudinaryGateway(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret)
}

// formatBytes renders n in the unit syntax echo's BodyLimit parses.
func formatBytes(n int64) string {
	return strconv.FormatInt((n+1023)/1024, 10) + "K"
}
