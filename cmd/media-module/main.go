// main.go — точка входа Media Module.
// Сборка: config → logger → MongoDB → кэш → хранилище → сервисы →
// JWT middleware → HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/luxeawards/media-module/internal/api/handlers"
	"github.com/luxeawards/media-module/internal/api/middleware"
	"github.com/luxeawards/media-module/internal/api/shaping"
	"github.com/luxeawards/media-module/internal/cache"
	"github.com/luxeawards/media-module/internal/config"
	"github.com/luxeawards/media-module/internal/domain/model"
	"github.com/luxeawards/media-module/internal/mailer"
	"github.com/luxeawards/media-module/internal/repository"
	"github.com/luxeawards/media-module/internal/server"
	"github.com/luxeawards/media-module/internal/service"
	"github.com/luxeawards/media-module/internal/storage"
)

const mediaCollection = "media"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Media Module запускается",
		slog.String("version", config.Version),
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBConnectionString))
	if err != nil {
		log.Fatalf("Подключение к MongoDB: %v", err)
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("MongoDB недоступна: %v", err)
	}
	db := mongoClient.Database(cfg.MongoDBDatabase)

	// 4. Коллекция медиазаписей и её индексы
	mediaRepo, err := repository.New[model.Media](db, mediaCollection, logger)
	if err != nil {
		log.Fatalf("Создание коллекции %s: %v", mediaCollection, err)
	}
	if err := mediaRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Создание индексов %s: %v", mediaCollection, err)
	}

	// 5. KV-кэш (mongo или redis)
	cacheSvc, err := buildCache(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Инициализация кэша: %v", err)
	}

	// 6. Объектное хранилище
	uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
		Endpoint:        cfg.MediaEndpoint,
		Region:          cfg.MediaRegion,
		Bucket:          cfg.MediaBucket,
		AccessKeyID:     cfg.MediaAccessKeyID,
		SecretAccessKey: cfg.MediaSecretAccessKey,
	}, logger)
	if err != nil {
		log.Fatalf("Инициализация S3 клиента: %v", err)
	}

	// 7. Сервисы
	mediaCache := service.NewMediaCache(cfg.MediaCacheSize, cfg.MediaCacheTTL)
	mediaService := service.NewMediaService(mediaRepo, uploader, mediaCache, cfg.Env, logger)
	validator := mailer.NewZerobounceValidator(cacheSvc, cfg.ZerobounceAPIKeys, cfg.ZerobounceTimeout, logger)

	// 8. Мониторинг зависимостей
	dephealthSvc, err := service.NewDephealthService(
		"media-module",
		cfg.DephealthGroup,
		cfg.KeycloakBaseURL,
		jwksPath(cfg),
		cfg.MediaEndpoint,
		cfg.DephealthStorageHealthPath,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if err != nil {
		log.Fatalf("Инициализация мониторинга зависимостей: %v", err)
	}
	if err := dephealthSvc.Start(context.Background()); err != nil {
		log.Fatalf("Запуск мониторинга зависимостей: %v", err)
	}
	defer dephealthSvc.Stop()

	// 9. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWKSURL(),
		cfg.JWKSCACertPath,
		cfg.JWTIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		log.Fatalf("Инициализация JWT middleware: %v", err)
	}
	defer jwtAuth.Close()

	// 10. Health checkers и обработчики
	keycloakChecker, err := middleware.NewKeycloakReadinessChecker(cfg.JWKSURL(), cfg.JWKSCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		log.Fatalf("Инициализация Keycloak checker: %v", err)
	}
	mongoChecker := handlers.NewMongoReadinessChecker(mongoClient, cfg.MongoDBPingTimeout)
	healthHandler := handlers.NewHealthHandler(mongoChecker, keycloakChecker)

	// Служебные письма: SMTP-транспорт включается только при заданном MAIL_HOST.
	var mailSender handlers.MailSender
	if cfg.MailHost != "" {
		smtpSender := mailer.NewSMTPSender(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword)
		mailSender = mailer.NewMailer(smtpSender, validator, mailer.Defaults{
			From:        cfg.MailFrom,
			BCC:         cfg.MailBCC,
			ReportingTo: cfg.MailReportingTo,
		}, logger)
		logger.Info("SMTP-транспорт настроен",
			slog.String("host", cfg.MailHost), slog.Int("port", cfg.MailPort))
	} else {
		logger.Warn("MAIL_HOST не задан: отправка служебных писем отключена")
	}

	mediaShaper := shaping.NewNormalizer(cfg.MediaBucket, cfg.MediaEndpoint, true)
	apiHandler := handlers.NewAPIHandler(healthHandler, mediaService, validator, mailSender, mediaShaper, logger)

	// 11. HTTP-сервер. Landing, health и metrics доступны без токена.
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		server.JWTAuthWithExclusions(jwtAuth.Middleware(),
			"/", "/health/", "/metrics"),
	)

	// 12. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Media Module остановлен")
}

// buildCache создаёт KV-кэш согласно выбранному бэкенду.
func buildCache(ctx context.Context, cfg *config.Config, db *mongo.Database) (*cache.Service, error) {
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return cache.NewService(cache.NewRedisStore(client)), nil
	default:
		store := cache.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return cache.NewService(store), nil
	}
}

// jwksPath возвращает путь JWKS endpoint относительно базового URL Keycloak.
func jwksPath(cfg *config.Config) string {
	return "/realms/" + cfg.KeycloakRealm + "/protocol/openid-connect/certs"
}
