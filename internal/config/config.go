// Пакет config — загрузка и валидация конфигурации Media Module
// из переменных окружения. Локальная разработка поддерживается через
// .env-файл (godotenv); переменные окружения имеют приоритет.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Media Module.
type Config struct {
	// --- Сервер ---

	// Имя окружения (production, staging, development) — префикс
	// ключей объектов в хранилище
	Env string
	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 120s: multipart-загрузки)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- MongoDB ---

	// Строка подключения MongoDB (обязательная)
	MongoDBConnectionString string
	// Имя базы данных
	MongoDBDatabase string
	// Таймаут ping при readiness probe
	MongoDBPingTimeout time.Duration

	// --- KV-кэш ---

	// Бэкенд кэша (mongo, redis)
	CacheBackend string
	// Адрес Redis (host:port), используется при CacheBackend=redis
	RedisAddr string
	// Пароль Redis
	RedisPassword string
	// Номер БД Redis
	RedisDB int

	// --- Объектное хранилище ---

	// Endpoint S3-совместимого хранилища
	MediaEndpoint string
	// Имя бакета
	MediaBucket string
	// Регион
	MediaRegion string
	// Ключ доступа
	MediaAccessKeyID string
	// Секретный ключ
	MediaSecretAccessKey string

	// --- LRU-кэш медиазаписей ---

	// Максимальное число записей
	MediaCacheSize int
	// TTL записи
	MediaCacheTTL time.Duration

	// --- Zerobounce ---

	// API-ключи Zerobounce (через пробел); пусто — внешняя проверка выключена
	ZerobounceAPIKeys []string
	// Таймаут HTTP-клиента Zerobounce
	ZerobounceTimeout time.Duration

	// --- Keycloak / JWT ---

	// Базовый URL Keycloak (обязательный)
	KeycloakBaseURL string
	// Realm Keycloak (обязательный)
	KeycloakRealm string
	// Ожидаемый issuer JWT (пусто — не проверяется)
	JWTIssuer string
	// Путь к CA-сертификату для TLS к Keycloak (опционально)
	JWKSCACertPath string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Почта ---

	// Хост SMTP-релея (пусто — отправка писем отключена)
	MailHost string
	// Порт SMTP-релея
	MailPort int
	// Имя пользователя SMTP (пусто — без аутентификации)
	MailUsername string
	// Пароль SMTP
	MailPassword string
	// Адрес отправителя по умолчанию
	MailFrom string
	// Скрытая копия по умолчанию
	MailBCC string
	// Получатель служебных писем
	MailReportingTo string

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Probe path объектного хранилища
	DephealthStorageHealthPath string
	// Лейбл isentry=yes для всех зависимостей
	DephealthIsEntry bool
}

// JWKSURL возвращает URL JWKS endpoint realm-а Keycloak.
func (c *Config) JWKSURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs",
		strings.TrimRight(c.KeycloakBaseURL, "/"), c.KeycloakRealm)
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	// .env для локальной разработки; отсутствие файла — не ошибка.
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MM_ENV — имя окружения (по умолчанию development)
	cfg.Env = getEnvDefault("MM_ENV", "development")

	// MM_PORT — порт HTTP-сервера (по умолчанию 3000)
	cfg.Port, err = getEnvInt("MM_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("MM_PORT: %w", err)
	}

	// MM_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("MM_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("MM_LOG_LEVEL: %w", err)
	}

	// MM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("MM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_READ_TIMEOUT: %w", err)
	}

	// Запись дольше чтения: ответ отдаётся после загрузки файлов в хранилище.
	cfg.HTTPWriteTimeout, err = getEnvDuration("MM_HTTP_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("MM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("MM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- MongoDB ---

	// MONGODB_CONNECTION_STRING — строка подключения (обязательная)
	cfg.MongoDBConnectionString, err = getEnvRequired("MONGODB_CONNECTION_STRING")
	if err != nil {
		return nil, err
	}

	cfg.MongoDBDatabase = getEnvDefault("MM_MONGODB_DATABASE", "media")

	cfg.MongoDBPingTimeout, err = getEnvDuration("MM_MONGODB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_MONGODB_PING_TIMEOUT: %w", err)
	}

	// --- KV-кэш ---

	// MM_CACHE_BACKEND — бэкенд кэша (по умолчанию mongo)
	cfg.CacheBackend = getEnvDefault("MM_CACHE_BACKEND", "mongo")
	if cfg.CacheBackend != "mongo" && cfg.CacheBackend != "redis" {
		return nil, fmt.Errorf("MM_CACHE_BACKEND: недопустимый бэкенд %q, допустимые: mongo, redis", cfg.CacheBackend)
	}

	cfg.RedisAddr = getEnvDefault("MM_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvDefault("MM_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("MM_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("MM_REDIS_DB: %w", err)
	}

	// --- Объектное хранилище ---

	cfg.MediaEndpoint, err = getEnvRequired("MEDIA_ENDPOINT")
	if err != nil {
		return nil, err
	}
	cfg.MediaBucket, err = getEnvRequired("MEDIA_BUCKET")
	if err != nil {
		return nil, err
	}
	cfg.MediaRegion = getEnvDefault("MM_MEDIA_REGION", "us-east-1")
	cfg.MediaAccessKeyID, err = getEnvRequired("MEDIA_ACCESS_KEY_ID")
	if err != nil {
		return nil, err
	}
	cfg.MediaSecretAccessKey, err = getEnvRequired("MEDIA_SECRET_ACCESS_KEY")
	if err != nil {
		return nil, err
	}

	// --- LRU-кэш медиазаписей ---

	cfg.MediaCacheSize, err = getEnvInt("MM_MEDIA_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("MM_MEDIA_CACHE_SIZE: %w", err)
	}
	cfg.MediaCacheTTL, err = getEnvDuration("MM_MEDIA_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("MM_MEDIA_CACHE_TTL: %w", err)
	}

	// --- Zerobounce ---

	// ZEROBOUNCE_API_KEYS — ключи через пробел; пусто — внешняя
	// проверка адресов отключена (решают локальные эвристики)
	cfg.ZerobounceAPIKeys = strings.Fields(getEnvDefault("ZEROBOUNCE_API_KEYS", ""))

	cfg.ZerobounceTimeout, err = getEnvDuration("MM_ZEROBOUNCE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_ZEROBOUNCE_TIMEOUT: %w", err)
	}

	// --- Keycloak / JWT ---

	cfg.KeycloakBaseURL, err = getEnvRequired("KEYCLOAK_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.KeycloakRealm, err = getEnvRequired("KEYCLOAK_REALM")
	if err != nil {
		return nil, err
	}

	cfg.JWTIssuer = getEnvDefault("MM_JWT_ISSUER", "")
	cfg.JWKSCACertPath = getEnvDefault("MM_JWKS_CA_CERT", "")

	cfg.JWKSClientTimeout, err = getEnvDuration("MM_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_JWKS_CLIENT_TIMEOUT: %w", err)
	}
	cfg.JWKSRefreshInterval, err = getEnvDuration("MM_JWKS_REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("MM_JWKS_REFRESH_INTERVAL: %w", err)
	}
	cfg.JWTLeeway, err = getEnvDuration("MM_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_JWT_LEEWAY: %w", err)
	}

	// --- Почта ---

	cfg.MailHost = getEnvDefault("MAIL_HOST", "")
	cfg.MailPort, err = getEnvInt("MAIL_PORT", 25)
	if err != nil {
		return nil, fmt.Errorf("MAIL_PORT: %w", err)
	}
	cfg.MailUsername = getEnvDefault("MAIL_USERNAME", "")
	cfg.MailPassword = getEnvDefault("MAIL_PASSWORD", "")
	cfg.MailFrom = getEnvDefault("MAIL_FROM", "")
	cfg.MailBCC = getEnvDefault("MAIL_BCC", "")
	cfg.MailReportingTo = getEnvDefault("MAIL_REPORTING_TO", "")

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("MM_DEPHEALTH_GROUP", "luxeawards")
	cfg.DephealthCheckInterval, err = getEnvDuration("MM_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthStorageHealthPath = getEnvDefault("MM_DEPHEALTH_STORAGE_HEALTH_PATH", "/minio/health/live")
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
