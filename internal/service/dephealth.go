// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Media Module мониторит:
//   - Keycloak — HTTP checker к JWKS endpoint (critical: без него не
//     проходит ни один авторизованный запрос)
//   - объектное хранилище — HTTP checker к health endpoint (critical)
//
// MongoDB через SDK не мониторится: её состояние отражает readiness
// probe /health/ready (ping при каждом запросе).
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (e.g. "media-module")
//   - group — имя группы в метриках (MM_DEPHEALTH_GROUP)
//   - keycloakURL — базовый URL Keycloak
//   - keycloakHealthPath — probe path (JWKS endpoint realm-а)
//   - storageURL — endpoint объектного хранилища
//   - storageHealthPath — probe path хранилища (MM_DEPHEALTH_STORAGE_HEALTH_PATH)
//   - checkInterval — интервал проверки зависимостей (MM_DEPHEALTH_CHECK_INTERVAL)
//   - isEntry — при true добавляет лейбл isentry=yes ко всем зависимостям (DEPHEALTH_ISENTRY)
func NewDephealthService(
	serviceID string,
	group string,
	keycloakURL string,
	keycloakHealthPath string,
	storageURL string,
	storageHealthPath string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, keycloakURL, keycloakHealthPath,
		storageURL, storageHealthPath, checkInterval, isEntry, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	keycloakURL string,
	keycloakHealthPath string,
	storageURL string,
	storageHealthPath string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, keycloakURL, keycloakHealthPath,
		storageURL, storageHealthPath, checkInterval, isEntry,
		logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	serviceID string,
	group string,
	keycloakURL string,
	keycloakHealthPath string,
	storageURL string,
	storageHealthPath string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	kcDepOpts := []dephealth.DependencyOption{
		dephealth.FromURL(keycloakURL),
		dephealth.WithHTTPHealthPath(keycloakHealthPath),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if isEntry {
		kcDepOpts = append(kcDepOpts, dephealth.WithLabel("isentry", "yes"))
	}
	if parsed, err := url.Parse(keycloakURL); err == nil && parsed.Scheme == "https" {
		kcDepOpts = append(kcDepOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	stDepOpts := []dephealth.DependencyOption{
		dephealth.FromURL(storageURL),
		dephealth.WithHTTPHealthPath(storageHealthPath),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if isEntry {
		stDepOpts = append(stDepOpts, dephealth.WithLabel("isentry", "yes"))
	}

	opts := make([]dephealth.Option, 0, 3+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP("keycloak", kcDepOpts...),
		dephealth.HTTP("object-storage", stDepOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (Keycloak + объектное хранилище)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
