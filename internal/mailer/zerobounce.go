package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"

	"github.com/luxeawards/media-module/internal/cache"
)

const (
	// keyUsageCacheKey — ключ, под которым хранится индекс последнего
	// использованного API-ключа. Без TTL: индекс живёт между перезапусками.
	keyUsageCacheKey = "zerobounce.key.usage"

	// emailCachePrefix — префикс ключей с закэшированными вердиктами.
	emailCachePrefix = "zerobounce.email."

	// emailCacheTTL — срок жизни вердикта по адресу.
	emailCacheTTL = 12 * time.Hour

	defaultBaseURL = "https://api.zerobounce.net/v2"
)

// zerobounceResponse — статусная часть ответа Zerobounce.
// Остальные поля ответа для классификации не нужны.
type zerobounceResponse struct {
	Status    string `json:"status"`
	SubStatus string `json:"sub_status"`
}

// keyUsage — счётчик round-robin перебора API-ключей.
type keyUsage struct {
	KeyIndex int `json:"keyIndex"`
}

// ZerobounceValidator проверяет адреса в два этапа: сначала дешёвые
// локальные эвристики (синтаксис, MX, одноразовые домены), затем —
// при необходимости — запрос к Zerobounce с round-robin перебором
// ключей и кэшированием вердикта. Любой сбой внешнего сервиса
// трактуется в пользу адреса.
type ZerobounceValidator struct {
	cache    *cache.Service
	keys     []string
	verifier *emailverifier.Verifier
	client   *http.Client
	baseURL  string
	logger   *slog.Logger
}

// NewZerobounceValidator создаёт валидатор. keys может быть пустым:
// тогда внешний сервис не опрашивается и решают только локальные
// эвристики.
func NewZerobounceValidator(cacheSvc *cache.Service, keys []string, timeout time.Duration, logger *slog.Logger) *ZerobounceValidator {
	return &ZerobounceValidator{
		cache:    cacheSvc,
		keys:     keys,
		verifier: emailverifier.NewVerifier().EnableDomainSuggest(),
		client:   &http.Client{Timeout: timeout},
		baseURL:  defaultBaseURL,
		logger:   logger.With(slog.String("component", "zerobounce")),
	}
}

// IsValid реализует Validator.
func (v *ZerobounceValidator) IsValid(ctx context.Context, email string) bool {
	if v.localReject(email) {
		v.logger.Debug("Адрес отклонён локальными эвристиками",
			slog.String("email", email))
		return false
	}

	var cached zerobounceResponse
	if ok, err := v.cache.Get(ctx, emailCachePrefix+email, &cached); err == nil && ok {
		return classify(cached)
	}

	if len(v.keys) == 0 {
		return true
	}

	usage := keyUsage{KeyIndex: -1}
	if _, err := v.cache.Get(ctx, keyUsageCacheKey, &usage); err != nil {
		usage.KeyIndex = -1
	}
	index := usage.KeyIndex + 1
	if index < 0 || index >= len(v.keys) {
		index = 0
	}

	resp, err := v.query(ctx, v.keys[index], email)
	if err != nil {
		v.logger.Warn("Zerobounce недоступен, адрес принят без проверки",
			slog.String("email", email), slog.String("error", err.Error()))
		return true
	}

	if err := v.cache.Set(ctx, emailCachePrefix+email, resp, emailCacheTTL); err != nil {
		v.logger.Debug("Не удалось закэшировать вердикт", slog.String("error", err.Error()))
	}
	if err := v.cache.Set(ctx, keyUsageCacheKey, keyUsage{KeyIndex: index}, 0); err != nil {
		v.logger.Debug("Не удалось сохранить индекс ключа", slog.String("error", err.Error()))
	}

	return classify(resp)
}

// localReject возвращает true, когда адрес можно отклонить без
// обращения к внешнему сервису. Неубедительные результаты (ошибка
// верификатора) отклонением не считаются.
func (v *ZerobounceValidator) localReject(email string) bool {
	if v.verifier == nil {
		return false
	}
	ret, err := v.verifier.Verify(email)
	if err != nil {
		return false
	}
	switch {
	case !ret.Syntax.Valid:
		return true
	case !ret.HasMxRecords:
		return true
	case ret.Disposable:
		return true
	case ret.Suggestion != "":
		// Опечатка в домене: gmial.com вместо gmail.com и т.п.
		return true
	}
	return false
}

// query выполняет один запрос validate с заданным API-ключом.
func (v *ZerobounceValidator) query(ctx context.Context, apiKey, email string) (zerobounceResponse, error) {
	u, err := url.Parse(v.baseURL + "/validate")
	if err != nil {
		return zerobounceResponse{}, fmt.Errorf("разбор адреса Zerobounce: %w", err)
	}
	q := u.Query()
	q.Set("api_key", apiKey)
	q.Set("email", email)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return zerobounceResponse{}, fmt.Errorf("формирование запроса: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return zerobounceResponse{}, fmt.Errorf("запрос к Zerobounce: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zerobounceResponse{}, fmt.Errorf("Zerobounce ответил статусом %d", resp.StatusCode)
	}
	var ret zerobounceResponse
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return zerobounceResponse{}, fmt.Errorf("разбор ответа Zerobounce: %w", err)
	}
	return ret, nil
}

// classify переводит статус Zerobounce в вердикт. Неизвестные статусы
// трактуются в пользу адреса.
func classify(resp zerobounceResponse) bool {
	switch resp.Status {
	case "spamtrap", "invalid":
		return false
	case "valid", "catch-all", "unknown", "abuse":
		return true
	case "do_not_mail":
		switch resp.SubStatus {
		case "disposable", "global_suppression", "toxic":
			return false
		}
		return true
	}
	return true
}
