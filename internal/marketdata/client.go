// Package marketdata отвечает за получение рыночных данных от внешнего
// источника: котировки рынков и параметры ликвидности по pair index.
package marketdata

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"liqcalc/pkg/ratelimit"
	"liqcalc/pkg/retry"
	"liqcalc/pkg/utils"
)

// json - jsoniter в режиме совместимости со стандартной библиотекой.
// Декодирование ответов источника лежит на горячем пути мониторинга.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig настройки HTTP клиента источника данных
type ClientConfig struct {
	// BaseURL - корень REST API источника (без завершающего /)
	BaseURL string

	// APIKey - ключ источника, добавляется в заголовок X-API-KEY.
	// Пустой ключ - публичные endpoint'ы без авторизации
	APIKey string

	// Таймауты соединения
	ConnectTimeout time.Duration // установка TCP соединения (default: 5s)
	RequestTimeout time.Duration // общий таймаут запроса (default: 10s)

	// Connection pooling
	MaxIdleConns        int           // default: 100
	MaxIdleConnsPerHost int           // default: 10
	IdleConnTimeout     time.Duration // default: 90s

	// Rate limiting: средняя частота и burst запросов к источнику
	RateLimit float64 // default: 10 req/s
	RateBurst int     // default: 20

	// Retry - конфигурация повторов. Zero value заменяется на
	// retry.DefaultConfig()
	Retry retry.Config
}

// DefaultClientConfig возвращает конфигурацию по умолчанию
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:             strings.TrimRight(baseURL, "/"),
		ConnectTimeout:      5 * time.Second,
		RequestTimeout:      10 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		RateLimit:           10,
		RateBurst:           20,
		Retry:               retry.DefaultConfig(),
	}
}

// Client - общий HTTP клиент источника рыночных данных.
//
// Поверх http.Client добавляет:
// - rate limiting (token bucket), чтобы не упираться в лимиты источника
// - retry с exponential backoff на временных ошибках
// - декодирование JSON через jsoniter
//
// Все публичные методы принимают context и уважают его отмену.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *ratelimit.RateLimiter
	logger  *utils.Logger
}

// NewClient создаёт клиента источника данных
func NewClient(cfg ClientConfig, logger *utils.Logger) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialDelay == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 5 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		// Ответы маленькие, сжатие только добавляет latency
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		limiter: ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:  logger.WithComponent("marketdata.client"),
	}
}

// BaseURL возвращает корень API источника
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Close закрывает idle соединения. Вызывается при graceful shutdown.
func (c *Client) Close() {
	if transport, ok := c.http.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// getJSON выполняет GET запрос и декодирует JSON-ответ в out.
//
// Порядок: rate limiter → запрос с retry → декодирование.
// 4xx (кроме 429) не retry'ятся: повтор того же запроса не поможет.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	cfg := c.cfg.Retry
	cfg.RetryIf = retry.IsRetryable
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("retrying market data request",
			utils.String("url", reqURL),
			utils.Int("attempt", attempt),
			utils.Err(err),
		)
	}

	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return c.doGet(ctx, reqURL)
	}, cfg)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}

// doGet выполняет одиночный GET запрос без retry
func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.Temporary(fmt.Errorf("source returned %d", resp.StatusCode))
	default:
		return nil, retry.Permanent(fmt.Errorf("source returned %d: %s", resp.StatusCode, truncate(body, 200)))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
