package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"liqcalc/pkg/crypto"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	MarketData MarketDataConfig
	Monitor    MonitorConfig
	Logging    LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SecurityConfig - настройки безопасности.
//
// APITokenHash - bcrypt-хеш API токена; пустой отключает аутентификацию
// (режим локальной разработки). DebugUsername/DebugPassword защищают
// /debug/pprof; без них debug endpoints закрыты полностью.
type SecurityConfig struct {
	APITokenHash   string
	DebugUsername  string
	DebugPassword  string
	AllowedOrigins []string // пустой список разрешает все origins
}

// MarketDataConfig - настройки источника рыночных данных
type MarketDataConfig struct {
	// REST API источника котировок и параметров ликвидности
	BaseURL string
	APIKey  string

	// WebSocket поток котировок; пустой URL отключает стрим,
	// котировки приходят только через REST
	WSURL string

	// Кэш параметров ликвидности
	ParamsTTL             time.Duration
	ParamsRefreshInterval time.Duration

	// Rate limiting запросов к источнику
	RateLimit float64
	RateBurst int
}

// MonitorConfig - настройки монитора риска
type MonitorConfig struct {
	CheckInterval time.Duration // интервал прохода по позициям
	QuoteMaxAge   time.Duration // старше - позиция stale
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
	Output string // путь к файлу; пусто = stderr
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "liqcalc"),
			User:            getEnv("DB_USER", "liqcalc"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			APITokenHash:   getEnv("API_TOKEN_HASH", ""),
			DebugUsername:  getEnv("DEBUG_USERNAME", ""),
			DebugPassword:  getEnv("DEBUG_PASSWORD", ""),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", nil),
		},
		MarketData: MarketDataConfig{
			BaseURL:               getEnv("MARKET_DATA_URL", "https://api.example-perps.io"),
			APIKey:                getEnv("MARKET_DATA_API_KEY", ""),
			WSURL:                 getEnv("MARKET_DATA_WS_URL", ""),
			ParamsTTL:             getEnvAsDuration("PARAMS_TTL", 30*time.Second),
			ParamsRefreshInterval: getEnvAsDuration("PARAMS_REFRESH_INTERVAL", 30*time.Second),
			RateLimit:             getEnvAsFloat("MARKET_DATA_RATE_LIMIT", 10),
			RateBurst:             getEnvAsInt("MARKET_DATA_RATE_BURST", 20),
		},
		Monitor: MonitorConfig{
			CheckInterval: getEnvAsDuration("MONITOR_CHECK_INTERVAL", 2*time.Second),
			QuoteMaxAge:   getEnvAsDuration("MONITOR_QUOTE_MAX_AGE", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", ""),
		},
	}

	// Ключ источника может приходить зашифрованным (AES-256-GCM,
	// base64). Открытый MARKET_DATA_API_KEY имеет приоритет
	if cfg.MarketData.APIKey == "" {
		apiKey, err := loadEncryptedAPIKey()
		if err != nil {
			return nil, err
		}
		cfg.MarketData.APIKey = apiKey
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEncryptedAPIKey расшифровывает MARKET_DATA_API_KEY_ENC ключом
// ENCRYPTION_KEY. Обе переменные пустые - ключа просто нет (источник
// без аутентификации); задана одна из двух - ошибка конфигурации.
func loadEncryptedAPIKey() (string, error) {
	encrypted := getEnv("MARKET_DATA_API_KEY_ENC", "")
	keyString := getEnv("ENCRYPTION_KEY", "")

	if encrypted == "" && keyString == "" {
		return "", nil
	}
	if encrypted == "" || keyString == "" {
		return "", fmt.Errorf("MARKET_DATA_API_KEY_ENC and ENCRYPTION_KEY must be set together")
	}

	apiKey, err := crypto.DecryptWithKeyString(encrypted, keyString)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt MARKET_DATA_API_KEY_ENC: %w", err)
	}
	return apiKey, nil
}

// validate проверяет диапазоны и согласованность параметров
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}

	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("MARKET_DATA_URL is required")
	}

	if !strings.HasPrefix(c.MarketData.BaseURL, "http://") && !strings.HasPrefix(c.MarketData.BaseURL, "https://") {
		return fmt.Errorf("MARKET_DATA_URL must start with http:// or https://, got %q", c.MarketData.BaseURL)
	}

	if c.MarketData.WSURL != "" && !strings.HasPrefix(c.MarketData.WSURL, "ws://") && !strings.HasPrefix(c.MarketData.WSURL, "wss://") {
		return fmt.Errorf("MARKET_DATA_WS_URL must start with ws:// or wss://, got %q", c.MarketData.WSURL)
	}

	if c.MarketData.RateLimit <= 0 {
		return fmt.Errorf("MARKET_DATA_RATE_LIMIT must be positive, got %v", c.MarketData.RateLimit)
	}

	if c.MarketData.ParamsTTL <= 0 {
		return fmt.Errorf("PARAMS_TTL must be positive, got %v", c.MarketData.ParamsTTL)
	}

	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("MONITOR_CHECK_INTERVAL must be positive, got %v", c.Monitor.CheckInterval)
	}

	if c.Monitor.QuoteMaxAge < c.Monitor.CheckInterval {
		return fmt.Errorf("MONITOR_QUOTE_MAX_AGE (%v) must not be shorter than MONITOR_CHECK_INTERVAL (%v)",
			c.Monitor.QuoteMaxAge, c.Monitor.CheckInterval)
	}

	// Debug credentials идут парой: одно без другого - ошибка конфигурации
	if (c.Security.DebugUsername == "") != (c.Security.DebugPassword == "") {
		return fmt.Errorf("DEBUG_USERNAME and DEBUG_PASSWORD must be set together")
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice разбирает значение как список через запятую
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
