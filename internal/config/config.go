package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bridge   BridgeConfig
	Sync     SyncConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string

	// Rate limiting входящих sync-запросов: терминалы - дефицитный ресурс,
	// запросы троттлятся до обращения к пулу
	RateLimit float64
	RateBurst float64
}

// DatabaseConfig - настройки подключения к БД с таблицей terminals
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BridgeConfig - настройки terminal bridge (шлюз к нативному API терминала)
type BridgeConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration // таймаут TCP к bridge
	ReadTimeout    time.Duration
	TotalTimeout   time.Duration
}

// SyncConfig - настройки одного вызова синхронизации счета
type SyncConfig struct {
	// Retry для нестабильных чтений терминала
	RetryLimit int
	RetryDelay time.Duration

	// Таймаут авторизации терминала (передается в initialize)
	ConnectTimeout time.Duration

	// Пауза после успешного initialize: терминалу нужно время на прогрев
	SettleDelay time.Duration

	// Окно истории сделок по умолчанию (лет назад от текущего момента)
	HistoryYears int

	// База путей для synthesized-аренды по явному номеру терминала
	TerminalBasePath string

	// Профили расчетов (см. internal/account/policies.go)
	ProfitPolicy string // additive | subtractive
	PipPolicy    string // digits | fixed
}

// SecurityConfig - настройки безопасности API
type SecurityConfig struct {
	// bcrypt-хеш API ключа; пустой хеш отключает auth middleware
	APIKeyHash string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnvAsInt("SERVER_PORT", 4756),
			Host:      getEnv("SERVER_HOST", "0.0.0.0"),
			RateLimit: getEnvAsFloat("RATE_LIMIT", 5),
			RateBurst: getEnvAsFloat("RATE_BURST", 10),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "mtsync"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Bridge: BridgeConfig{
			BaseURL:        getEnv("BRIDGE_BASE_URL", "http://127.0.0.1:4757"),
			ConnectTimeout: getEnvAsDuration("BRIDGE_CONNECT_TIMEOUT", 2*time.Second),
			ReadTimeout:    getEnvAsDuration("BRIDGE_READ_TIMEOUT", 10*time.Second),
			TotalTimeout:   getEnvAsDuration("BRIDGE_TOTAL_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			RetryLimit:       getEnvAsInt("SYNC_RETRY_LIMIT", 3),
			RetryDelay:       getEnvAsDuration("SYNC_RETRY_DELAY", 0),
			ConnectTimeout:   getEnvAsDuration("SYNC_CONNECT_TIMEOUT", 5*time.Second),
			SettleDelay:      getEnvAsDuration("SYNC_SETTLE_DELAY", 250*time.Millisecond),
			HistoryYears:     getEnvAsInt("SYNC_HISTORY_YEARS", 1),
			TerminalBasePath: getEnv("TERMINAL_BASE_PATH", `C:\MQ45\Terminals`),
			ProfitPolicy:     getEnv("SYNC_PROFIT_POLICY", "additive"),
			PipPolicy:        getEnv("SYNC_PIP_POLICY", "digits"),
		},
		Security: SecurityConfig{
			APIKeyHash: getEnv("API_KEY_HASH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет числовые диапазоны и профили расчетов
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Sync.RetryLimit < 1 {
		return fmt.Errorf("SYNC_RETRY_LIMIT must be at least 1, got %d", c.Sync.RetryLimit)
	}

	if c.Sync.RetryLimit > 10 {
		return fmt.Errorf("SYNC_RETRY_LIMIT should not exceed 10, got %d", c.Sync.RetryLimit)
	}

	if c.Sync.ConnectTimeout <= 0 {
		return fmt.Errorf("SYNC_CONNECT_TIMEOUT must be positive, got %v", c.Sync.ConnectTimeout)
	}

	if c.Sync.HistoryYears < 1 {
		return fmt.Errorf("SYNC_HISTORY_YEARS must be at least 1, got %d", c.Sync.HistoryYears)
	}

	switch c.Sync.ProfitPolicy {
	case "additive", "subtractive":
	default:
		return fmt.Errorf("SYNC_PROFIT_POLICY must be additive or subtractive, got %q", c.Sync.ProfitPolicy)
	}

	switch c.Sync.PipPolicy {
	case "digits", "fixed":
	default:
		return fmt.Errorf("SYNC_PIP_POLICY must be digits or fixed, got %q", c.Sync.PipPolicy)
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
