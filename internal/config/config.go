// Package config загружает конфигурацию сервисов Vitrina из окружения.
//
// Если в рабочем каталоге есть файл .env, он загружается первым;
// переменные, уже заданные в окружении, не перезаписываются.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid — некорректное значение переменной окружения.
var ErrInvalid = errors.New("invalid configuration")

// Config — конфигурация сервисов.
type Config struct {
	// Хранилище и брокер
	DatabaseURL string
	RabbitMQURL string // пусто — публикация событий отключена

	// HTTP API
	APIPort    string
	CORSOrigin string

	// Кластер
	ClusterIP     string
	Kubeconfig    string
	ChartPath     string
	ExecContainer string

	// Лимиты допуска
	MaxConcurrency  int
	MaxQueueSize    int
	MaxGlobalStores int

	// Таймауты
	ProvisionTimeout time.Duration
	DeleteTimeout    time.Duration
	SettleDelay      time.Duration
	RecoveryDelay    time.Duration

	// StatsSchedule — расписание пересчёта метрик магазинов.
	StatsSchedule string

	// Учётная запись администратора магазина
	AdminUser     string
	AdminEmail    string
	SampleCatalog bool
}

// Load читает конфигурацию из окружения (и .env, если он есть).
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv читает конфигурацию только из окружения.
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		DatabaseURL:   databaseURL(),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		APIPort:       getenv("API_PORT", "8080"),
		CORSOrigin:    getenv("CORS_ORIGIN", "*"),
		ClusterIP:     getenv("CLUSTER_IP", "127.0.0.1"),
		Kubeconfig:    os.Getenv("KUBECONFIG"),
		ChartPath:     getenv("CHART_PATH", "./helm/woocommerce-store"),
		ExecContainer: getenv("EXEC_CONTAINER", "wordpress"),

		MaxConcurrency:  p.int("MAX_CONCURRENCY", 2),
		MaxQueueSize:    p.int("MAX_QUEUE_SIZE", 5),
		MaxGlobalStores: p.int("MAX_GLOBAL_STORES", 50),

		ProvisionTimeout: p.duration("PROVISION_TIMEOUT", 10*time.Minute),
		DeleteTimeout:    p.duration("DELETE_TIMEOUT", 5*time.Minute),
		SettleDelay:      p.duration("SETTLE_DELAY", 15*time.Second),
		RecoveryDelay:    p.duration("RECOVERY_DELAY", 2*time.Second),

		StatsSchedule: getenv("STATS_SCHEDULE", "@every 30s"),

		AdminUser:     getenv("STORE_ADMIN_USER", "admin"),
		AdminEmail:    getenv("STORE_ADMIN_EMAIL", "admin@store.local"),
		SampleCatalog: p.bool("SAMPLE_CATALOG", true),
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if cfg.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("%w: MAX_CONCURRENCY must be positive", ErrInvalid)
	}
	if cfg.MaxQueueSize < 0 {
		return nil, fmt.Errorf("%w: MAX_QUEUE_SIZE must not be negative", ErrInvalid)
	}
	if cfg.MaxGlobalStores <= 0 {
		return nil, fmt.Errorf("%w: MAX_GLOBAL_STORES must be positive", ErrInvalid)
	}
	return cfg, nil
}

// databaseURL возвращает DB_URL или собирает DSN из DB_HOST, DB_PORT и т.д.
func databaseURL() string {
	if dsn := os.Getenv("DB_URL"); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getenv("DB_USER", "vitrina"), getenv("DB_PASSWORD", "vitrina")),
		Host:     getenv("DB_HOST", "localhost") + ":" + getenv("DB_PORT", "5432"),
		Path:     "/" + getenv("DB_NAME", "vitrina"),
		RawQuery: "sslmode=" + getenv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	}
	return nil
}

// parser собирает ошибки разбора, чтобы сообщить обо всех сразу.
type parser struct {
	errs []error
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v))
		return def
	}
	return d
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v))
		return def
	}
	return b
}
