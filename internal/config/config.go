package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Драйверы хранилища заказов.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// EnvPrefix: префикс переменных окружения (OMS_HTTP_ADDR, OMS_POSTGRES_DSN, ...).
const EnvPrefix = "OMS"

// Config описывает настройки запуска приложения.
type Config struct {
	Environment string
	LogLevel    string

	HTTPAddr           string
	GRPCAddr           string
	MetricsAddr        string
	CORSAllowedOrigins []string

	Storage StorageConfig
	Order   OrderConfig
	Kafka   KafkaConfig
	Tracing TracingConfig
}

// StorageConfig выбирает и настраивает хранилище заказов.
type StorageConfig struct {
	Driver       string
	PostgresDSN  string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

// OrderConfig: лимиты обработки заказов.
type OrderConfig struct {
	MaxQuantity     int
	Timeout         time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// KafkaConfig: канал уведомлений для qa/prod.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TracingConfig: экспорт трейсов. Пустой endpoint отключает экспорт.
type TracingConfig struct {
	ServiceName    string
	JaegerEndpoint string
}

// Default возвращает конфигурацию для локального запуска.
func Default() Config {
	return Config{
		Environment:        "dev",
		LogLevel:           "info",
		HTTPAddr:           ":8080",
		GRPCAddr:           ":50051",
		MetricsAddr:        ":9090",
		CORSAllowedOrigins: []string{"*"},
		Storage: StorageConfig{
			Driver:       DriverMemory,
			AutoMigrate:  true,
			MaxOpenConns: 25,
			MaxIdleConns: 25,
		},
		Order: OrderConfig{
			MaxQuantity:     100,
			Timeout:         5 * time.Second,
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Kafka: KafkaConfig{
			Topic: "oms.notifications",
		},
		Tracing: TracingConfig{
			ServiceName: "order-service",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("app.environment", d.Environment)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("http.addr", d.HTTPAddr)
	v.SetDefault("http.cors.allowed_origins", strings.Join(d.CORSAllowedOrigins, ","))
	v.SetDefault("grpc.addr", d.GRPCAddr)
	v.SetDefault("metrics.addr", d.MetricsAddr)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.auto_migrate", d.Storage.AutoMigrate)
	v.SetDefault("postgres.max_open_conns", d.Storage.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Storage.MaxIdleConns)
	v.SetDefault("order.max_quantity", d.Order.MaxQuantity)
	v.SetDefault("order.timeout", d.Order.Timeout)
	v.SetDefault("order.default_page_size", d.Order.DefaultPageSize)
	v.SetDefault("order.max_page_size", d.Order.MaxPageSize)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.jaeger_endpoint", "")
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если задан),
// затем переменные окружения OMS_*. Файл .env в рабочей директории подхватывается, если есть.
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Environment:        strings.TrimSpace(v.GetString("app.environment")),
		LogLevel:           v.GetString("log.level"),
		HTTPAddr:           v.GetString("http.addr"),
		GRPCAddr:           v.GetString("grpc.addr"),
		MetricsAddr:        v.GetString("metrics.addr"),
		CORSAllowedOrigins: stringList(v.Get("http.cors.allowed_origins")),
		Storage: StorageConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
			PostgresDSN:  strings.TrimSpace(v.GetString("postgres.dsn")),
			AutoMigrate:  v.GetBool("postgres.auto_migrate"),
			MaxOpenConns: v.GetInt("postgres.max_open_conns"),
			MaxIdleConns: v.GetInt("postgres.max_idle_conns"),
		},
		Order: OrderConfig{
			MaxQuantity:     v.GetInt("order.max_quantity"),
			Timeout:         v.GetDuration("order.timeout"),
			DefaultPageSize: v.GetInt("order.default_page_size"),
			MaxPageSize:     v.GetInt("order.max_page_size"),
		},
		Kafka: KafkaConfig{
			Brokers: stringList(v.Get("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
		Tracing: TracingConfig{
			ServiceName:    v.GetString("tracing.service_name"),
			JaegerEndpoint: strings.TrimSpace(v.GetString("tracing.jaeger_endpoint")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.MaxOpenConns < 1 {
		errs = append(errs, errors.New("postgres.max_open_conns must be at least 1"))
	}
	if c.Order.MaxQuantity < 1 {
		errs = append(errs, errors.New("order.max_quantity must be at least 1"))
	}
	if c.Order.MaxPageSize < 1 {
		errs = append(errs, errors.New("order.max_page_size must be at least 1"))
	}
	if c.Order.Timeout <= 0 {
		errs = append(errs, errors.New("order.timeout must be positive"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// stringList принимает и YAML-список, и строку через запятую из окружения.
func stringList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = []string{fmt.Sprint(v)}
	}

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
