// Package config предоставляет структуры и функции для загрузки конфигурации сервиса
// из YAML-файла (CONFIG_PATH), переменных окружения и файлов .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Окружения запуска. Напоминания планируются только в EnvProduction.
const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Транспорты запуска напоминаний.
const (
	TransportHTTP = "http"
	TransportAMQP = "amqp"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	JWTToken        `yaml:"jwttoken"`
	Reminder        `yaml:"reminder"`
	RateLimit       `yaml:"rate_limit"`
	BcryptCost      int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Storage структура для выбора и настройки хранилища
type Storage struct {
	Driver          string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	PostgresURL     string `yaml:"postgres_url" env:"DB_URI"`
	MongoURL        string `yaml:"mongo_url" env:"MONGO_URI"`
	MongoDatabase   string `yaml:"mongo_database" env-default:"subscription_tracker"`
	ConnectAttempts int    `yaml:"connect_attempts" env-default:"3"`
}

// RedisConnection структура для настройки подключения к redis. Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis  string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	PasswordRedis string        `yaml:"password" env:"REDIS_PASSWORD"`
	UserRedis     string        `yaml:"user"`
	DBRedis       int           `yaml:"db"`
	MaxRetries    int           `yaml:"max_retries"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	TimeoutRedis  time.Duration `yaml:"timeoutredis"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_EXPIRES_IN" env-default:"24h"`
}

// Reminder структура для настройки запуска напоминаний
type Reminder struct {
	Transport   string        `yaml:"transport" env-default:"http"`
	ServerURL   string        `yaml:"server_url" env:"SERVER_URL"`
	QStashURL   string        `yaml:"qstash_url" env:"QSTASH_URL" env-default:"https://qstash.upstash.io"`
	QStashToken string        `yaml:"qstash_token" env:"QSTASH_TOKEN"`
	AMQPURL     string        `yaml:"amqp_url" env:"AMQP_URL"`
	Exchange    string        `yaml:"exchange" env-default:"reminders"`
	RoutingKey  string        `yaml:"routing_key" env-default:"subscription.reminder"`
	MaxInFlight int           `yaml:"max_in_flight" env-default:"8"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
}

// RateLimit структура для настройки ограничения частоты запросов
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// IsProduction сообщает, запущен ли сервис в production-окружении.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load читает файлы .env, затем YAML-конфиг по пути path с переопределением из окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// loadDotEnv загружает .env и .env.<APP_ENV>.local, если они есть. Уже заданные переменные не перезаписываются.
func loadDotEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}
	for _, file := range []string{".env", fmt.Sprintf(".env.%s.local", env)} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for postgres driver")
		}
	case DriverMongo:
		if c.MongoURL == "" {
			return errors.New("storage.mongo_url is required for mongo driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}

	switch c.Transport {
	case TransportHTTP, TransportAMQP:
	default:
		return fmt.Errorf("unknown reminder transport %q", c.Transport)
	}
	if c.IsProduction() && c.ServerURL == "" {
		return errors.New("reminder.server_url is required in production")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  MongoDatabase: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"JWTToken:\n"+
			"  SecretConfigured: %t\n"+
			"  TokenTTL: %s\n"+
			"Reminder:\n"+
			"  Transport: %s\n"+
			"  ServerURL: %s\n"+
			"  MaxInFlight: %d\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Driver,
		c.MongoDatabase,
		c.AddressRedis,
		c.DBRedis,
		c.JWTSecretKey != "",
		c.TokenTTL,
		c.Transport,
		c.ServerURL,
		c.MaxInFlight,
	)
}
