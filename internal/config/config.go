// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Telegram                `yaml:"telegram"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst   int           `yaml:"rate_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	ProfileTTL   time.Duration `yaml:"profile_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура с секретами бота для проверки initData и вебхуков оплаты
type Telegram struct {
	BotToken      string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	WebhookSecret string        `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET" env-required:"true"`
	AuthMaxAge    time.Duration `yaml:"auth_max_age" env-default:"5m"`
}

// RabbitMQ структура для настройки публикации событий
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"progression"`
}

// MustLoad функция для загрузки конфига, путь к файлу берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"  ProfileTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Telegram:\n"+
			"  AuthMaxAge: %s\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.MaxRetries,
		c.ProfileTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.AuthMaxAge,
		c.Exchange,
	)
}
