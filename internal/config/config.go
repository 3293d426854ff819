// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	JWTToken                `yaml:"jwt_token"`
	OpenAI                  `yaml:"openai"`
	Gumroad                 `yaml:"gumroad"`
	WebhookLog              `yaml:"webhook_log"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает redis: лог вебхуков хранится в памяти процесса, кеш резюме не используется.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env-default:"3s"`
}

// RabbitMQ структура для настройки подключения к брокеру.
// Пустой URL отключает публикацию уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	RabbitMQExchange   string        `yaml:"exchange" env-default:"premium"`
	ReminderInterval   time.Duration `yaml:"reminder_interval" env:"REMINDER_INTERVAL" env-default:"12h"`
}

// SMTP структура для отправки писем сервисом уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
	SMTPFrom string `yaml:"from" env:"SMTP_FROM"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// OpenAI настройки генерации текста резюме
type OpenAI struct {
	OpenAIKey         string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	OpenAIModel       string        `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
	OpenAIMaxTokens   int           `yaml:"max_tokens" env-default:"1500"`
	OpenAITemperature float32       `yaml:"temperature" env-default:"0.7"`
	OpenAITimeout     time.Duration `yaml:"timeout" env-default:"30s"`
}

// Gumroad настройки платёжного провайдера и обработки вебхуков
type Gumroad struct {
	MonthlyProductID   string `yaml:"monthly_product_id" env:"MONTHLY_SUBSCRIPTION_PRODUCT_ID"`
	YearlyProductID    string `yaml:"yearly_product_id" env:"YEARLY_SUBSCRIPTION_PRODUCT_ID"`
	WebhookSecret      string `yaml:"webhook_secret" env:"GUMROAD_WEBHOOK_SECRET"`
	AppSecret          string `yaml:"app_secret" env:"GUMROAD_APP_SECRET"`
	AppID              string `yaml:"app_id" env:"GUMROAD_APP_ID"`
	WebhookURL         string `yaml:"webhook_url" env:"GUMROAD_WEBHOOK_URL"`
	RelayEmailDomain   string `yaml:"relay_email_domain" env:"GUMROAD_RELAY_EMAIL_DOMAIN" env-default:"customers.gumroad.com"`
	CreateMissingUsers bool   `yaml:"create_missing_users" env:"GUMROAD_CREATE_MISSING_USERS" env-default:"true"`
}

// WebhookLog настройки отладочного лога вебхуков
type WebhookLog struct {
	WebhookLogSize int `yaml:"size" env-default:"10"`
}

// SigningSecret возвращает секрет для проверки подписи вебхуков.
// GUMROAD_APP_SECRET используется как устаревший синоним, если основной секрет не задан.
func (g Gumroad) SigningSecret() string {
	if g.WebhookSecret != "" {
		return g.WebhookSecret
	}
	return g.AppSecret
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из файла CONFIG_PATH
// и переменных окружения. Файл .env, если он есть, загружается заранее.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// String выводит конфиг без секретов
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ: %s\n"+
			"OpenAI model: %s\n"+
			"Gumroad:\n"+
			"  MonthlyProductID: %s\n"+
			"  YearlyProductID: %s\n"+
			"  RelayEmailDomain: %s\n"+
			"  SignatureCheck: %t\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.RabbitMQURL,
		c.OpenAIModel,
		c.MonthlyProductID,
		c.YearlyProductID,
		c.RelayEmailDomain,
		c.SigningSecret() != "",
	)
}
