package conf

import (
	"fmt"
	"os"
	"time"

	vd "github.com/bytedance/go-tagexpr/v2/validator"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// Config carries every externally supplied setting. It is built once
// at startup and injected into clients and controllers explicitly;
// nothing else in the tree reads the environment.
type Config struct {
	Port          string        `yaml:"port" vd:"len($)>0"`
	CookieName    string        `yaml:"cookieName" vd:"len($)>0"`
	ConnectorURL  string        `yaml:"connectorURL" vd:"len($)>0"`
	StripeURL     string        `yaml:"stripeURL" vd:"len($)>0"`
	StripeAPIKey  string        `yaml:"stripeAPIKey"`
	AdminusersURL string        `yaml:"adminusersURL" vd:"len($)>0"`
	ProductsURL   string        `yaml:"productsURL" vd:"len($)>0"`
	ClientTimeout time.Duration `yaml:"clientTimeout"`
	SessionTTL    time.Duration `yaml:"sessionTTL"`

	RedisHost     string `yaml:"redisHost"`
	RedisPort     string `yaml:"redisPort"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`

	PostgresHost     string `yaml:"postgresHost"`
	PostgresPort     string `yaml:"postgresPort"`
	PostgresDB       string `yaml:"postgresDB"`
	PostgresUser     string `yaml:"postgresUser"`
	PostgresPassword string `yaml:"postgresPassword"`

	NatsHost     string `yaml:"natsHost"`
	NatsPort     string `yaml:"natsPort"`
	NatsUsername string `yaml:"natsUsername"`
	NatsPassword string `yaml:"natsPassword"`
	NatsSubject  string `yaml:"natsSubject"`

	EventServer    string `yaml:"eventServer"`
	EventAppKey    string `yaml:"eventAppKey"`
	EventAppSecret string `yaml:"eventAppSecret"`
}

// Load builds the config from the environment, optionally overlaid
// by a YAML file named in SELFSERVICE_CONFIG, and validates it.
func Load() (*Config, error) {
	c := &Config{
		Port:          getEnvOrDefault("PORT", "9400"),
		CookieName:    getEnvOrDefault("SESSION_COOKIE_NAME", "selfservice_session"),
		ConnectorURL:  os.Getenv("CONNECTOR_URL"),
		StripeURL:     getEnvOrDefault("STRIPE_HOST", "https://api.stripe.com"),
		StripeAPIKey:  os.Getenv("STRIPE_ACCOUNT_API_KEY"),
		AdminusersURL: os.Getenv("ADMINUSERS_URL"),
		ProductsURL:   os.Getenv("PRODUCTS_URL"),
		ClientTimeout: 15 * time.Second,
		SessionTTL:    3 * time.Hour,

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PostgresHost:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "selfservice"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "password"),

		NatsHost:     getEnvOrDefault("NATS_HOST", "localhost"),
		NatsPort:     getEnvOrDefault("NATS_PORT", "4222"),
		NatsUsername: os.Getenv("NATS_USERNAME"),
		NatsPassword: os.Getenv("NATS_PASSWORD"),
		NatsSubject:  getEnvOrDefault("NATS_SUBJECT", "selfservice.onboarding.events"),

		EventServer:    os.Getenv("EVENT_SERVER"),
		EventAppKey:    os.Getenv("EVENT_APP_KEY"),
		EventAppSecret: os.Getenv("EVENT_APP_SECRET"),
	}

	if path := os.Getenv("SELFSERVICE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		klog.Infof("loaded config overrides from %s", path)
	}

	if err := vd.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	klog.Infof("config loaded, port=%s connector=%s", c.Port, c.ConnectorURL)
	return c, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
