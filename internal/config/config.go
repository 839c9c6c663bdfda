package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Access levels accepted by the ACCESS_* settings.
const (
	AccessPublic        = "public"
	AccessAuthenticated = "authenticated"
	AccessAdmin         = "admin"
)

// Auth modes.
const (
	AuthModeJWT    = "jwt"
	AuthModeStatic = "static"
)

type Config struct {
	Env     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Logger  LoggerConfig  `yaml:"logger"`
	Auth    AuthConfig    `yaml:"auth"`
	Access  AccessConfig  `yaml:"access"`
	Query   QueryConfig   `yaml:"query"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DB" env-default:"shop"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT"`
}

// AuthConfig selects the identity resolver. AllowAdminSignup lets signup
// create admin accounts; off, admins are created out of band.
type AuthConfig struct {
	Mode             string        `yaml:"mode" env:"AUTH_MODE" env-default:"jwt"`
	JWTSecret        string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	TokenTTL         time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
	AdminEmail       string        `yaml:"admin_email" env:"AUTH_ADMIN_EMAIL" env-default:"admin@example.com"`
	AllowAdminSignup bool          `yaml:"allow_admin_signup" env:"AUTH_ALLOW_ADMIN_SIGNUP" env-default:"false"`
}

// AccessConfig sets the level required for each route group.
type AccessConfig struct {
	ProductWrite string `yaml:"product_write" env:"ACCESS_PRODUCT_WRITE" env-default:"admin"`
	OrderRead    string `yaml:"order_read" env:"ACCESS_ORDER_READ" env-default:"public"`
	OrderWrite   string `yaml:"order_write" env:"ACCESS_ORDER_WRITE" env-default:"public"`
}

type QueryConfig struct {
	// StrictIDFilters rejects malformed id query filters with 400 instead of dropping them.
	StrictIDFilters bool `yaml:"strict_id_filters" env:"QUERY_STRICT_ID_FILTERS" env-default:"false"`
}

type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"shop"`
}

// LoadConfig reads .env (when present), then the optional YAML file at path,
// then the environment.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("error loading .env file:", err)
		}
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
		log.Printf("config file not found at %s, using environment only", path)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=%s", AuthModeJWT)
		}
	case AuthModeStatic:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	for name, level := range map[string]string{
		"ACCESS_PRODUCT_WRITE": c.Access.ProductWrite,
		"ACCESS_ORDER_READ":    c.Access.OrderRead,
		"ACCESS_ORDER_WRITE":   c.Access.OrderWrite,
	} {
		switch level {
		case AccessPublic, AccessAuthenticated, AccessAdmin:
		default:
			return fmt.Errorf("%s: unknown access level %q", name, level)
		}
	}
	return nil
}

func MustLoad() *Config {
	cfg, err := LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}
