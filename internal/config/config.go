package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"garansi-console/internal/tokenstore"
	"garansi-console/pkg/utils"
)

// Config holds everything the console process needs. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	App        AppConfig
	API        APIConfig
	TokenStore TokenStoreConfig
	DB         DBConfig
	Redis      RedisConfig
	Console    ConsoleConfig
}

type AppConfig struct {
	Env  string
	Host string
	Port int
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TokenStoreConfig struct {
	Driver    string
	Namespace string
	FilePath  string
}

// DBConfig is used only by the postgres token store driver.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is used only by the redis token store driver.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ConsoleConfig struct {
	SearchDebounce time.Duration
	AuditLimit     int
}

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8787
	DefaultAPIBaseURL     = "https://api.garansiplus.id"
	DefaultAPITimeout     = 15 * time.Second
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultAuditLimit     = 500
)

// Load reads .env when present, then the environment. All parse and
// validation problems are reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Host = strings.TrimSpace(os.Getenv("APP_HOST"))
	c.App.Port, parseErrs = optionalInt(parseErrs, "APP_PORT")

	c.API.BaseURL = strings.TrimSpace(os.Getenv("GARANSI_API_BASE_URL"))
	c.API.Timeout, parseErrs = optionalDuration(parseErrs, "GARANSI_API_TIMEOUT")

	c.TokenStore.Driver = strings.ToLower(strings.TrimSpace(os.Getenv("TOKEN_STORE_DRIVER")))
	c.TokenStore.Namespace = strings.TrimSpace(os.Getenv("TOKEN_STORE_NAMESPACE"))
	c.TokenStore.FilePath = strings.TrimSpace(os.Getenv("TOKEN_STORE_FILE"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optionalInt(parseErrs, "DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optionalInt(parseErrs, "REDIS_PORT")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB, parseErrs = optionalInt(parseErrs, "REDIS_DB")

	c.Console.SearchDebounce, parseErrs = optionalDuration(parseErrs, "SEARCH_DEBOUNCE")
	c.Console.AuditLimit, parseErrs = optionalInt(parseErrs, "AUDIT_LIMIT")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate fills defaults and checks the driver-specific settings.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Host == "" {
		c.App.Host = DefaultHost
	}
	if c.App.Port == 0 {
		c.App.Port = DefaultPort
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("GARANSI_API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	} else if c.IsProduction() && u.Scheme != "https" {
		errs = append(errs, errors.New("GARANSI_API_BASE_URL must use https in production"))
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	if c.TokenStore.Driver == "" {
		c.TokenStore.Driver = tokenstore.DriverFile
	}
	if c.TokenStore.Namespace == "" {
		c.TokenStore.Namespace = "default"
	}
	switch c.TokenStore.Driver {
	case tokenstore.DriverFile, tokenstore.DriverMemory:
	case tokenstore.DriverRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis token store"))
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	case tokenstore.DriverPostgres:
		errs = append(errs, c.validateDB()...)
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE_DRIVER must be one of file, memory, redis, postgres, got %q", c.TokenStore.Driver))
	}

	if c.Console.SearchDebounce <= 0 {
		c.Console.SearchDebounce = DefaultSearchDebounce
	}
	if c.Console.AuditLimit <= 0 {
		c.Console.AuditLimit = DefaultAuditLimit
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required for the postgres token store"))
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.Port < 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required for the postgres token store"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required for the postgres token store"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// TokenStoreOptions maps the settings onto the token store factory.
func (c Config) TokenStoreOptions() tokenstore.Config {
	out := tokenstore.Config{
		Driver:    c.TokenStore.Driver,
		Namespace: c.TokenStore.Namespace,
		FilePath:  c.TokenStore.FilePath,
	}
	switch c.TokenStore.Driver {
	case tokenstore.DriverRedis:
		out.Redis = utils.RedisConfig{Addr: c.RedisAddr(), Password: c.Redis.Password, DB: c.Redis.DB}
	case tokenstore.DriverPostgres:
		out.PostgresDSN = c.PostgresDSN()
	}
	return out
}

func optionalInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration such as 15s, got %q", key, v))
	}
	return d, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
