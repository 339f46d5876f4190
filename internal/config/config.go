package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketReports string
	UseSSL        bool
	Region        string
}

type SecurityConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	PasswordAlgorithm  string
	BcryptCost         int
	RevealLoginFailure bool
}

type ReportsConfig struct {
	Schedule      string
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Reports          ReportsConfig
	Metrics          MetricsConfig
	AllowCORSOrigins []string
}

// ReportsEnabled reports whether the login export pipeline has both of its backends.
func (c *AppConfig) ReportsEnabled() bool {
	return c.Redis.Enabled && c.Storage.Enabled
}

// Load reads the API configuration.
func Load() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorker reads the configuration for the report worker, which never signs
// tokens but needs both report backends.
func LoadWorker() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SOLARSMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// variable names used by the original node deployment
	_ = v.BindEnv("postgres.dsn", "SOLARSMART_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("http.port", "SOLARSMART_HTTP_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		errs = append(errs, errors.New("security.jwtsecret is required"))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("security.tokenttl must be positive"))
	}
	switch c.Security.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("security.passwordalgorithm %q is not supported", c.Security.PasswordAlgorithm))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *AppConfig) ValidateWorker() error {
	var errs []error
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if !c.ReportsEnabled() {
		errs = append(errs, errors.New("redis.enabled and storage.enabled must both be set"))
	}
	if strings.TrimSpace(c.Reports.Stream) == "" || strings.TrimSpace(c.Reports.Group) == "" {
		errs = append(errs, errors.New("reports.stream and reports.group are required"))
	}
	if c.Reports.ClaimInterval <= 0 {
		errs = append(errs, errors.New("reports.claiminterval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid worker config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 4000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketreports", "solarsmart-reports")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.tokenttl", "3h")
	v.SetDefault("security.passwordalgorithm", "bcrypt")
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.revealloginfailure", false)

	v.SetDefault("reports.schedule", "0 30 0 * * *") // 00:30 UTC, previous day
	v.SetDefault("reports.stream", "reports:logins")
	v.SetDefault("reports.group", "report-workers")
	v.SetDefault("reports.consumer", "worker-1")
	v.SetDefault("reports.claiminterval", "1m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "solarsmart")

	v.SetDefault("allowcorsorigins", []string{})
}
