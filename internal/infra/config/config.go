package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Admin     AdminSettings     `mapstructure:"admin"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection backing the refresh token
// registry and the lockout store. When Enabled is false the service falls
// back to in-process stores suitable for a single instance.
type RedisSettings struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	RefreshPrefix string `mapstructure:"refresh_prefix"`
	LockoutPrefix string `mapstructure:"lockout_prefix"`
}

// KafkaSettings configures the security-event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// JWTSettings carries the shared signing secret and token lifetimes.
type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// AdminSettings holds the platform administrator identity. The admin is not
// an account-store row; id, email, and password are injected configuration.
type AdminSettings struct {
	UserID      int64  `mapstructure:"user_id"`
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
	DisplayName string `mapstructure:"display_name"`
}

// LockoutSettings configures the login-failure lockout policy.
type LockoutSettings struct {
	MaxFailures   int           `mapstructure:"max_failures"`
	Duration      time.Duration `mapstructure:"duration"`
	FailureWindow time.Duration `mapstructure:"failure_window"`
}

// RateLimitSettings configures the per-address token buckets. The auth class
// covers login and refresh; everything else is the general class.
type RateLimitSettings struct {
	Enabled              bool          `mapstructure:"enabled"`
	Window               time.Duration `mapstructure:"window"`
	AuthCapacity         int           `mapstructure:"auth_capacity"`
	GeneralCapacity      int           `mapstructure:"general_capacity"`
	TrustForwardedHeader bool          `mapstructure:"trust_forwarded_header"`
	IdleBucketTTL        time.Duration `mapstructure:"idle_bucket_ttl"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("COUPON")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.refresh_prefix",
		"redis.lockout_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"admin.user_id",
		"admin.email",
		"admin.password",
		"admin.display_name",
		"lockout.max_failures",
		"lockout.duration",
		"lockout.failure_window",
		"rate_limit.enabled",
		"rate_limit.window",
		"rate_limit.auth_capacity",
		"rate_limit.general_capacity",
		"rate_limit.trust_forwarded_header",
		"rate_limit.idle_bucket_ttl",
		"telemetry.metrics_namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if strings.TrimSpace(c.Admin.Email) == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin.email and admin.password are required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coupon-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "coupon")
	v.SetDefault("postgres.password", "coupon_password")
	v.SetDefault("postgres.database", "coupon")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.refresh_prefix", "coupon:refresh")
	v.SetDefault("redis.lockout_prefix", "coupon:lockout")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "coupon")

	v.SetDefault("jwt.access_token_ttl", "30m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("admin.user_id", 1)
	v.SetDefault("admin.display_name", "Administrator")

	v.SetDefault("lockout.max_failures", 5)
	v.SetDefault("lockout.duration", "15m")
	v.SetDefault("lockout.failure_window", "15m")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.auth_capacity", 10)
	v.SetDefault("rate_limit.general_capacity", 100)
	v.SetDefault("rate_limit.trust_forwarded_header", true)
	v.SetDefault("rate_limit.idle_bucket_ttl", "10m")

	v.SetDefault("telemetry.metrics_namespace", "coupon_auth")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "COUPON_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
