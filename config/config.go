package config

import (
	"strings"
	"time"

	"food-delivery-platform/apperr"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Port      string
	LogLevel  string
	DB        DBConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Mail      MailConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Affiliate AffiliateConfig
}

type DBConfig struct {
	Driver          string // sqlite or postgres
	DSN             string
	EnableRLS       bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type MailConfig struct {
	Driver          string // log or ses
	From            string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FrontendURL     string
}

type AuthConfig struct {
	// ExposeResetToken returns password reset tokens in the API response.
	// Only honoured with the log mail driver. Never enable in production.
	ExposeResetToken bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AffiliateConfig struct {
	CommissionRate decimal.Decimal
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "food_delivery.db")
	v.SetDefault("db_enable_rls", false)
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", "30m")
	v.SetDefault("kafka_topic", "orders.events")
	v.SetDefault("mail_driver", "log")
	v.SetDefault("mail_from", "no-reply@food-delivery.local")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("auth_expose_reset_token", false)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("affiliate_commission_rate", "0.05")
}

// Load reads .env (if present) and the process environment.
// A missing JWT_SECRET is a configuration error and must stop startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      v.GetString("app_env"),
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("db_driver")),
			DSN:             v.GetString("db_dsn"),
			EnableRLS:       v.GetBool("db_enable_rls"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		JWT:   JWTConfig{Secret: v.GetString("jwt_secret")},
		Redis: RedisConfig{Addr: v.GetString("redis_addr")},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
		Mail: MailConfig{
			Driver:          strings.ToLower(v.GetString("mail_driver")),
			From:            v.GetString("mail_from"),
			Region:          v.GetString("aws_region"),
			AccessKeyID:     v.GetString("aws_access_key_id"),
			SecretAccessKey: v.GetString("aws_secret_access_key"),
			FrontendURL:     v.GetString("frontend_url"),
		},
		Auth: AuthConfig{ExposeResetToken: v.GetBool("auth_expose_reset_token")},
		CORS: CORSConfig{AllowedOrigins: splitList(v.GetString("cors_allowed_origins"))},
	}

	if cfg.JWT.Secret == "" {
		return nil, apperr.Configuration("JWT_SECRET is required")
	}
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return nil, apperr.Configuration("DB_DRIVER must be sqlite or postgres")
	}
	if cfg.DB.EnableRLS && cfg.DB.Driver != "postgres" {
		return nil, apperr.Configuration("DB_ENABLE_RLS requires the postgres driver")
	}
	switch cfg.Mail.Driver {
	case "log", "ses":
	default:
		return nil, apperr.Configuration("MAIL_DRIVER must be log or ses")
	}

	rate, err := decimal.NewFromString(v.GetString("affiliate_commission_rate"))
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, apperr.Configuration("AFFILIATE_COMMISSION_RATE must be a number between 0 and 1")
	}
	cfg.Affiliate.CommissionRate = rate

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
