package config

import (
	"testing"

	"food-delivery-platform/apperr"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestMissingSecretIsConfigurationError(t *testing.T) {
	_, err := fromViper(newViper(nil))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"jwt_secret": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "log", cfg.Mail.Driver)
	assert.Equal(t, "orders.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "0.05", cfg.Affiliate.CommissionRate.String())
	assert.False(t, cfg.Auth.ExposeResetToken)
	assert.False(t, cfg.IsProduction())
}

func TestListsAndValidation(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"jwt_secret":           "s3cret",
		"kafka_brokers":        "k1:9092, k2:9092,",
		"cors_allowed_origins": "https://a.example,https://b.example",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)

	_, err = fromViper(newViper(map[string]any{"jwt_secret": "x", "db_enable_rls": true}))
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	_, err = fromViper(newViper(map[string]any{"jwt_secret": "x", "affiliate_commission_rate": "1.5"}))
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	_, err = fromViper(newViper(map[string]any{"jwt_secret": "x", "mail_driver": "smtp"}))
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestOpenDBInMemory(t *testing.T) {
	db, err := OpenDB(DBConfig{Driver: "sqlite", DSN: "file::memory:"}, logrus.New())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("order_events"))
	assert.True(t, db.Migrator().HasTable("product_option_groups"))
}
