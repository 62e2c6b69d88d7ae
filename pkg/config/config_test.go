package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":          "postgres://localhost/visionrp",
		"SESSION_SIGNING_KEY":   "secret",
		"PAYPAL_CLIENT_ID":      "paypal-client",
		"DISCORD_CLIENT_ID":     "1066739340320964688",
		"DISCORD_CLIENT_SECRET": "discord-secret",
		"DISCORD_REDIRECT_URL":  "http://localhost:8080/auth/callback",
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(mapLookup(requiredEnv()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Minute, cfg.StatusInterval)
	assert.Equal(t, defaultStatusURL, cfg.StatusURL)
	assert.Equal(t, "vehicle-orders", cfg.OrderEventsTopic)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.VisitorIdleTTL)
}

func TestFromLookup_MissingRequiredKeysAreAllReported(t *testing.T) {
	env := requiredEnv()
	delete(env, "DATABASE_URL")
	delete(env, "PAYPAL_CLIENT_ID")
	env["SESSION_SIGNING_KEY"] = "   "

	cfg, err := FromLookup(mapLookup(env))
	require.Error(t, err)
	assert.Nil(t, cfg)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{"DATABASE_URL", "SESSION_SIGNING_KEY", "PAYPAL_CLIENT_ID"}, missing.Keys)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestFromLookup_InvalidTypedValues(t *testing.T) {
	env := requiredEnv()
	env["HTTP_PORT"] = "eighty"
	env["STATUS_INTERVAL"] = "-5s"

	_, err := FromLookup(mapLookup(env))
	require.Error(t, err)
	assert.ErrorContains(t, err, "HTTP_PORT")
	assert.ErrorContains(t, err, "STATUS_INTERVAL")
}

func TestFromLookup_BrokerList(t *testing.T) {
	env := requiredEnv()
	env["KAFKA_BROKERS"] = "kafka-1:9092, kafka-2:9092,,"

	cfg, err := FromLookup(mapLookup(env))
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}
