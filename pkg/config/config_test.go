package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("OPENAI_MODEL")
	os.Unsetenv("PIPELINE_STAGE_TIMEOUT")
	os.Unsetenv("PDF_RENDER_SCALE")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 60, cfg.OpenAI.RateLimitRPM)
	assert.Equal(t, 120*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, "pdftoppm", cfg.Documents.PDFToPPMPath)
	assert.Equal(t, 2, cfg.Documents.Scale)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	os.Setenv("PIPELINE_STAGE_TIMEOUT", "45s")
	os.Setenv("OTEL_ENABLED", "true")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("OPENAI_MODEL")
		os.Unsetenv("PIPELINE_STAGE_TIMEOUT")
		os.Unsetenv("OTEL_ENABLED")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.StageTimeout)
	assert.True(t, cfg.OTEL.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	os.Setenv("SERVER_PORT", "not-a-port")
	os.Setenv("PIPELINE_STAGE_TIMEOUT", "soon")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("PIPELINE_STAGE_TIMEOUT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Pipeline.StageTimeout)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "rx",
		Password: "secret",
		Database: "rxsentinel",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=rx password=secret dbname=rxsentinel sslmode=require",
		c.DatabaseDSN(),
	)
}

func TestRedisAddr(t *testing.T) {
	c := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", c.RedisAddr())
}
