package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("RESULT_CACHE_TTL", "")
	t.Setenv("SCORING_BATCH_CONCURRENCY", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "none", cfg.LLMProvider)
	assert.Equal(t, 10*time.Minute, cfg.ResultCacheTTL)
	assert.Equal(t, 4, cfg.BatchConcurrency)
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/pulse")
	t.Setenv("LLM_PROVIDER", "Google")
	t.Setenv("MAIL_PROVIDER", "resend")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RESULT_CACHE_TTL", "90s")
	t.Setenv("WORKER_CONCURRENCY", "nope")

	cfg := Load()
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "http", cfg.MailProvider)
	assert.Equal(t, "s3", cfg.ObjectStoreType)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.Equal(t, 90*time.Second, cfg.ResultCacheTTL)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
}

func TestFromEnvFallsBackOnMalformedValues(t *testing.T) {
	vars := map[string]string{
		"PORT":                      "  9090 ",
		"SCORING_BATCH_CONCURRENCY": "0",
		"WORKER_CONCURRENCY":        "8",
		"RESULT_CACHE_TTL":          "-1m",
		"CORS_ALLOW_ORIGINS":        " , ",
		"MAIL_PROVIDER":             "smtp",
	}
	cfg := fromEnv(func(k string) string { return vars[k] })

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, 8, cfg.WorkerConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.ResultCacheTTL)
	assert.Empty(t, cfg.CORSAllowOrigin)
	assert.Equal(t, "log", cfg.MailProvider)
	assert.Equal(t, "dev", cfg.Env)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	broken := filepath.Join(dir, "broken.env")
	require.NoError(t, os.WriteFile(first, []byte("# local\nPULSE_TEST_KEY=\"from-file\"\nPULSE_TEST_SET=file\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("PULSE_TEST_KEY=second\nPULSE_TEST_EXTRA=extra\n"), 0o600))
	require.NoError(t, os.WriteFile(broken, []byte("PULSE_TEST_BROKEN=ok\nnot a pair\n"), 0o600))
	t.Setenv("PULSE_TEST_KEY", "")
	t.Setenv("PULSE_TEST_SET", "process")
	t.Setenv("PULSE_TEST_EXTRA", "")
	t.Setenv("PULSE_TEST_BROKEN", "")

	loadEnvFiles(filepath.Join(dir, "missing.env"), broken, first, second)
	assert.Equal(t, "from-file", os.Getenv("PULSE_TEST_KEY"))
	assert.Equal(t, "process", os.Getenv("PULSE_TEST_SET"))
	assert.Equal(t, "extra", os.Getenv("PULSE_TEST_EXTRA"))
	assert.Empty(t, os.Getenv("PULSE_TEST_BROKEN"))
}
