package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/pkg/config"
)

type upstream struct {
	BaseURL string        `env:"GYMKIT_TEST_API_BASE_URL,required"`
	Timeout time.Duration `env:"GYMKIT_TEST_API_TIMEOUT" envDefault:"30s"`
}

type app struct {
	Name string `env:"GYMKIT_TEST_APP_NAME" envDefault:"gymkit"`
	API  upstream
}

func TestParse(t *testing.T) {
	t.Setenv("GYMKIT_TEST_API_BASE_URL", "http://api.local")
	t.Setenv("GYMKIT_TEST_API_TIMEOUT", "5s")

	cfg, err := config.Parse[app]()
	require.NoError(t, err)
	assert.Equal(t, "gymkit", cfg.Name)
	assert.Equal(t, "http://api.local", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestParse_MissingRequired(t *testing.T) {
	t.Setenv("GYMKIT_TEST_API_BASE_URL", "")
	require.NoError(t, os.Unsetenv("GYMKIT_TEST_API_BASE_URL"))

	_, err := config.Parse[app]()
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustParse[app]() })
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[app](nil), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("GYMKIT_TEST_APP_NAME=first\nGYMKIT_TEST_API_BASE_URL=http://first\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("GYMKIT_TEST_APP_NAME=second\n"), 0o600))

	t.Setenv("GYMKIT_TEST_APP_NAME", "")
	t.Setenv("GYMKIT_TEST_API_BASE_URL", "")
	require.NoError(t, os.Unsetenv("GYMKIT_TEST_APP_NAME"))
	require.NoError(t, os.Unsetenv("GYMKIT_TEST_API_BASE_URL"))

	require.NoError(t, config.LoadEnv(first, second))
	cfg, err := config.Parse[app]()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Name)
	assert.Equal(t, "http://first", cfg.API.BaseURL)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnv)
}
