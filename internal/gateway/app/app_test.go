package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"annotator/internal/gateway/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:          ":0",
		Env:           "test",
		LogLevel:      "debug",
		SessionStore:  config.StoreSQLite,
		SQLitePath:    filepath.Join(dir, "wizard.db"),
		SessionMax:    4,
		ScreenshotDir: filepath.Join(dir, "shots"),
		Catalog:       config.CatalogConfig{Mode: config.CatalogDemo},
	}
}

func TestNewWiresStoresAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, a.Shutdown(ctx))
}

func TestNewRejectsBrokenCatalogFixture(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Fixture = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}
