package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	// SessionStore selects the wizard store backend: memory, file, sqlite or
	// postgres.
	SessionStore   string
	DatabaseURL    string
	SQLitePath     string
	WizardFilePath string
	SessionMax     int
	// ScreenshotDir enables the disk screenshot store when S3 is not
	// configured.
	ScreenshotDir string
	// ScreenshotURLHosts lists hosts screenshot URLs may be fetched from.
	// Empty refuses URL references.
	ScreenshotURLHosts []string
	// CORSOrigins lists browser origins allowed to call the gateway. Empty
	// allows any origin.
	CORSOrigins []string

	Artifact ArtifactConfig
	Catalog  CatalogConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled &&
		strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

type CatalogConfig struct {
	// Mode is demo (embedded or file fixture) or live (catalog REST API).
	Mode              string
	BaseURL           string
	Token             string
	Fixture           string
	ComponentCategory string
	FunctionCategory  string
}

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	CatalogDemo = "demo"
	CatalogLive = "live"
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	local := strings.EqualFold(env, "local")

	cfg := &Config{
		Port:           normalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), "8081")),
		Env:            env,
		LogLevel:       firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:     firstNonEmpty(strings.TrimSpace(os.Getenv("SQLITE_PATH")), "tmp/wizard.db"),
		WizardFilePath: firstNonEmpty(strings.TrimSpace(os.Getenv("WIZARD_FILE_PATH")), "tmp/wizard_configs.json"),
		ScreenshotDir:      strings.TrimSpace(os.Getenv("SCREENSHOT_DIR")),
		ScreenshotURLHosts: splitList(os.Getenv("SCREENSHOT_URL_HOSTS")),
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
		Artifact:           loadArtifactConfig(env),
		Catalog:            loadCatalogConfig(),
	}
	if local {
		applyLocalDefaults(cfg)
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_STORE")))
	if cfg.SessionStore == "" {
		cfg.SessionStore = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.SessionStore = StorePostgres
		}
	}

	sessionMax, err := intEnv("SESSION_MAX", 256)
	if err != nil {
		return nil, err
	}
	cfg.SessionMax = sessionMax

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory, StoreFile, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	switch c.Catalog.Mode {
	case CatalogDemo:
	case CatalogLive:
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("CATALOG_MODE=live requires CATALOG_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown CATALOG_MODE %q", c.Catalog.Mode)
	}
	if c.SessionMax <= 0 {
		return fmt.Errorf("SESSION_MAX must be positive, got %d", c.SessionMax)
	}
	return nil
}

func loadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Mode:              strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_MODE")), CatalogDemo)),
		BaseURL:           strings.TrimRight(strings.TrimSpace(os.Getenv("CATALOG_BASE_URL")), "/"),
		Token:             strings.TrimSpace(os.Getenv("CATALOG_TOKEN")),
		Fixture:           strings.TrimSpace(os.Getenv("CATALOG_FIXTURE")),
		ComponentCategory: strings.TrimSpace(os.Getenv("CATALOG_COMPONENT_CATEGORY")),
		FunctionCategory:  strings.TrimSpace(os.Getenv("CATALOG_FUNCTION_CATEGORY")),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "annotator-screenshots"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
