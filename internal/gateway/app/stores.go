package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"annotator/internal/annotate/catalog"
	cachescreenshot "annotator/internal/cache/screenshot"
	"annotator/internal/gateway/config"
	shotrepo "annotator/internal/gateway/repository/screenshot"
	"annotator/internal/gateway/repository/wizard"
)

type gatewayStores struct {
	screenshots *cachescreenshot.CachedStore
	wizard      wizard.Store
	closeWizard func() error
}

func initStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gatewayStores, error) {
	shots, err := chooseScreenshotStore(cfg, log)
	if err != nil {
		return nil, err
	}
	wz, closer, err := chooseWizardStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &gatewayStores{screenshots: shots, wizard: wz, closeWizard: closer}, nil
}

func chooseScreenshotStore(cfg *config.Config, log *zap.Logger) (*cachescreenshot.CachedStore, error) {
	var origin shotrepo.Store
	if cfg.Artifact.CanUseS3() {
		s3Cfg := shotrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := shotrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize screenshot s3 store: %w", err)
		}
		log.Info("screenshot store: s3", zap.String("bucket", s3Cfg.Bucket), zap.String("endpoint", s3Cfg.Endpoint))
		origin = s3Store
	} else if cfg.ScreenshotDir != "" {
		disk, err := shotrepo.NewDiskStore(cfg.ScreenshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize screenshot disk store: %w", err)
		}
		log.Info("screenshot store: disk", zap.String("dir", cfg.ScreenshotDir))
		origin = disk
	} else {
		if cfg.Artifact.Enabled {
			log.Warn("screenshot store: using in-memory fallback (s3 config incomplete)")
		}
		origin = shotrepo.NewMemoryStore()
	}
	return cachescreenshot.NewCachedStore(origin, cachescreenshot.DefaultCacheConfig()), nil
}

func chooseWizardStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (wizard.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SessionStore {
	case config.StorePostgres:
		s, err := wizard.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open wizard store: %w", err)
		}
		log.Info("wizard store: postgres")
		return s, s.Close, nil
	case config.StoreSQLite:
		s, err := wizard.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open wizard store: %w", err)
		}
		log.Info("wizard store: sqlite", zap.String("path", cfg.SQLitePath))
		return s, s.Close, nil
	case config.StoreFile:
		log.Info("wizard store: file", zap.String("path", cfg.WizardFilePath))
		return wizard.NewFileStore(cfg.WizardFilePath), noop, nil
	default:
		log.Info("wizard store: in-memory")
		return wizard.NewMemoryStore(), noop, nil
	}
}

// catalogSource returns the catalog seam for the configured mode and, in demo
// mode, the fixture source so its file can be watched.
func catalogSource(cfg *config.Config, log *zap.Logger) (catalog.Source, *catalog.DemoSource, *catalog.CachedSource, error) {
	if cfg.Catalog.Mode == config.CatalogLive {
		live := catalog.NewHTTPSource(cfg.Catalog.BaseURL, cfg.Catalog.Token, 15*time.Second)
		cached := catalog.NewCachedSource(live, 64, 5*time.Minute)
		log.Info("catalog: live", zap.String("base_url", cfg.Catalog.BaseURL))
		return cached, nil, cached, nil
	}
	demo, err := catalog.NewDemoSource(cfg.Catalog.Fixture, log.Named("catalog"))
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("catalog: demo", zap.String("fixture", firstNonEmpty(cfg.Catalog.Fixture, "<built-in>")))
	return demo, demo, nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func catalogFilter(cfg *config.Config) catalog.Filter {
	return catalog.Filter{
		ComponentCategory: cfg.Catalog.ComponentCategory,
		FunctionCategory:  cfg.Catalog.FunctionCategory,
	}
}
