package config

import (
	"os"
	"strings"
)

// applyLocalDefaults points a local run at the docker-compose minio when the
// S3 endpoint is not configured explicitly.
func applyLocalDefaults(cfg *Config) {
	if cfg.Artifact.Endpoint == "" {
		if ep := strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")); ep != "" {
			cfg.Artifact.Endpoint = ep
			cfg.Artifact.Enabled = true
		}
	}
	cfg.Artifact.AccessKey = firstNonEmpty(cfg.Artifact.AccessKey, "annotator")
	cfg.Artifact.SecretKey = firstNonEmpty(cfg.Artifact.SecretKey, "annotator123")
	cfg.Artifact.UseSSL = false
	if cfg.LogLevel == "info" && strings.TrimSpace(os.Getenv("LOG_LEVEL")) == "" {
		cfg.LogLevel = "debug"
	}
}
