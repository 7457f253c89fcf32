// Package config reads the service settings from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr              = "0.0.0.0:8080"
	defaultMaxUploadMB       = 5
	defaultThumbMaxDim       = 480
	defaultBackupInterval    = time.Hour
	defaultJanitorInterval   = 24 * time.Hour
	defaultOrphanGracePeriod = time.Hour
)

type Config struct {
	RootPath    string
	Addr        string
	MaxUploadMB int
	ThumbMaxDim int
	PublicURL   string

	S3Bucket       string
	AWSProfile     string
	BackupInterval time.Duration

	JanitorInterval time.Duration
	OrphanGrace     time.Duration
}

func (c Config) UploadDir() string {
	return filepath.Join(c.RootPath, "uploads")
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.RootPath, "data", "app.db")
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c Config) BackupEnabled() bool {
	return c.S3Bucket != ""
}

// Load reads PC_* variables. Values already in the environment win over those in envFiles;
// missing files are skipped.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
		slog.Info("loaded env file", "path", f)
	}

	cfg := Config{
		RootPath:   envOrDefault("PC_ROOT_PATH", "."),
		Addr:       envOrDefault("PC_ADDR", defaultAddr),
		PublicURL:  os.Getenv("PC_PUBLIC_URL"),
		S3Bucket:   os.Getenv("PC_S3_BUCKET"),
		AWSProfile: os.Getenv("PC_AWS_PROFILE"),
	}

	var err error
	if cfg.MaxUploadMB, err = intEnv("PC_MAX_UPLOAD_MB", defaultMaxUploadMB); err != nil {
		return Config{}, err
	}
	if cfg.ThumbMaxDim, err = intEnv("PC_THUMB_MAX_DIM", defaultThumbMaxDim); err != nil {
		return Config{}, err
	}
	if cfg.BackupInterval, err = durationEnv("PC_BACKUP_INTERVAL", defaultBackupInterval); err != nil {
		return Config{}, err
	}
	if cfg.JanitorInterval, err = durationEnv("PC_JANITOR_INTERVAL", defaultJanitorInterval); err != nil {
		return Config{}, err
	}
	if cfg.OrphanGrace, err = durationEnv("PC_ORPHAN_GRACE", defaultOrphanGracePeriod); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}
