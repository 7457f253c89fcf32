package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aouyang1/photocontest/api"
	"github.com/aouyang1/photocontest/api/client"
	"github.com/aouyang1/photocontest/config"
	"github.com/aouyang1/photocontest/contest"
	"github.com/aouyang1/photocontest/live"
	"github.com/aouyang1/photocontest/store"
	"github.com/aouyang1/photocontest/thumbnail"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file to load")
	healthcheck := flag.Bool("healthcheck", false, "probe a running server's /healthz and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *healthcheck {
		os.Exit(probe(cfg.Addr))
	}

	// Create directories if they don't exist
	for _, dir := range []string{cfg.UploadDir(), filepath.Join(cfg.UploadDir(), thumbnail.DirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Initialize database
	database, err := store.NewDatabase(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	registry := contest.DefaultRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub()
	go hub.Run(ctx)

	janitor := api.NewUploadJanitor(cfg.UploadDir(), database, cfg.OrphanGrace, cfg.JanitorInterval)
	go janitor.Run(ctx)

	if cfg.BackupEnabled() {
		backupManager, err := api.NewBackupManager(ctx, cfg.S3Bucket, cfg.AWSProfile, cfg.UploadDir(), database, cfg.BackupInterval)
		if err != nil {
			log.Fatalf("Failed to initialize backup manager: %v", err)
		}
		go backupManager.Run(ctx)
	} else {
		slog.Info("no s3 bucket configured, backups disabled")
	}

	webServer := api.NewWebServer(database, registry, hub, api.Options{
		UploadDir:      cfg.UploadDir(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		ThumbMaxDim:    cfg.ThumbMaxDim,
		PublicURL:      cfg.PublicURL,
	})
	if err := webServer.Start(ctx, cfg.Addr); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

// probe returns the process exit code for a health check against the server on addr.
func probe(addr string) int {
	host := addr
	if strings.HasPrefix(host, "0.0.0.0:") || strings.HasPrefix(host, ":") {
		host = "127.0.0.1:" + host[strings.LastIndex(host, ":")+1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.NewContestClient("http://" + host).Health(ctx); err != nil {
		slog.Error("health check failed", "addr", host, "error", err)
		return 1
	}
	return 0
}
