package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aouyang1/photocontest/util"
)

const (
	backupUploadPrefix = "uploads/"
	backupDatabaseKey  = "data/app.db"
	backupSyncTimeout  = 30 * time.Minute
)

// objectStore is the part of S3 the backup manager needs.
type objectStore interface {
	ListKeys(ctx context.Context, prefix string) (mapset.Set[string], error)
	Put(ctx context.Context, key string, body io.Reader) error
}

type s3ObjectStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func (s *s3ObjectStore) ListKeys(ctx context.Context, prefix string) (mapset.Set[string], error) {
	keys := mapset.NewThreadUnsafeSet[string]()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list s3 objects, %s, %w", s.bucket, err)
		}
		for _, object := range page.Contents {
			keys.Add(aws.ToString(object.Key))
		}
	}
	return keys, nil
}

func (s *s3ObjectStore) Put(ctx context.Context, key string, body io.Reader) error {
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}); err != nil {
		return fmt.Errorf("unable to upload object to s3, %s, %w", key, err)
	}
	return nil
}

// snapshotter writes a consistent copy of the database to a file.
type snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

// BackupManager mirrors uploaded photos into an S3 bucket and keeps a copy of the database
// alongside them. Photos are immutable, so only keys missing remotely are uploaded.
type BackupManager struct {
	objects   objectStore
	db        snapshotter
	uploadDir string
	interval  time.Duration
}

func NewBackupManager(ctx context.Context, bucket, profile, uploadDir string, db snapshotter, interval time.Duration) (*BackupManager, error) {
	// Load the Shared AWS Configuration (~/.aws/config)
	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	objects := &s3ObjectStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
	return newBackupManager(objects, db, uploadDir, interval), nil
}

func newBackupManager(objects objectStore, db snapshotter, uploadDir string, interval time.Duration) *BackupManager {
	return &BackupManager{
		objects:   objects,
		db:        db,
		uploadDir: uploadDir,
		interval:  interval,
	}
}

func (b *BackupManager) getLocalFiles() (mapset.Set[string], error) {
	entries, err := os.ReadDir(b.uploadDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", b.uploadDir, err)
	}

	localFiles := mapset.NewThreadUnsafeSet[string]()
	for entry := range slices.Values(entries) {
		if entry.IsDir() {
			continue
		}
		if _, ok := util.NormalizedExt(entry.Name()); !ok {
			continue
		}
		localFiles.Add(backupUploadPrefix + entry.Name())
	}
	return localFiles, nil
}

// Sync uploads every local photo that is not yet in the bucket, then replaces the database copy.
// It returns the number of photos uploaded.
func (b *BackupManager) Sync(ctx context.Context) (int, error) {
	localFiles, err := b.getLocalFiles()
	if err != nil {
		return 0, err
	}

	remoteFiles, err := b.objects.ListKeys(ctx, backupUploadPrefix)
	if err != nil {
		return 0, err
	}

	toUpload := localFiles.Difference(remoteFiles).ToSlice()
	slices.Sort(toUpload)

	uploaded := 0
	if len(toUpload) > 0 {
		slog.Info("backing up photos", "count", len(toUpload))
	}
	for key := range slices.Values(toUpload) {
		if err := b.putFile(ctx, key, filepath.Join(b.uploadDir, path.Base(key))); err != nil {
			slog.Warn("error while backing up photo", "key", key, "error", err)
			continue
		}
		uploaded++
	}

	if err := b.backupDatabase(ctx); err != nil {
		return uploaded, err
	}
	return uploaded, nil
}

func (b *BackupManager) backupDatabase(ctx context.Context) error {
	tmp, err := os.MkdirTemp("", "photocontest-backup-")
	if err != nil {
		return fmt.Errorf("unable to create snapshot directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	snapshot := filepath.Join(tmp, "app.db")
	if err := b.db.Snapshot(ctx, snapshot); err != nil {
		return err
	}
	return b.putFile(ctx, backupDatabaseKey, snapshot)
}

func (b *BackupManager) putFile(ctx context.Context, key, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.objects.Put(ctx, key, f)
}

func (b *BackupManager) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		syncCtx, cancel := context.WithTimeout(ctx, backupSyncTimeout)
		if n, err := b.Sync(syncCtx); err != nil {
			slog.Warn("error while backing up to remote", "error", err)
		} else {
			slog.Info("backup complete", "photos_uploaded", n)
		}
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
