package api

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aouyang1/photocontest/thumbnail"
	"github.com/aouyang1/photocontest/util"
)

type filenameSource interface {
	Filenames(ctx context.Context) (mapset.Set[string], error)
}

// UploadJanitor removes uploaded files that no photo references, such as those left behind when
// a request died between saving the file and inserting the row. Files younger than the grace
// period are kept since their row may still be on its way.
type UploadJanitor struct {
	uploadDir string
	db        filenameSource
	grace     time.Duration
	interval  time.Duration

	now func() time.Time
}

func NewUploadJanitor(uploadDir string, db filenameSource, grace, interval time.Duration) *UploadJanitor {
	return &UploadJanitor{
		uploadDir: uploadDir,
		db:        db,
		grace:     grace,
		interval:  interval,
		now:       time.Now,
	}
}

type fileInfo struct {
	name    string
	modTime time.Time
	path    string
}

func (j *UploadJanitor) getCurrentFiles(dir string) (mapset.Set[string], []fileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	currentFiles := mapset.NewThreadUnsafeSet[string]()
	var fileInfos []fileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := util.NormalizedExt(name); !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		currentFiles.Add(name)
		fileInfos = append(fileInfos, fileInfo{
			name:    name,
			modTime: info.ModTime(),
			path:    filepath.Join(dir, name),
		})
	}
	return currentFiles, fileInfos, nil
}

// Sweep removes orphaned uploads and thumbnails whose photo is gone, returning the removed
// upload names.
func (j *UploadJanitor) Sweep(ctx context.Context) ([]string, error) {
	referenced, err := j.db.Filenames(ctx)
	if err != nil {
		return nil, err
	}

	currentFiles, fileInfos, err := j.getCurrentFiles(j.uploadDir)
	if err != nil {
		return nil, err
	}

	cutoff := j.now().Add(-j.grace)
	orphans := currentFiles.Difference(referenced)

	var removed []string
	for _, f := range fileInfos {
		if !orphans.Contains(f.name) || f.modTime.After(cutoff) {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			slog.Warn("unable to remove orphaned upload", "name", f.name, "error", err)
			continue
		}
		removed = append(removed, f.name)
	}
	slices.Sort(removed)

	j.sweepThumbnails(referenced, cutoff)

	if len(removed) > 0 {
		slog.Info("removed orphaned uploads", "count", len(removed), "names", removed)
	}
	return removed, nil
}

func (j *UploadJanitor) sweepThumbnails(referenced mapset.Set[string], cutoff time.Time) {
	thumbDir := filepath.Join(j.uploadDir, thumbnail.DirName)
	_, thumbs, err := j.getCurrentFiles(thumbDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to read thumbnail directory", "path", thumbDir, "error", err)
		}
		return
	}

	wanted := mapset.NewThreadUnsafeSet[string]()
	for name := range referenced.Iter() {
		wanted.Add(thumbnail.Name(name))
	}

	for _, f := range thumbs {
		if wanted.Contains(f.name) || f.modTime.After(cutoff) {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			slog.Warn("unable to remove orphaned thumbnail", "name", f.name, "error", err)
		}
	}
}

func (j *UploadJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Sweep(ctx); err != nil {
			slog.Warn("error while sweeping uploads", "path", j.uploadDir, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
