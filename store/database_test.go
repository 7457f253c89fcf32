package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	d, err := NewDatabase(filepath.Join(t.TempDir(), "data", "app.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// stepClock makes every call to now one second later than the previous one.
func stepClock(d *Database) {
	var mu sync.Mutex
	current := time.Date(2025, 10, 31, 18, 0, 0, 0, time.UTC)
	d.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func createTestPhoto(t *testing.T, d *Database, contest string, categories ...string) int64 {
	t.Helper()

	id, err := d.CreatePhoto(context.Background(), NewPhoto{
		UploaderName: "Tester",
		Categories:   categories,
		Filename:     "photo.jpg",
		Contest:      contest,
	})
	if err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	return id
}

func TestNewDatabaseIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	d, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id := createTestPhoto(t, d, "costumes", "best_costume")
	d.Close()

	// migrations must be a no-op the second time
	d, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer d.Close()

	p, err := d.GetPhoto(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("photo lost across reopen")
	}
}

func TestMigratedContestDefault(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	// rows written without a contest pick up the backfill default
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO photos (uploader_name, categories, filename, created_at)
		VALUES ('Legacy', '["best_costume"]', 'legacy.jpg', ?)
	`, d.now().Format(timeFormat))
	if err != nil {
		t.Fatal(err)
	}

	photos, err := d.ListPhotos(ctx, "costumes")
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 1 || photos[0].UploaderName != "Legacy" {
		t.Errorf("expected the legacy photo in costumes, got %+v", photos)
	}
}

const legacyPhotosWithoutContest = `
	CREATE TABLE photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uploader_name TEXT NOT NULL,
		email TEXT,
		caption TEXT,
		categories TEXT NOT NULL,
		filename TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`

const legacyPhotosWithContest = `
	CREATE TABLE photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uploader_name TEXT NOT NULL,
		email TEXT,
		caption TEXT,
		categories TEXT NOT NULL,
		filename TEXT NOT NULL,
		contest TEXT NOT NULL DEFAULT 'costumes',
		created_at TEXT NOT NULL
	)`

const legacyVotes = `
	CREATE TABLE votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		photo_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		voter_token TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (photo_id) REFERENCES photos(id),
		UNIQUE (voter_token, category)
	)`

// writeLegacyDatabase creates a database the way it looked before goose managed the schema.
func writeLegacyDatabase(t *testing.T, path string, stmts ...string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
}

func TestOpenLegacyDatabase(t *testing.T) {
	tests := []struct {
		name   string
		photos string
		insert string
	}{
		{
			name:   "without contest column",
			photos: legacyPhotosWithoutContest,
			insert: `INSERT INTO photos (uploader_name, categories, filename, created_at)
				VALUES ('Ada', '["best_costume"]', 'ada.png', '2025-10-31T18:00:00.123456')`,
		},
		{
			name:   "with contest column",
			photos: legacyPhotosWithContest,
			insert: `INSERT INTO photos (uploader_name, categories, filename, contest, created_at)
				VALUES ('Ada', '["best_costume"]', 'ada.png', 'costumes', '2025-10-31T18:00:00.123456')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.db")
			writeLegacyDatabase(t, path, tt.photos, legacyVotes, tt.insert,
				`INSERT INTO votes (photo_id, category, voter_token, created_at)
					VALUES (1, 'best_costume', 'voter-1', '2025-10-31T18:05:00')`,
			)

			d, err := NewDatabase(path)
			if err != nil {
				t.Fatalf("NewDatabase: %v", err)
			}
			defer d.Close()
			ctx := context.Background()

			photos, err := d.ListPhotos(ctx, "costumes")
			if err != nil {
				t.Fatalf("ListPhotos: %v", err)
			}
			if len(photos) != 1 {
				t.Fatalf("expected the legacy photo, got %+v", photos)
			}
			want := time.Date(2025, 10, 31, 18, 0, 0, 123456000, time.UTC)
			if !photos[0].CreatedAt.Equal(want) {
				t.Errorf("expected created_at %v, got %v", want, photos[0].CreatedAt)
			}

			// the standing vote survives and new votes still upsert
			previous, err := d.RecordVote(ctx, photos[0].ID, "best_costume", "voter-1")
			if err != nil {
				t.Fatalf("RecordVote: %v", err)
			}
			if previous != photos[0].ID {
				t.Errorf("expected the legacy vote on photo %d, got %d", photos[0].ID, previous)
			}
			if id := createTestPhoto(t, d, "pumpkins", "pumpkin_cute"); id != 2 {
				t.Errorf("expected the next id to be 2, got %d", id)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-10-31T18:00:00.000000001Z", time.Date(2025, 10, 31, 18, 0, 0, 1, time.UTC), true},
		{"2025-10-31T18:00:00.123456", time.Date(2025, 10, 31, 18, 0, 0, 123456000, time.UTC), true},
		{"2025-10-31T18:00:00", time.Date(2025, 10, 31, 18, 0, 0, 0, time.UTC), true},
		{"2025-10-31 18:00:00", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("expected ok=%v, got error %v", tt.ok, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	id := createTestPhoto(t, d, "pumpkins", "pumpkin_cute")

	path := filepath.Join(t.TempDir(), "snapshot.db")
	for range 2 {
		// a second snapshot must replace the first
		if err := d.Snapshot(ctx, path); err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
	}

	copied, err := NewDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	defer copied.Close()

	p, err := copied.GetPhoto(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Contest != "pumpkins" {
		t.Errorf("snapshot missing photo, got %+v", p)
	}
}
