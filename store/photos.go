package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

const photoColumns = `id, uploader_name, email, caption, categories, filename, contest, created_at`

// CreatePhoto persists a new photo and returns its assigned id.
func (d *Database) CreatePhoto(ctx context.Context, p NewPhoto) (int64, error) {
	if len(p.Categories) == 0 {
		return 0, errors.New("photo must be entered in at least one category")
	}

	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return 0, fmt.Errorf("failed to encode categories: %w", err)
	}

	var id int64
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		const stmt = `
			INSERT INTO photos (uploader_name, email, caption, categories, filename, contest, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, stmt,
			p.UploaderName,
			p.Email,
			p.Caption,
			string(categories),
			p.Filename,
			p.Contest,
			d.now().Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("failed to insert photo: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get photo id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetPhoto returns the photo with the given id, or nil if there is none.
func (d *Database) GetPhoto(ctx context.Context, id int64) (*Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = ?`
	p, err := scanPhoto(d.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// ListPhotos returns the photos of a contest, or of every contest when contestSlug is empty,
// most recent first.
func (d *Database) ListPhotos(ctx context.Context, contestSlug string) ([]Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos`
	var args []any
	if contestSlug != "" {
		query += ` WHERE contest = ?`
		args = append(args, contestSlug)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return photos, nil
}

// Filenames returns the stored filename of every photo.
func (d *Database) Filenames(ctx context.Context) (mapset.Set[string], error) {
	rows, err := d.db.QueryContext(ctx, `SELECT filename FROM photos`)
	if err != nil {
		return nil, fmt.Errorf("failed to query filenames: %w", err)
	}
	defer rows.Close()

	names := mapset.NewThreadUnsafeSet[string]()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan filename: %w", err)
		}
		names.Add(name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (Photo, error) {
	var (
		p              Photo
		email, caption sql.NullString
		categories     string
		createdAt      string
	)
	if err := row.Scan(&p.ID, &p.UploaderName, &email, &caption, &categories, &p.Filename, &p.Contest, &createdAt); err != nil {
		return Photo{}, err
	}

	if email.Valid {
		p.Email = &email.String
	}
	if caption.Valid {
		p.Caption = &caption.String
	}

	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return Photo{}, fmt.Errorf("photo %d has malformed categories: %w", p.ID, err)
	}

	t, err := parseTimestamp(createdAt)
	if err != nil {
		return Photo{}, fmt.Errorf("photo %d has malformed created_at %q: %w", p.ID, createdAt, err)
	}
	p.CreatedAt = t

	return p, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err == nil {
		return t, nil
	}
	if legacy, lerr := time.Parse(legacyTimeFormat, s); lerr == nil {
		return legacy, nil
	}
	return time.Time{}, err
}
