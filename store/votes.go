package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RecordVote stores voterToken's vote for photoID in category. A voter holds one standing vote
// per category: voting again in the same category moves that vote to the new photo. The
// conflict is resolved by SQLite in a single statement, so concurrent identical requests
// cannot lose an update.
//
// The returned id is the photo the voter's vote stood on before this call, or 0 for a first
// vote in the category.
//
// RecordVote does not check that the photo competes in category; callers do.
func (d *Database) RecordVote(ctx context.Context, photoID int64, category, voterToken string) (int64, error) {
	var previous int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		const query = `SELECT photo_id FROM votes WHERE voter_token = ? AND category = ?`
		err := tx.QueryRowContext(ctx, query, voterToken, category).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read standing vote: %w", err)
		}

		const stmt = `
			INSERT INTO votes (photo_id, category, voter_token, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(voter_token, category) DO UPDATE SET
				photo_id   = excluded.photo_id,
				created_at = excluded.created_at
		`
		if _, err := tx.ExecContext(ctx, stmt, photoID, category, voterToken, d.now().Format(timeFormat)); err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return previous, nil
}

// Tally counts standing votes per (category, photo). Only pairs with at least one vote are
// present, so a category nobody voted in has no key. Within a category entries are ordered by
// vote count, highest first, with ties going to the earlier photo.
func (d *Database) Tally(ctx context.Context) (Tally, error) {
	const query = `
		SELECT category, photo_id, COUNT(*) AS vote_count
		FROM votes
		GROUP BY category, photo_id
		ORDER BY vote_count DESC, photo_id ASC
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}
	defer rows.Close()

	tally := make(Tally)
	for rows.Next() {
		var (
			category string
			entry    TallyEntry
		)
		if err := rows.Scan(&category, &entry.PhotoID, &entry.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tally[category] = append(tally[category], entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tally, nil
}

// PhotoVoteCount returns the standing votes photoID holds in category.
func (d *Database) PhotoVoteCount(ctx context.Context, photoID int64, category string) (int, error) {
	const query = `SELECT COUNT(*) FROM votes WHERE photo_id = ? AND category = ?`
	var count int
	if err := d.db.QueryRowContext(ctx, query, photoID, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
