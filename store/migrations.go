package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// contestMigration adds photos.contest. Databases written before goose managed the schema may
// already carry the column, so it is only added when missing.
func contestMigration() *goose.Migration {
	return goose.NewGoMigration(2,
		&goose.GoFunc{RunTx: addPhotoContest},
		&goose.GoFunc{RunTx: dropPhotoContest},
	)
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	const query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	var n int
	if err := tx.QueryRowContext(ctx, query, table, column).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	return n > 0, nil
}

func addPhotoContest(ctx context.Context, tx *sql.Tx) error {
	ok, err := hasColumn(ctx, tx, "photos", "contest")
	if err != nil || ok {
		return err
	}
	// photos created before contests existed all belonged to the costume contest
	_, err = tx.ExecContext(ctx, `ALTER TABLE photos ADD COLUMN contest TEXT NOT NULL DEFAULT 'costumes'`)
	return err
}

func dropPhotoContest(ctx context.Context, tx *sql.Tx) error {
	ok, err := hasColumn(ctx, tx, "photos", "contest")
	if err != nil || !ok {
		return err
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE photos DROP COLUMN contest`)
	return err
}
