// Package sequence provides storage-backed atomic counters for human-facing
// identifiers (event codes, participant codes). Counting existing rows and
// formatting count+1 loses updates under concurrent inserts; a single
// upsert-increment statement does not.
package sequence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Runner is the subset of sql.DB / sql.Tx needed to claim a sequence value.
// Passing the enclosing transaction makes the claimed value roll back together
// with the insert that consumed it.
type Runner interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Next atomically increments the named counter and returns the new value.
// The first call for a name returns 1.
func Next(ctx context.Context, r Runner, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("sequence name required")
	}
	row := r.QueryRowContext(ctx, `
		INSERT INTO sequences (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`, name)
	var v int64
	if err := row.Scan(&v); err != nil {
		return 0, errors.Wrapf(err, "next value for sequence %q", name)
	}
	return v, nil
}

// Format renders a claimed value as a zero-padded code, e.g. ("WDW", 3) -> "WDW_00003".
func Format(prefix string, v int64) string {
	return fmt.Sprintf("%s_%05d", prefix, v)
}
