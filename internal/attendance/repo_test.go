package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	markedAt := time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnRows(sqlmock.NewRows([]string{"id", "registration_id", "status", "marked_at", "marked_by"}).
			AddRow("att-1", "reg-1", "Present", markedAt, "coord-1"))

	repo := NewRepository(db)
	rec, err := repo.Upsert(context.Background(), "reg-1", StatusPresent, "coord-1")
	require.NoError(t, err)

	assert.Equal(t, StatusPresent, rec.Status)
	require.NotNil(t, rec.MarkedAt)
	assert.Equal(t, markedAt, *rec.MarkedAt)
	require.NotNil(t, rec.MarkedBy)
	assert.Equal(t, "coord-1", *rec.MarkedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationEventMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT e.id, e.coordinator_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "coordinator_id"}))

	repo := NewRepository(db)
	ref, err := repo.RegistrationEvent(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestCountsForEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "present", "absent"}).
			AddRow(int64(5), int64(2), int64(1)))

	repo := NewRepository(db)
	c, err := repo.CountsForEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 5, Present: 2, Absent: 1}, c)
}
