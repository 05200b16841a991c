package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&testModel{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))
	assert.EqualValues(t, 1, countRows(t, db))

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&testModel{Name: "rolled back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, countRows(t, db))
}

func TestPing(t *testing.T) {
	assert.NoError(t, Wrap(newTestDB(t)).Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":            {nil, false},
		"pgx unique":     {&pgconn.PgError{Code: "23505", ConstraintName: "ux_users_email"}, true},
		"pgx fk":         {&pgconn.PgError{Code: "23503"}, false},
		"pq unique":      {fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		"gorm sentinel":  {gorm.ErrDuplicatedKey, true},
		"sqlite message": {errors.New("UNIQUE constraint failed: users.email"), true},
		"other":          {errors.New("connection reset"), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err))
		})
	}
}

func TestIsUniqueViolationOnSQLite(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{ID: 7, Name: "a"}).Error)
	err := db.Create(&testModel{ID: 7, Name: "b"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestQueryLoggerReportsFailuresButNotMisses(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Level: logger.ParseLevel("debug"), Output: &buf})
	conn := newTestDB(t)
	conn.Logger = newQueryLogger(logg, time.Hour)

	var row testModel
	_ = conn.Where("name = ?", "missing").First(&row).Error
	assert.NotContains(t, buf.String(), "db.query_failed")

	_ = conn.Exec("SELECT * FROM no_such_table").Error
	assert.Contains(t, buf.String(), "db.query_failed")
	assert.Contains(t, buf.String(), "no_such_table")
}

func TestQueryLoggerFlagsSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &buf})
	conn := newTestDB(t)
	conn.Logger = newQueryLogger(logg, time.Nanosecond)

	require.NoError(t, conn.Create(&testModel{Name: "slow"}).Error)
	assert.Contains(t, buf.String(), "db.query_slow")
}
