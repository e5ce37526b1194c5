package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/user-service/internal/models"
)

const testUUID = "7f9c7c1e-2a8e-4b8e-9a53-6f1f8f0c1a11"

func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresStore{db: db}, mock
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows(userColumns)
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	user := models.User{Username: "alice", Name: "Alice", Email: "alice@example.com", HashedPassword: "h"}

	query, _, err := buildInsertUserQuery(user)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("alice", "Alice", "alice@example.com", nil, "h").
		WillReturnRows(userRows().AddRow(testUUID, "alice", "Alice", "alice@example.com", nil, "h"))

	got, err := s.Insert(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, testUUID, got.ID)
	assert.Nil(t, got.Disabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertUniqueViolation(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	_, err := s.Insert(context.Background(), models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestPostgresStore_InsertUnexpectedError(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("db network error"))

	_, err := s.Insert(context.Background(), models.User{Username: "alice"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
	assert.Contains(t, err.Error(), "postgres insert")
}

func TestPostgresStore_FindByID(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	disabled := true

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, name, email, disabled, hashed_password FROM users WHERE id = $1 LIMIT 1")).
		WithArgs(testUUID).
		WillReturnRows(userRows().AddRow(testUUID, "alice", "Alice", "alice@example.com", true, "h"))

	got, err := s.FindByID(context.Background(), testUUID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, &disabled, got.Disabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByIDNotFound(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(testUUID).
		WillReturnError(sql.ErrNoRows)

	_, err := s.FindByID(context.Background(), testUUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_FindByIDMalformed(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	_, err := s.FindByID(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByUsername(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("bob").
		WillReturnRows(userRows().AddRow(testUUID, "bob", "Bob", "bob@example.com", false, "h"))

	got, err := s.FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	require.NotNil(t, got.Disabled)
	assert.False(t, *got.Disabled)
}

func TestPostgresStore_FindAll(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at, id")).
		WillReturnRows(userRows().
			AddRow(testUUID, "alice", "Alice", "alice@example.com", nil, "h").
			AddRow("1b4e28ba-2fa1-11d2-883f-0016d3cca427", "bob", "Bob", "bob@example.com", nil, "h"))

	got, err := s.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[1].Username)
}

func TestPostgresStore_FindAllEmpty(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRows())

	got, err := s.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresStore_Update(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery("UPDATE users SET").
		WillReturnRows(userRows().AddRow(testUUID, "alice2", "Alice", "alice@example.com", nil, "h"))

	got, err := s.Update(context.Background(), testUUID, models.User{Username: "alice2"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
}

func TestPostgresStore_UpdateErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"missing row", sql.ErrNoRows, ErrNotFound},
		{"username taken", pgError(pgerrcode.UniqueViolation), ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestPostgresStore(t)
			mock.ExpectQuery("UPDATE users SET").WillReturnError(tt.dbErr)

			_, err := s.Update(context.Background(), testUUID, models.User{Username: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(testUUID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := s.Delete(context.Background(), testUUID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostgresStore_DeleteMissing(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(testUUID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := s.Delete(context.Background(), testUUID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPostgresStore_ValidID(t *testing.T) {
	s := &PostgresStore{}

	assert.True(t, s.ValidID(testUUID))
	assert.False(t, s.ValidID("507f1f77bcf86cd799439011"))
	assert.False(t, s.ValidID(""))
}
