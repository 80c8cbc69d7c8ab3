package credstore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const selectValue = `SELECT value FROM credentials WHERE key = $1`

var testSalt = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef"))

func setupPostgresMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(saltKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(testSalt))

	store, err := NewPostgresStore(context.Background(), db, []byte("pw"))
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	cleanup := func() { db.Close() }
	return store, mock, cleanup
}

func TestNewPostgresStore_CreatesSalt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(saltKey).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credentials (key, value) VALUES ($1, $2) ON CONFLICT DO NOTHING`)).
		WithArgs(saltKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(saltKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(testSalt))

	if _, err := NewPostgresStore(context.Background(), db, []byte("pw")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewPostgresStore_CorruptSalt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(saltKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("short"))

	_, err = NewPostgresStore(context.Background(), db, []byte("pw"))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestPostgresStore_PutThenGet(t *testing.T) {
	store, mock, cleanup := setupPostgresMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credentials (key, value, updated_at)`)).
		WithArgs(AccessTokenKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Put(context.Background(), AccessTokenKey, "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// seal a value the same way Put does so the SELECT can return it
	sealed, err := seal(store.aead, AccessTokenKey, "t1")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(AccessTokenKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(sealed))

	got, ok, err := store.Get(context.Background(), AccessTokenKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || got != "t1" {
		t.Errorf("Get = (%q, %v); want (%q, true)", got, ok, "t1")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_GetAbsent(t *testing.T) {
	store, mock, cleanup := setupPostgresMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(RefreshTokenKey).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Get(context.Background(), RefreshTokenKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected absent key")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_GetError(t *testing.T) {
	store, mock, cleanup := setupPostgresMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(AccessTokenKey).
		WillReturnError(errors.New("query failed"))

	if _, _, err := store.Get(context.Background(), AccessTokenKey); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock, cleanup := setupPostgresMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credentials WHERE key = $1`)).
		WithArgs(AccessTokenKey).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credentials WHERE key = $1`)).
		WithArgs(RefreshTokenKey).
		WillReturnError(errors.New("delete failed"))

	if err := store.Delete(context.Background(), AccessTokenKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), RefreshTokenKey); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
