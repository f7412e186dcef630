package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/signalgate/internal/settings"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestGet_Found(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT value FROM settings WHERE key = \\$1").
		WithArgs(settings.KeyPaymentText).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("Pay to X"))

	v, ok, err := NewWithDB(db).Get(context.Background(), settings.KeyPaymentText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != "Pay to X" {
		t.Fatalf("Get = %q, %v; want Pay to X, true", v, ok)
	}
}

func TestGet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT value FROM settings WHERE key = \\$1").
		WithArgs(settings.KeyPaymentMethodText).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	v, ok, err := NewWithDB(db).Get(context.Background(), settings.KeyPaymentMethodText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("Get = %q, %v; want empty, false", v, ok)
	}
}

func TestGet_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT value FROM settings").
		WillReturnError(errors.New("connection reset"))

	if _, _, err := NewWithDB(db).Get(context.Background(), settings.KeyPaymentText); err == nil {
		t.Fatal("expected error")
	}
}

func TestSet_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO settings .+ ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs(settings.KeyPaymentText, "Pay to X").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewWithDB(db).Set(context.Background(), settings.KeyPaymentText, "Pay to X"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSet_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO settings").
		WillReturnError(errors.New("read-only transaction"))

	if err := NewWithDB(db).Set(context.Background(), settings.KeyPaymentText, "x"); err == nil {
		t.Fatal("expected error")
	}
}
