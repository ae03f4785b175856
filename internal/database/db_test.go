package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecer struct {
	statements []string
	failAt     int
}

func (s *stubExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.statements = append(s.statements, sql)
	if s.failAt > 0 && len(s.statements) == s.failAt {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	return pgconn.CommandTag{}, nil
}

func TestConnect_Validation(t *testing.T) {
	if _, err := Connect(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}

	if _, err := Connect(context.Background(), "invalid-dsn"); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestEnsureSchema(t *testing.T) {
	db := &stubExecer{}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.statements) != len(schema) {
		t.Fatalf("expected %d statements, got %d", len(schema), len(db.statements))
	}
	if !strings.Contains(db.statements[0], "lead_key TEXT NOT NULL UNIQUE") {
		t.Fatalf("expected leads table keyed by lead_key")
	}
}

func TestEnsureSchema_StopsOnError(t *testing.T) {
	db := &stubExecer{failAt: 2}
	err := EnsureSchema(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "statement 2") {
		t.Fatalf("expected failure at statement 2, got %v", err)
	}
	if len(db.statements) != 2 {
		t.Fatalf("expected schema to stop after failure, ran %d statements", len(db.statements))
	}
}
