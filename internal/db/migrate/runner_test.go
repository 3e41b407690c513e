package migrate

import (
	"errors"
	"strings"
	"testing"
)

func TestRunEmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %q, should mention DATABASE_URL", err)
	}
}

func TestRunInvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "sideways", "UP", "Down"} {
		if err := Run("postgres://localhost/test", dir); err == nil {
			t.Errorf("Run with direction %q should return error", dir)
		}
	}
}

func TestRunInvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "postgres://"} {
		if err := Run(dsn, "up"); err == nil {
			t.Errorf("Run with DSN %q should return error", dsn)
		}
	}
}

func TestErrNoChangeExported(t *testing.T) {
	if ErrNoChange == nil {
		t.Fatal("ErrNoChange should not be nil")
	}
	if !errors.Is(ErrNoChange, ErrNoChange) {
		t.Error("ErrNoChange should work with errors.Is")
	}
}
