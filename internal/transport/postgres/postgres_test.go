package postgres

import (
	"context"
	"strings"
	"testing"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "not-a-valid-dsn")
	if err == nil {
		t.Fatal("expected an error for a malformed DSN")
	}
	if !strings.Contains(err.Error(), "invalid DSN") {
		t.Fatalf("expected wrapped invalid DSN error, got %v", err)
	}
}
