package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42P01"}), want: "pg_42P01"},
		{err: context.DeadlineExceeded, want: "timeout"},
		{err: errors.New("failed to connect: connection refused"), want: "connection"},
		{err: errors.New("UNIQUE constraint failed: users.username"), want: "unique_violation"},
		{err: errors.New("database is locked"), want: "locked"},
		{err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		if got := ClassifyDBErr(tt.err); got != tt.want {
			t.Fatalf("ClassifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	if err := p.ObserveDB("films.list", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	if err := p.ObserveDB("films.list", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("error must pass through, got %v", err)
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("films.list", "unknown")); got != 1 {
		t.Fatalf("got %v errors, want 1", got)
	}

	var nilProm *Prom
	if err := nilProm.ObserveDB("x", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("nil prom must still run fn")
	}
	nilProm.ObserveLogin("ok")
}

func TestObserveLogin(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveLogin("ok")
	p.ObserveLogin("invalid")
	p.ObserveLogin("invalid")

	if got := testutil.ToFloat64(p.LoginAttempts.WithLabelValues("invalid")); got != 2 {
		t.Fatalf("got %v invalid logins, want 2", got)
	}
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("dev", &buf)

	log.Debug("hello", "film_id", 7)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if line["msg"] != "hello" || line["film_id"] != float64(7) {
		t.Fatalf("unexpected log line: %v", line)
	}

	if _, ok := line["trace_id"]; ok {
		t.Fatalf("no span active, trace_id should be absent")
	}
}
