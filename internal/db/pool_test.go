package db

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// silentSocket listens on dir/.s.PGSQL.5432, accepts connections and never
// writes a byte back.
func silentSocket(t *testing.T) string {
	t.Helper()
	// Short prefix keeps the socket path under the unix path limit.
	dir, err := os.MkdirTemp("", "pg")
	if err != nil {
		t.Fatalf("MkdirTemp err=%v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	ln, err := net.Listen("unix", filepath.Join(dir, ".s.PGSQL.5432"))
	if err != nil {
		t.Fatalf("listen err=%v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return dir
}

func TestParseConfig_AppliesTuning(t *testing.T) {
	cfg, err := ParseConfig("host=/cloudsql/proj:region:inst port=5432 user=u dbname=d", CloudSQLOptions())
	if err != nil {
		t.Fatalf("ParseConfig() err=%v", err)
	}
	if cfg.MaxConns != 7 {
		t.Fatalf("MaxConns=%d, want 7", cfg.MaxConns)
	}
	if cfg.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("MaxConnLifetime=%s, want 30m", cfg.MaxConnLifetime)
	}
	if got := cfg.ConnConfig.Host; got != "/cloudsql/proj:region:inst" {
		t.Fatalf("Host=%q", got)
	}
	if got := cfg.ConnConfig.Port; got != 5432 {
		t.Fatalf("Port=%d, want 5432", got)
	}
}

func TestParseConfig_RejectsMinAboveMax(t *testing.T) {
	_, err := ParseConfig("host=localhost user=u dbname=d", Options{MaxConns: 2, MinConns: 3})
	if err == nil {
		t.Fatalf("expected sizing error")
	}
}

func TestCloudSQLOptions(t *testing.T) {
	o := CloudSQLOptions()
	if o.AcquireTimeout != 30*time.Second {
		t.Fatalf("AcquireTimeout=%s, want 30s", o.AcquireTimeout)
	}
	if o.InitialPingTimeout != o.AcquireTimeout {
		t.Fatalf("InitialPingTimeout=%s, want the acquire timeout %s", o.InitialPingTimeout, o.AcquireTimeout)
	}
	if o.MinConns != 0 {
		t.Fatalf("MinConns=%d, want 0", o.MinConns)
	}
}

func TestNewPool_Guards(t *testing.T) {
	if _, err := NewPool(nil, "host=localhost", Options{}); err == nil {
		t.Fatalf("expected error for nil ctx")
	}
	if _, err := NewPool(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestAcquire_NilGuards(t *testing.T) {
	if _, err := Acquire(nil, nil, time.Second); err == nil {
		t.Fatalf("expected error for nil ctx")
	}
	if _, err := Acquire(context.Background(), nil, time.Second); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestOpenPool_DoesNotDial(t *testing.T) {
	// Nothing listens here; a lazy pool must still be created.
	pool, err := OpenPool(context.Background(), "host=/nonexistent port=5432 user=u dbname=d", Options{MaxConns: 1})
	if err != nil {
		t.Fatalf("OpenPool() err=%v", err)
	}
	pool.Close()
}

func TestAcquire_TimesOutOnSilentServer(t *testing.T) {
	dir := silentSocket(t)
	pool, err := OpenPool(context.Background(), "host="+dir+" port=5432 user=u dbname=d", Options{MaxConns: 1})
	if err != nil {
		t.Fatalf("OpenPool() err=%v", err)
	}
	defer pool.Close()

	const timeout = 300 * time.Millisecond
	start := time.Now()
	_, err = Acquire(context.Background(), pool, timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrAcquireTimeout) {
		t.Fatalf("expected ErrAcquireTimeout, got %v", err)
	}
	if elapsed < timeout {
		t.Fatalf("returned after %s, before the %s acquire timeout", elapsed, timeout)
	}
}

func TestAcquire_CallerCancelIsNotTimeout(t *testing.T) {
	dir := silentSocket(t)
	pool, err := OpenPool(context.Background(), "host="+dir+" port=5432 user=u dbname=d", Options{MaxConns: 1})
	if err != nil {
		t.Fatalf("OpenPool() err=%v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = Acquire(ctx, pool, time.Minute)
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrAcquireTimeout) {
		t.Fatalf("caller deadline reported as acquire timeout: %v", err)
	}
}

func TestNewPool_PingDeadlineIsAcquireTimeout(t *testing.T) {
	dir := silentSocket(t)
	_, err := NewPool(context.Background(), "host="+dir+" port=5432 user=u dbname=d",
		Options{MaxConns: 1, InitialPingTimeout: 300 * time.Millisecond})
	if !errors.Is(err, ErrAcquireTimeout) {
		t.Fatalf("expected ErrAcquireTimeout, got %v", err)
	}
}
