package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_Success(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := OpenRedis(context.Background(), Options{Addr: s.Addr(), DB: 2})
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Set(ctx, "k", "v", 0).Err(); err != nil {
		t.Fatalf("SET err: %v", err)
	}
	if v, err := c.Get(ctx, "k").Result(); err != nil || v != "v" {
		t.Fatalf("GET = %q, %v", v, err)
	}
}

func TestOpenRedis_Password(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("s3cret")

	if _, err := OpenRedis(context.Background(), Options{Addr: s.Addr()}); err == nil {
		t.Fatal("expected auth failure without password")
	}
	c, err := OpenRedis(context.Background(), Options{Addr: s.Addr(), Password: "s3cret"})
	if err != nil {
		t.Fatalf("OpenRedis with password: %v", err)
	}
	_ = c.Close()
}

func TestOpenRedis_Failure(t *testing.T) {
	if _, err := OpenRedis(context.Background(), Options{Addr: "not-a-real-host:6379", DialTimeout: time.Second}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPing(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := OpenRedis(context.Background(), Options{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	check := Ping(c)
	if err := check(context.Background()); err != nil {
		t.Fatalf("healthy ping: %v", err)
	}
	s.Close()
	if err := check(context.Background()); err == nil {
		t.Fatal("expected ping failure after server stop")
	}
}
