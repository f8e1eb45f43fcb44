package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKeyIsStableAndNamespaced(t *testing.T) {
	a := Key("report", []byte("payload"), []byte("filter"))
	b := Key("report", []byte("payload"), []byte("filter"))
	if a != b {
		t.Fatalf("expected stable key, got %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "report:") {
		t.Fatalf("expected namespace prefix, got %q", a)
	}
	if Key("report", []byte("ab"), []byte("c")) == Key("report", []byte("a"), []byte("bc")) {
		t.Fatalf("part boundaries must affect the key")
	}
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	if err := p.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRedisProviderRequiresAddr(t *testing.T) {
	if _, err := NewRedisProvider(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestNewRedisProviderUnreachable(t *testing.T) {
	_, err := NewRedisProvider(context.Background(), RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	if err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestRedisProviderGetErrorIsNotMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	p := newRedisProvider(client)
	defer p.Close()

	_, err := p.Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected transport error distinct from a miss, got %v", err)
	}
}
