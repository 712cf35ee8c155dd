package cache_test

import (
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/infra/cache"
)

func TestSetGet(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Set("u1_2024-01", "snapshot")

	v, ok := c.Get("u1_2024-01")
	if !ok {
		t.Fatal("expected hit")
	}
	if v != "snapshot" {
		t.Errorf("got %q", v)
	}
}

func TestGet_Miss(t *testing.T) {
	c := cache.New[int](time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss")
	}
}

func TestExpiry(t *testing.T) {
	c := cache.New[int](20 * time.Millisecond)
	c.Set("k", 42)

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDelete_InvalidatesEntry(t *testing.T) {
	c := cache.New[int](time.Minute)
	c.Set("u1_2024-01", 1)
	c.Delete("u1_2024-01")

	if _, ok := c.Get("u1_2024-01"); ok {
		t.Error("expected entry to be gone after invalidation")
	}
}
