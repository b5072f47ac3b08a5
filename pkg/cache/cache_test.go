package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "compose:abc"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "compose:abc", []byte("jpeg"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "compose:abc")
	if err != nil || !hit || string(data) != "jpeg" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "compose:abc"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "compose:abc"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "compose:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := ComposeKeyOpts{BaseHash: "b1", OverlayText: "SALE", Opacity: 90}
	other := base
	other.Opacity = 73
	if k.ComposeKey(base) == k.ComposeKey(other) {
		t.Error("opacity must influence the compose key")
	}
	if k.ComposeKey(base) != k.ComposeKey(base) {
		t.Error("compose key must be deterministic")
	}
	if !strings.HasPrefix(k.ComposeKey(base), "compose:") {
		t.Errorf("ComposeKey prefix: %s", k.ComposeKey(base))
	}

	c1 := k.CopyKey(CopyKeyOpts{Provider: "gemini", Channel: "EMAIL", Brief: "q4"})
	c2 := k.CopyKey(CopyKeyOpts{Provider: "openai", Channel: "EMAIL", Brief: "q4"})
	if c1 == c2 {
		t.Error("provider must influence the copy key")
	}

	i1 := k.ImageKey(ImageKeyOpts{Prompt: "beach", Aspect: "1:1"})
	i2 := k.ImageKey(ImageKeyOpts{Prompt: "beach", Aspect: "16:9"})
	if i1 == i2 {
		t.Error("aspect must influence the image key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "ws:acme:")
	key := scoped.ComposeKey(ComposeKeyOpts{BaseHash: "x"})
	if !strings.HasPrefix(key, "ws:acme:compose:") {
		t.Errorf("ScopedKeyer key not prefixed: %s", key)
	}
	if key != "ws:acme:"+NewDefaultKeyer().ComposeKey(ComposeKeyOpts{BaseHash: "x"}) {
		t.Error("scoped key should wrap the inner key")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CAMPAIGNKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CAMPAIGNKIT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "campaignkit-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	c.Delete(ctx, "k")
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
}
