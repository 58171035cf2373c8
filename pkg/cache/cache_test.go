package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/inkframe/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %v, %v, %v, want nil, false, nil", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

// exerciseCache runs the behaviour every backend must share.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit = %v, err = %v, want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get(k) = %q, %v, %v, want v1, true, nil", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Set() overwrite error: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get(k) after overwrite = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get(k) after Delete hit = true")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() of expired entry hit = true")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() of corrupt entry = %v, %v, want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear, want 0", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	exerciseCache(t, c)
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want abc (Set must copy)", got)
	}
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Get() = %q, want abc (Get must copy)", again)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	_ = c.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() of expired entry hit = true")
	}
}

func TestNewRedisCacheRequiresAddr(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{}); err == nil {
		t.Error("NewRedisCache() with empty address error = nil")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("NewRedisCache() to closed port error = nil")
	}
	if !strings.Contains(err.Error(), "redis ping") {
		t.Errorf("NewRedisCache() error = %v, want ping failure", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash() should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Hash() of different inputs should differ")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h1))
	}

	j1, err := HashJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("HashJSON() error: %v", err)
	}
	j2, _ := HashJSON(map[string]int{"a": 1})
	if j1 != j2 {
		t.Error("HashJSON() should be deterministic")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if ik := k.ImageKey("https://example.com/a.png"); !strings.HasPrefix(ik, "image:") {
		t.Errorf("ImageKey() = %q, want image: prefix", ik)
	}
	if k.ImageKey("a") == k.ImageKey("b") {
		t.Error("ImageKey() should differ per URL")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{TemplateID: "grid-6panel"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey() = %q, want layout: prefix", lk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "pdf"})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", PageNumbers: true})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tenant:42:")
	plain := NewDefaultKeyer()

	if got, want := scoped.ImageKey("u"), "tenant:42:"+plain.ImageKey("u"); got != want {
		t.Errorf("ImageKey() = %q, want %q", got, want)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "tenant:42:layout:") {
		t.Errorf("LayoutKey() = %q, want scoped prefix", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}); !strings.HasPrefix(got, "tenant:42:artifact:") {
		t.Errorf("ArtifactKey() = %q, want scoped prefix", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	if got := scoped.ImageKey("u"); got != "p:"+NewDefaultKeyer().ImageKey("u") {
		t.Errorf("ImageKey() with nil inner = %q", got)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestJSONHelpers(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	type payload struct{ N int }
	var got payload
	if GetJSON(ctx, c, "layout", "k", &got) {
		t.Error("GetJSON() on empty cache = true")
	}
	if err := SetJSON(ctx, c, "layout", "k", payload{N: 7}, time.Hour); err != nil {
		t.Fatalf("SetJSON() error: %v", err)
	}
	if !GetJSON(ctx, c, "layout", "k", &got) || got.N != 7 {
		t.Errorf("GetJSON() = %+v, want N=7", got)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if GetJSON(ctx, c, "layout", "bad", &got) {
		t.Error("GetJSON() of corrupt value = true")
	}
	if _, hit, _ := c.Get(ctx, "bad"); hit {
		t.Error("GetJSON() did not delete corrupt value")
	}

	if err := SetBytes(ctx, c, "artifact", "b", []byte("png"), 0); err != nil {
		t.Fatalf("SetBytes() error: %v", err)
	}
	if data, ok := GetBytes(ctx, c, "artifact", "b"); !ok || string(data) != "png" {
		t.Errorf("GetBytes() = %q, %v", data, ok)
	}

	if hooks.hits != 2 || hooks.misses != 2 || hooks.sets != 2 {
		t.Errorf("hooks = %d hits, %d misses, %d sets, want 2, 2, 2", hooks.hits, hooks.misses, hooks.sets)
	}
}
