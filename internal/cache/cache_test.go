package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKeyStableAndNamespaced(t *testing.T) {
	k1 := Key("llm", "高松到直岛的船")
	k2 := Key("llm", "高松到直岛的船")
	k3 := Key("response", "高松到直岛的船")

	if k1 != k2 {
		t.Errorf("same input produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("different namespaces produced the same key")
	}
	if !strings.HasPrefix(k1, "islandhop:v1:llm:") {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type answer struct {
		Text     string  `json:"text"`
		Accuracy float64 `json:"accuracy"`
	}

	var out answer
	if GetJSON(c, "k", &out) {
		t.Error("expected miss for absent key")
	}

	in := answer{Text: "18:00还有一班去直岛", Accuracy: 0.9}
	if err := SetJSON(c, "k", in, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if !GetJSON(c, "k", &out) {
		t.Fatal("expected hit after SetJSON")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	// A corrupt entry reads as a miss, never as a decode error.
	if err := c.Set("bad", []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if GetJSON(c, "bad", &out) {
		t.Error("corrupt entry must count as a miss")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for absent key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != "v" {
		t.Errorf("got %q, want %q", val, "v")
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after Delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expected entry to expire")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("response", "哪个方便")
	if err := c.Set(key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(key)
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != "payload" {
		t.Errorf("got %q, want %q", val, "payload")
	}
}

func TestDiskCacheExpiredEntryRemoved(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCachePromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the memory layer and confirm the disk layer backfills it.
	if err := c.memory.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	val, found := c.Get("k")
	if !found {
		t.Fatal("expected disk hit after memory clear")
	}
	if string(val) != "v" {
		t.Errorf("got %q, want %q", val, "v")
	}
	if _, found := c.memory.Get("k"); !found {
		t.Error("expected value promoted back into memory")
	}
}
