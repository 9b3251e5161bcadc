package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type descriptor struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
}

func TestCache_GetSet(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	want := descriptor{Name: "wget", Dependencies: []string{"libidn2", "openssl@3"}}
	if err := c.Set("wget", want); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var got descriptor
	ok, err := c.Get("wget", &got)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}
	if got.Name != want.Name || len(got.Dependencies) != 2 {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	var result string
	ok, err := c.Get("missing", &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned true for missing key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(c.keyPath("key"), old, old); err != nil {
		t.Fatal(err)
	}

	var res string
	ok, err := c.Get("key", &res)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("got error %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_NoExpiry(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 0)
	_ = c.Set("key", "value")
	old := time.Now().Add(-24 * 365 * time.Hour)
	_ = os.Chtimes(c.keyPath("key"), old, old)

	var res string
	if ok, err := c.Get("key", &res); !ok || err != nil {
		t.Errorf("Get() = %v, %v; want hit with TTL 0", ok, err)
	}
}

func TestCache_KeyStability(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	if c.keyPath("test") != c.keyPath("test") {
		t.Error("path should be deterministic")
	}
	if c.keyPath("test") == c.keyPath("other") {
		t.Error("different keys should produce different paths")
	}
}

func TestNewCache_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "api")
	c, err := NewCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", c.Dir(), dir)
	}
	if c.TTL() != time.Hour {
		t.Errorf("TTL() = %v, want 1h", c.TTL())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	formulae := c.Namespace("formula:")
	casks := c.Namespace("cask:")

	_ = formulae.Set("docker", "formula-data")
	_ = casks.Set("docker", "cask-data")

	var f, k string
	if ok, _ := formulae.Get("docker", &f); !ok || f != "formula-data" {
		t.Errorf("formula namespace = %q, %v", f, ok)
	}
	if ok, _ := casks.Get("docker", &k); !ok || k != "cask-data" {
		t.Errorf("cask namespace = %q, %v", k, ok)
	}

	if found, _ := c.Get("docker", &f); found {
		t.Error("value accessible without namespace")
	}

	chained := c.Namespace("a:").Namespace("b:")
	_ = chained.Set("x", "y")
	var v string
	if ok, _ := c.Get("a:b:x", &v); !ok || v != "y" {
		t.Errorf("chained prefix not applied: %q, %v", v, ok)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	ns := c.Namespace("formula:")
	_ = ns.Set("wget", "1")
	_ = ns.Set("curl", "2")
	_ = c.Set("other", "3")

	if err := ns.Delete("wget"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := ns.Delete("wget"); err != nil {
		t.Errorf("Delete() of missing key = %v, want nil", err)
	}

	var v string
	if ok, _ := ns.Get("wget", &v); ok {
		t.Error("deleted entry still present")
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() removed %d entries, want 2", n)
	}
	if ok, _ := ns.Get("curl", &v); ok {
		t.Error("Clear() left namespaced entry")
	}
}
