package cache

import (
	"testing"
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/config"
	"github.com/HTwebsitesolution/quicklink-pro/model"
)

func testCacheConfig(ttlSeconds int) config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  ttlSeconds,
		CounterSize: 1000,
	}
}

func TestCacheBasicOperations(t *testing.T) {
	cache, err := New(testCacheConfig(60))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	link := model.Link{
		ID:          "id-abc123",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		IsActive:    true,
	}

	t.Run("Set_and_Get", func(t *testing.T) {
		cache.SetLink(link)

		// Wait for async processing
		time.Sleep(10 * time.Millisecond)

		got, found := cache.GetLink("abc123")
		if !found {
			t.Fatal("Link not found in cache")
		}
		if got.OriginalURL != link.OriginalURL {
			t.Errorf("OriginalURL = %q, want %q", got.OriginalURL, link.OriginalURL)
		}
	})

	t.Run("Get_NonExistent", func(t *testing.T) {
		if _, found := cache.GetLink("missing"); found {
			t.Error("Expected short code not to be found")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache.SetLink(link)
		time.Sleep(10 * time.Millisecond)

		if _, found := cache.GetLink("abc123"); !found {
			t.Error("Link should exist before deletion")
		}

		cache.Delete("abc123")
		time.Sleep(10 * time.Millisecond)

		if _, found := cache.GetLink("abc123"); found {
			t.Error("Link should not exist after deletion")
		}
	})
}

func TestCacheTTL(t *testing.T) {
	cache, err := New(testCacheConfig(1))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.SetLink(model.Link{ShortCode: "abc123", OriginalURL: "https://example.com"})
	time.Sleep(10 * time.Millisecond)

	if _, found := cache.GetLink("abc123"); !found {
		t.Error("Link should exist immediately after setting")
	}

	time.Sleep(1200 * time.Millisecond)

	if _, found := cache.GetLink("abc123"); found {
		t.Error("Link should have expired after TTL")
	}
}

func TestCacheMetrics(t *testing.T) {
	cache, err := New(testCacheConfig(60))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.SetLink(model.Link{ShortCode: "aaa111", OriginalURL: "https://example.com/a"})
	cache.SetLink(model.Link{ShortCode: "bbb222", OriginalURL: "https://example.com/b"})
	time.Sleep(100 * time.Millisecond) // Wait for async sets to complete

	cache.GetLink("aaa111") // Hit
	cache.GetLink("bbb222") // Hit
	cache.GetLink("ccc333") // Miss

	time.Sleep(200 * time.Millisecond) // Wait longer for metrics to update

	metrics := cache.GetMetricsSnapshot()

	// Ristretto metrics are async, so be lenient in assertions
	if metrics.TTLSeconds != 60 {
		t.Errorf("Expected TTL 60 seconds, got %d", metrics.TTLSeconds)
	}

	t.Logf("Cache metrics: Hits=%d, Misses=%d, KeysAdded=%d, HitRatio=%.2f",
		metrics.Hits, metrics.Misses, metrics.KeysAdded, metrics.HitRatio)
}

func TestCacheNilHandling(t *testing.T) {
	var cache *Cache

	// All operations must be safe on a nil cache: the service runs with
	// caching disabled by passing nil through.
	if _, found := cache.GetLink("abc123"); found {
		t.Error("GetLink should return false on nil cache")
	}

	cache.SetLink(model.Link{ShortCode: "abc123"})
	cache.Delete("abc123")
	cache.Close()

	metrics := cache.GetMetricsSnapshot()
	if metrics.Hits != 0 {
		t.Error("Nil cache should return zero metrics")
	}
}
