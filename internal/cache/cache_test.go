package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	cache.Set("key1", "value1")

	value, found := cache.Get("key1")
	if !found {
		t.Error("Expected to find key1")
	}
	if value != "value1" {
		t.Errorf("Expected 'value1', got %v", value)
	}

	_, found = cache.Get("nonexistent")
	if found {
		t.Error("Expected not to find nonexistent key")
	}
}

func TestCacheExpiration(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	cache.SetWithTTL("expiring", "value", 100*time.Millisecond)

	if _, found := cache.Get("expiring"); !found {
		t.Error("Expected to find item before expiration")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get("expiring"); found {
		t.Error("Expected item to be expired")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	cache.Set(TripListKey("u1", "all"), "data1")
	cache.Set(TripListKey("u1", "status=draft"), "data2")
	cache.Set(TripListKey("u10", "all"), "data3")
	cache.Set(TripKey("t1"), "data4")

	deleted := cache.DeletePrefix(TripListPrefix("u1"))
	if deleted != 2 {
		t.Errorf("Expected to delete 2 items, got %d", deleted)
	}

	// "u10" shares the "u1" characters but not the separator
	if _, found := cache.Get(TripListKey("u10", "all")); !found {
		t.Error("Expected u10 listing to remain")
	}
	if _, found := cache.Get(TripKey("t1")); !found {
		t.Error("Expected trip:t1 to remain")
	}
}

func TestInvalidateTrip(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	cache.Set(TripKey("t1"), "trip")
	cache.Set(TripKey("t2"), "other trip")
	cache.Set(TripListKey("u1", "all"), "list")

	cache.InvalidateTrip("u1", "t1")

	if _, found := cache.Get(TripKey("t1")); found {
		t.Error("Expected trip:t1 to be invalidated")
	}
	if _, found := cache.Get(TripListKey("u1", "all")); found {
		t.Error("Expected owner listing to be invalidated")
	}
	if _, found := cache.Get(TripKey("t2")); !found {
		t.Error("Expected trip:t2 to remain")
	}
}

func TestCacheStats(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	cache.Set(TripKey("t1"), 1)
	cache.Set(TripListKey("u1", "all"), 2)
	cache.Set("other", 3)

	stats := cache.GetStats()
	if stats.TotalItems != 3 || stats.Trips != 1 || stats.Listings != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	cache.Clear()
	if cache.Count() != 0 {
		t.Errorf("Expected count 0 after clear, got %d", cache.Count())
	}
}

func TestCacheConcurrency(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(TripListKey("u", strconv.Itoa(n)), j)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.DeletePrefix(TripListPrefix("u"))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkCacheGet(b *testing.B) {
	cache := New(5*time.Minute, 10*time.Minute)
	cache.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("key")
	}
}

func TestSetIfUnchangedLosesToInvalidation(t *testing.T) {
	cache := New(5*time.Minute, 10*time.Minute)

	v := cache.Version(TripKey("t1"))
	cache.InvalidateTrip("alice", "t1")
	if cache.SetIfUnchanged(TripKey("t1"), v, TripKey("t1"), "stale") {
		t.Error("Expected a read taken before the invalidation to be refused")
	}
	if _, found := cache.Get(TripKey("t1")); found {
		t.Error("Expected the stale trip not to be cached")
	}

	lv := cache.Version(TripListPrefix("alice"))
	cache.InvalidateTrip("alice", "t2")
	if cache.SetIfUnchanged(TripListPrefix("alice"), lv, TripListKey("alice", "all"), "stale") {
		t.Error("Expected the stale listing to be refused")
	}

	v = cache.Version(TripKey("t1"))
	cache.InvalidateTrip("bob", "t9")
	if !cache.SetIfUnchanged(TripKey("t1"), v, TripKey("t1"), "fresh") {
		t.Error("Expected unrelated invalidations not to block the store")
	}

	v = cache.Version(TripKey("t1"))
	cache.Clear()
	if cache.SetIfUnchanged(TripKey("t1"), v, TripKey("t1"), "stale") {
		t.Error("Expected Clear to invalidate every scope")
	}
}
