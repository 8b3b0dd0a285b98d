package cache

import (
	"testing"
	"time"

	"github.com/sitelens/sitelens/models"
)

func TestKey_DiffersByRequestShape(t *testing.T) {
	base := Key("https://acme.com", "", 200)
	if base == Key("https://other.com", "", 200) {
		t.Error("different URLs must produce different keys")
	}
	if base == Key("https://acme.com", "next", 200) {
		t.Error("forcing a framework must produce a different key")
	}
	if base == Key("https://acme.com", "", 100) {
		t.Error("changing the route cap must produce a different key")
	}
	if base != Key("https://acme.com", "", 200) {
		t.Error("identical requests must produce identical keys")
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()

	key := Key("https://acme.com", "", 200)
	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache reported a hit")
	}

	resp := &models.DiscoverResponse{Success: true, Framework: "next"}
	c.Set(key, resp)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("stored response was not found")
	}
	if got != resp {
		t.Error("Get returned a different response than was stored")
	}
}

func TestCache_EntriesExpire(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	defer c.Stop()

	key := Key("https://acme.com", "", 200)
	c.Set(key, &models.DiscoverResponse{Success: true})

	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expired entry reported a hit")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	defer c.Stop()

	c.Set("a", &models.DiscoverResponse{})
	c.Set("b", &models.DiscoverResponse{})
	c.Set("c", &models.DiscoverResponse{})

	if got := c.Len(); got != 2 {
		t.Errorf("Len = %d, want capacity held at 2", got)
	}
}
