package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guarzo/dotastats/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingServer answers every GET with a per-URL JSON payload and counts
// requests.
func countingServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"path":%q,"n":%d}`, r.URL.Path, calls)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func openTestCache(t *testing.T, path string, freshness time.Duration) *ResponseCache {
	t.Helper()
	hc := common.NewDotaHttpClient("test", &http.Client{}, 0)
	hc.SetSleepForTest(func(time.Duration) {})
	c, err := Open(path, freshness, hc, testLogger())
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	ts, calls := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	c := openTestCache(t, path, time.Hour)
	urls := []string{ts.URL + "/a", ts.URL + "/b", ts.URL + "/c"}
	want := make(map[string]string)
	for _, u := range urls {
		payload, err := c.Get(ctx, u, true)
		if err != nil {
			t.Fatalf("get %s: %v", u, err)
		}
		want[u] = string(payload)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	fetched := *calls
	reloaded := openTestCache(t, path, time.Hour)
	if reloaded.Len() != len(urls) {
		t.Fatalf("expected %d entries after reload, got %d", len(urls), reloaded.Len())
	}
	for _, u := range urls {
		payload, err := reloaded.Get(ctx, u, true)
		if err != nil {
			t.Fatalf("get %s after reload: %v", u, err)
		}
		if string(payload) != want[u] {
			t.Errorf("payload for %s changed across reload: %s != %s", u, payload, want[u])
		}
	}
	if *calls != fetched {
		t.Errorf("reload triggered %d extra fetches", *calls-fetched)
	}
}

func TestCache_FlushAtomicity(t *testing.T) {
	ts, _ := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	c := openTestCache(t, path, time.Hour)
	if _, err := c.Get(ctx, ts.URL+"/first", true); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// A failed rename must leave the previous snapshot byte-for-byte
	// unchanged and keep the writes pending.
	if _, err := c.Get(ctx, ts.URL+"/second", true); err != nil {
		t.Fatal(err)
	}
	c.rename = func(string, string) error { return errors.New("disk pulled") }

	flushErr := c.Flush()
	var fe *FlushError
	if !errors.As(flushErr, &fe) {
		t.Fatalf("expected *FlushError, got %v", flushErr)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("failed flush altered the persisted snapshot")
	}
	if entries, _ := filepath.Glob(path + ".tmp-*"); len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}

	// Once writing works again the pending entry persists.
	c.rename = os.Rename
	if err := c.Flush(); err != nil {
		t.Fatalf("recovery flush: %v", err)
	}
	recovered := openTestCache(t, path, time.Hour)
	if recovered.Len() != 2 {
		t.Errorf("expected 2 entries after recovery, got %d", recovered.Len())
	}
}

func TestCache_Freshness(t *testing.T) {
	ts, calls := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()
	url := ts.URL + "/match"

	c := openTestCache(t, path, time.Hour)
	fetchedAt := time.Now()
	c.SetNowForTest(func() time.Time { return fetchedAt })

	first, err := c.Get(ctx, url, false)
	if err != nil {
		t.Fatal(err)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", *calls)
	}

	// Inside the window: served from cache even without allowStale.
	c.SetNowForTest(func() time.Time { return fetchedAt.Add(time.Hour - time.Minute) })
	cached, err := c.Get(ctx, url, false)
	if err != nil {
		t.Fatal(err)
	}
	if *calls != 1 {
		t.Errorf("fresh entry triggered a re-fetch")
	}
	if string(cached) != string(first) {
		t.Errorf("fresh read returned different payload")
	}

	// Outside the window: allowStale=true still serves the cached copy,
	// allowStale=false re-fetches.
	c.SetNowForTest(func() time.Time { return fetchedAt.Add(time.Hour + time.Minute) })
	if _, err := c.Get(ctx, url, true); err != nil {
		t.Fatal(err)
	}
	if *calls != 1 {
		t.Errorf("allowStale read triggered a re-fetch")
	}
	if _, err := c.Get(ctx, url, false); err != nil {
		t.Fatal(err)
	}
	if *calls != 2 {
		t.Errorf("stale entry was not re-fetched, calls=%d", *calls)
	}
}

func TestCache_FetchBypassesCache(t *testing.T) {
	ts, calls := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()
	url := ts.URL + "/players/1/matches"

	c := openTestCache(t, path, time.Hour)
	if _, err := c.Get(ctx, url, true); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fetch(ctx, url); err != nil {
		t.Fatal(err)
	}
	if *calls != 2 {
		t.Errorf("Fetch must always hit the network, calls=%d", *calls)
	}
}

func TestCache_LegacySnapshot(t *testing.T) {
	ts, calls := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	url := ts.URL + "/old"
	ctx := context.Background()

	legacy := map[string]json.RawMessage{url: json.RawMessage(`{"legacy":true}`)}
	data, _ := json.Marshal(legacy)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	c := openTestCache(t, path, time.Hour)

	// Permissive reads still see the legacy payload.
	payload, err := c.Get(ctx, url, true)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"legacy":true}` {
		t.Errorf("unexpected legacy payload: %s", payload)
	}
	if *calls != 0 {
		t.Errorf("legacy hit triggered a fetch")
	}

	// A missing timestamp means always re-fetch when freshness is
	// enforced, never infinitely fresh.
	if _, err := c.Get(ctx, url, false); err != nil {
		t.Fatal(err)
	}
	if *calls != 1 {
		t.Errorf("legacy entry without timestamp was treated as fresh")
	}
}

func TestCache_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte(`{"payloads": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	hc := common.NewDotaHttpClient("test", &http.Client{}, 0)
	_, err := Open(path, time.Hour, hc, testLogger())
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CorruptError, got %v", err)
	}
}

func TestCache_MissingSnapshotIsEmpty(t *testing.T) {
	c := openTestCache(t, filepath.Join(t.TempDir(), "cache.json"), time.Hour)
	if c.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", c.Len())
	}
}

func TestCache_AutoFlush(t *testing.T) {
	ts, _ := countingServer(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	c := openTestCache(t, path, time.Hour)
	for i := 0; i < flushEvery-1; i++ {
		if _, err := c.Get(ctx, fmt.Sprintf("%s/m/%d", ts.URL, i), true); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("snapshot written before reaching the write threshold")
	}

	if _, err := c.Get(ctx, ts.URL+"/m/last", true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected auto-flush after %d writes: %v", flushEvery, err)
	}
}
