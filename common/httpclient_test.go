package common_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guarzo/dotastats/common"
)

func TestNewDotaHttpClient(t *testing.T) {
	base := &http.Client{}
	client := common.NewDotaHttpClient("MyUserAgent", base, 0)
	if client == nil {
		t.Fatal("expected non-nil HttpClient")
	}
}

func TestHttpClient_Do(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestUserAgent" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "wrong user-agent")
			return
		}
		fmt.Fprint(w, "hello world")
	}))
	defer ts.Close()

	hc := common.NewDotaHttpClient("TestUserAgent", &http.Client{}, 0)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello world" {
		t.Errorf("unexpected response: %s", string(body))
	}
}

func TestHttpClient_GetWithRetry_Throttled(t *testing.T) {
	// {429, 429, 200} must produce exactly one payload and two backoff
	// sleeps, with no error surfaced.
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer ts.Close()

	hc := common.NewDotaHttpClient("UA", &http.Client{}, 0)
	sleeps := 0
	hc.SetSleepForTest(func(d time.Duration) {
		if d != common.DefaultThrottleBackoff {
			t.Errorf("expected backoff %v, got %v", common.DefaultThrottleBackoff, d)
		}
		sleeps++
	})

	data, err := hc.GetWithRetry(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected payload: %s", data)
	}
	if calls != 3 {
		t.Errorf("expected 3 requests, got %d", calls)
	}
	if sleeps != 2 {
		t.Errorf("expected 2 sleeps, got %d", sleeps)
	}
}

func TestHttpClient_GetWithRetry_ServerError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	hc := common.NewDotaHttpClient("UA", &http.Client{}, 0)
	hc.SetSleepForTest(func(time.Duration) {})

	if _, err := hc.GetWithRetry(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a retry after 500, got %d requests", calls)
	}
}

func TestHttpClient_GetWithRetry_HardFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "nope")
	}))
	defer ts.Close()

	hc := common.NewDotaHttpClient("UA", &http.Client{}, 0)
	hc.SetSleepForTest(func(time.Duration) {
		t.Error("a 404 must not trigger backoff")
	})

	_, err := hc.GetWithRetry(context.Background(), ts.URL)
	var httpErr *common.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.StatusCode)
	}
}

func TestHttpClient_GetWithRetry_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	hc := common.NewDotaHttpClient("UA", &http.Client{}, 0)
	hc.SetSleepForTest(func(time.Duration) { cancel() })

	_, err := hc.GetWithRetry(ctx, ts.URL)
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
}
