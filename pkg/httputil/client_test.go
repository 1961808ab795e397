package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/unformer/pkg/cache"
	uerrors "github.com/matzehuels/unformer/pkg/errors"
)

func TestClient_Fetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("User-Agent"); got != "unformer-test" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(`{"count":1}`))
	}))
	defer srv.Close()

	c := NewClient(Options{
		Headers: map[string]string{"User-Agent": "unformer-test"},
		Cache:   cache.NewMemoryCache(),
		TTL:     time.Minute,
	})
	ctx := context.Background()

	for range 2 {
		body, err := c.Fetch(ctx, srv.URL+"/index.json")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(body) != `{"count":1}` {
			t.Fatalf("body = %q", body)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1 (second fetch cached)", n)
	}

	var idx struct{ Count int }
	if err := c.GetJSON(ctx, srv.URL+"/index.json", &idx); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if idx.Count != 1 {
		t.Errorf("Count = %d", idx.Count)
	}
}

func TestClient_Status(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantHits int32
		check    func(error) bool
	}{
		{"not found", http.StatusNotFound, 1, func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{"server error retried", http.StatusBadGateway, 3, func(err error) bool {
			return errors.Is(err, ErrNetwork) && IsRetryable(err)
		}},
		{"rate limited retried", http.StatusTooManyRequests, 3, func(err error) bool {
			var rl *uerrors.RateLimitedError
			return errors.As(err, &rl) && rl.RetryAfter == 7
		}},
		{"bad request", http.StatusBadRequest, 1, func(err error) bool {
			return errors.Is(err, ErrNetwork) && !IsRetryable(err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(Options{Backoff: time.Millisecond})
			_, err := c.Fetch(context.Background(), srv.URL)
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return Retryable(errors.New("flaky"))
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		perm := errors.New("permanent")
		err := Retry(ctx, 5, time.Millisecond, func() error {
			calls++
			return perm
		})
		if !errors.Is(err, perm) || calls != 1 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("honors cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Retry(cctx, 3, time.Hour, func() error { return Retryable(errors.New("x")) })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
