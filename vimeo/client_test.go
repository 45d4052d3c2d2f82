package vimeo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T, server *httptest.Server) (*Client, *[]time.Duration) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := DefaultClientConfig()
	cfg.AccessToken = "test-token"
	cfg.BaseURL = server.URL
	cfg.Logger = log
	client := NewClient(cfg)

	var sleeps []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return client, &sleeps
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	if _, err := client.Get(context.Background(), "/me/videos"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
}

func TestClientRetriesOnRateLimit(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server)
	resp, err := client.Get(context.Background(), "/me/videos")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
	want := []time.Duration{2 * time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleeps[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestClientRateLimitBudgetExhausted(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.Get(context.Background(), "/me/videos")
	if err == nil {
		t.Fatal("Get() error = nil, want rate limit error")
	}
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("errors.Is(err, ErrRateLimitExceeded) = false for %v", err)
	}

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("error %v is not a *RateLimitError", err)
	}
	// A budget of 3 retries means 4 attempts total.
	if requests != 4 {
		t.Errorf("requests = %d, want 4", requests)
	}
	if rateErr.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", rateErr.Attempts)
	}
	if rateErr.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", rateErr.RetryAfter)
	}
}

func TestClientRetryAfterDefault(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server)
	if _, err := client.Get(context.Background(), "/me/videos"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 5*time.Second {
		t.Errorf("sleeps = %v, want [5s]", *sleeps)
	}
}

func TestClientProactiveCooldown(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		want      []time.Duration
	}{
		{"plenty left", "50", nil},
		{"just above threshold", "10", nil},
		{"low quota", "9", []time.Duration{500 * time.Millisecond}},
		{"low quota floor", "5", []time.Duration{500 * time.Millisecond}},
		{"hard floor", "2", []time.Duration{1000 * time.Millisecond}},
		{"exhausted next", "0", []time.Duration{1000 * time.Millisecond}},
		{"unparseable", "soon", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Remaining", tt.remaining)
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client, sleeps := newTestClient(t, server)
			if _, err := client.Get(context.Background(), "/me/videos"); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if len(*sleeps) != len(tt.want) {
				t.Fatalf("sleeps = %v, want %v", *sleeps, tt.want)
			}
			for i, d := range tt.want {
				if (*sleeps)[i] != d {
					t.Errorf("sleeps[%d] = %v, want %v", i, (*sleeps)[i], d)
				}
			}
		})
	}
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.Get(context.Background(), "/videos/999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not a *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestClientResolve(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://api.example.com/"})

	tests := []struct {
		in   string
		want string
	}{
		{"/me/videos", "https://api.example.com/me/videos"},
		{"me/videos", "https://api.example.com/me/videos"},
		{"https://other.example.com/x", "https://other.example.com/x"},
	}
	for _, tt := range tests {
		if got := client.resolve(tt.in); got != tt.want {
			t.Errorf("resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))
	d := parseRetryAfter(h)
	if d <= 0 || d > 10*time.Second {
		t.Errorf("parseRetryAfter(date) = %v, want (0s, 10s]", d)
	}

	h.Set("Retry-After", "garbage")
	if d := parseRetryAfter(h); d != 5*time.Second {
		t.Errorf("parseRetryAfter(garbage) = %v, want 5s", d)
	}
}
