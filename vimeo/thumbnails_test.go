package vimeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeClock advances only when the workflow sleeps, so polling tests run
// instantly.
type fakeClock struct {
	mu     sync.Mutex
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func newTestGenerator(t *testing.T, server *httptest.Server) (*ThumbnailGenerator, *fakeClock) {
	t.Helper()
	client, _ := newTestClient(t, server)
	gen := NewThumbnailGenerator(client)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	gen.sleep = clock.sleep
	gen.now = clock.now
	return gen, clock
}

func TestGenerateAlreadyGenerated(t *testing.T) {
	var posts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
			w.WriteHeader(http.StatusCreated)
			return
		}
		fmt.Fprint(w, `{"total":1,"data":[{"uri":"/videos/1/animated_thumbsets/abc",
			"clip_uri":"abc","status":"completed","sizes":[]}]}`)
	}))
	defer server.Close()

	gen, clock := newTestGenerator(t, server)
	sets, err := gen.Generate(context.Background(), Video{URI: "/videos/1", Duration: 30}, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if posts != 0 {
		t.Errorf("creation requests = %d, want 0 when sets already exist", posts)
	}
	if len(sets) != 1 || sets[0].ClipURI != "abc" {
		t.Errorf("sets = %+v, want the existing set", sets)
	}
	if got := gen.Status(); got.State != ThumbStateAlreadyGenerated {
		t.Errorf("state = %s, want %s", got.State, ThumbStateAlreadyGenerated)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none on the no-op path", clock.sleeps)
	}
}

func TestGenerateCreatesAndPolls(t *testing.T) {
	var gets int
	var createBody map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if err := jsonDecode(r, &createBody); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)
		case http.MethodGet:
			gets++
			switch {
			case gets == 1:
				fmt.Fprint(w, `{"total":0,"data":[]}`)
			case gets < 4:
				fmt.Fprint(w, `{"total":1,"data":[{"uri":"/videos/1/animated_thumbsets/abc",
					"clip_uri":"abc","status":"in_progress","sizes":[]}]}`)
			default:
				fmt.Fprint(w, `{"total":1,"data":[{"uri":"/videos/1/animated_thumbsets/abc",
					"clip_uri":"abc","status":"completed","sizes":[]}]}`)
			}
		}
	}))
	defer server.Close()

	gen, clock := newTestGenerator(t, server)
	if err := gen.SetPollTiming(10*time.Second, 100*time.Second); err != nil {
		t.Fatal(err)
	}

	sets, err := gen.Generate(context.Background(), Video{URI: "/videos/1", Duration: 30}, 2)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(sets) != 1 || sets[0].Status != "completed" {
		t.Fatalf("sets = %+v, want one completed set", sets)
	}
	if got := gen.Status(); got.State != ThumbStateCompleted || got.Message != msgGenerated {
		t.Errorf("status = %+v, want completed", got)
	}
	if got := gen.Items(); len(got) != 1 {
		t.Errorf("items = %+v, want the completed set retained", got)
	}

	// The clip request carries the start time and the capped duration.
	if createBody["start_time"] != 2 {
		t.Errorf("start_time = %v, want 2", createBody["start_time"])
	}
	if createBody["duration"] != 6 {
		t.Errorf("duration = %v, want capped at 6", createBody["duration"])
	}

	// One pre-create delay, then one interval per unfinished poll.
	want := []time.Duration{time.Second, 10 * time.Second, 10 * time.Second}
	if len(clock.sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", clock.sleeps, want)
	}
	for i, d := range want {
		if clock.sleeps[i] != d {
			t.Errorf("sleeps[%d] = %v, want %v", i, clock.sleeps[i], d)
		}
	}
}

func TestGenerateShortVideoKeepsDuration(t *testing.T) {
	var createBody map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			jsonDecode(r, &createBody)
			fmt.Fprint(w, `{}`)
		default:
			if createBody == nil {
				fmt.Fprint(w, `{"total":0,"data":[]}`)
				return
			}
			fmt.Fprint(w, `{"total":1,"data":[{"uri":"/x","clip_uri":"x","status":"completed","sizes":[]}]}`)
		}
	}))
	defer server.Close()

	gen, _ := newTestGenerator(t, server)
	if _, err := gen.Generate(context.Background(), Video{URI: "/videos/1", Duration: 4.5}, 0); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if createBody["duration"] != 4.5 {
		t.Errorf("duration = %v, want the video's own 4.5", createBody["duration"])
	}
}

func TestGeneratePollTimeout(t *testing.T) {
	var gets int
	var messages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{}`)
			return
		}
		gets++
		if gets == 1 {
			fmt.Fprint(w, `{"total":0,"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"total":1,"data":[{"uri":"/x","clip_uri":"x","status":"in_progress","sizes":[]}]}`)
	}))
	defer server.Close()

	gen, clock := newTestGenerator(t, server)
	if err := gen.SetPollTiming(time.Second, 5*time.Second); err != nil {
		t.Fatal(err)
	}
	origSleep := clock.sleep
	gen.sleep = func(ctx context.Context, d time.Duration) error {
		if err := origSleep(ctx, d); err != nil {
			return err
		}
		messages = append(messages, gen.Status().Message)
		return nil
	}

	_, err := gen.Generate(context.Background(), Video{URI: "/videos/1", Duration: 30}, 0)
	if !errors.Is(err, ErrThumbnailTimeout) {
		t.Fatalf("Generate() error = %v, want ErrThumbnailTimeout", err)
	}
	if got := gen.Status(); got.State != ThumbStateError {
		t.Errorf("state = %s, want %s", got.State, ThumbStateError)
	}

	// A 1s interval against a 5s timeout gives exactly five poll waits;
	// the first sleep is the fixed pre-create delay.
	if len(clock.sleeps) != 6 {
		t.Errorf("sleeps = %v, want pre-create delay plus exactly 5 poll waits", clock.sleeps)
	}

	// Poll messages escalate on the later attempts. The first recorded
	// message belongs to the pre-create delay.
	want := []string{
		msgGenerating,
		msgGenerating, msgGenerating, msgStillGenerating, msgTakingLonger, msgLastAttempt,
	}
	if len(messages) != len(want) {
		t.Fatalf("messages = %q, want %q", messages, want)
	}
	for i, m := range want {
		if messages[i] != m {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i], m)
		}
	}
}

func TestDeleteRemovesAllItems(t *testing.T) {
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprint(w, `{"total":2,"data":[
			{"uri":"/videos/1/animated_thumbsets/a","clip_uri":"a","status":"completed","sizes":[]},
			{"uri":"/videos/1/animated_thumbsets/b","clip_uri":"b","status":"completed","sizes":[]}]}`)
	}))
	defer server.Close()

	gen, _ := newTestGenerator(t, server)
	if _, err := gen.Refresh(context.Background(), "/videos/1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := gen.Delete(context.Background()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(deleted) != 2 {
		t.Fatalf("deleted = %v, want both set URIs", deleted)
	}
	if deleted[0] != "/videos/1/animated_thumbsets/a" || deleted[1] != "/videos/1/animated_thumbsets/b" {
		t.Errorf("deleted = %v, want a then b", deleted)
	}
	if got := gen.Status(); got.State != ThumbStateDeleted || got.Message != msgDeleted {
		t.Errorf("status = %+v, want deleted", got)
	}
	if got := gen.Items(); len(got) != 0 {
		t.Errorf("items = %+v, want cleared", got)
	}
}

func TestDeleteAbortsOnFirstFailure(t *testing.T) {
	var deletes int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"total":2,"data":[
			{"uri":"/videos/1/animated_thumbsets/a","clip_uri":"a","status":"completed","sizes":[]},
			{"uri":"/videos/1/animated_thumbsets/b","clip_uri":"b","status":"completed","sizes":[]}]}`)
	}))
	defer server.Close()

	gen, _ := newTestGenerator(t, server)
	if _, err := gen.Refresh(context.Background(), "/videos/1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	err := gen.Delete(context.Background())
	if err == nil {
		t.Fatal("Delete() error = nil, want failure")
	}
	if deletes != 1 {
		t.Errorf("delete requests = %d, want 1 (abort on first failure)", deletes)
	}
	if got := gen.Status(); got.State != ThumbStateError {
		t.Errorf("state = %s, want %s", got.State, ThumbStateError)
	}
}

func TestSetPollTimingValidation(t *testing.T) {
	gen := &ThumbnailGenerator{}
	if err := gen.SetPollTiming(2*time.Minute, time.Minute); err == nil {
		t.Error("SetPollTiming(interval > timeout) error = nil, want error")
	}
	if err := gen.SetPollTiming(0, time.Minute); err == nil {
		t.Error("SetPollTiming(0, ...) error = nil, want error")
	}
	if err := gen.SetPollTiming(time.Minute, 5*time.Minute); err != nil {
		t.Errorf("SetPollTiming(valid) error = %v", err)
	}
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
