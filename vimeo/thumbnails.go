package vimeo

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ThumbState identifies a state of the thumbnail generation workflow.
type ThumbState string

// Workflow states. Generation runs idle → checking-existing →
// (already-generated | creating → polling → {completed | error});
// deletion runs deleting → {deleted | error}.
const (
	ThumbStateIdle             ThumbState = "idle"
	ThumbStateChecking         ThumbState = "checking-existing"
	ThumbStateAlreadyGenerated ThumbState = "already-generated"
	ThumbStateCreating         ThumbState = "creating"
	ThumbStatePolling          ThumbState = "polling"
	ThumbStateCompleted        ThumbState = "completed"
	ThumbStateDeleting         ThumbState = "deleting"
	ThumbStateDeleted          ThumbState = "deleted"
	ThumbStateError            ThumbState = "error"
)

// ThumbStatus is a user-facing snapshot of the workflow.
type ThumbStatus struct {
	State ThumbState
	// Message is human-readable progress or error text.
	Message string
	// Attempt counts poll iterations; it only selects the message, never
	// the timing.
	Attempt int
}

// Generation workflow constants.
const (
	// DefaultPollInterval is the delay between existing-state queries
	// while waiting for generation to complete.
	DefaultPollInterval = 60 * time.Second
	// DefaultPollTimeout bounds the whole polling phase.
	DefaultPollTimeout = 5 * time.Minute
	// maxClipDuration caps the requested clip length in seconds.
	maxClipDuration = 6
	// preCreateDelay is waited before the creation request to avoid
	// tripping the transport's reactive backoff right after the
	// existing-state check.
	preCreateDelay = 1 * time.Second
)

// Progress and terminal status messages.
const (
	msgGenerating      = "We are generating animated thumbnails..."
	msgStillGenerating = "We're still generating animated thumbnails, please wait..."
	msgTakingLonger    = "This is taking longer than expected. We'll let you know when it's done. Please don't close the window."
	msgLastAttempt     = "Last attempt, if it doesn't work, please try again later."
	msgAlreadyDone     = "Animated thumbnails already generated. If you want to regenerate, please delete the existing ones."
	msgGenerated       = "Animated thumbnails generated successfully"
	msgDeleting        = "Deleting animated thumbnails..."
	msgDeleted         = "Animated thumbnails deleted successfully"
)

// ThumbnailLookup is the existing-state query consumed by the enricher.
type ThumbnailLookup interface {
	// Existing returns the video's current thumbnail sets, or an empty
	// slice when none exist. Safe to call repeatedly.
	Existing(ctx context.Context, videoURI string) ([]ThumbnailSet, error)
}

// ThumbnailGenerator drives the per-video animated thumbnail workflow:
// create, poll until completion, and delete. One generator tracks one
// video's workflow at a time.
type ThumbnailGenerator struct {
	client   *Client
	interval time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger

	// Timing seams, injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu     sync.Mutex
	status ThumbStatus
	items  []ThumbnailSet
}

// NewThumbnailGenerator creates a generator with default polling timing.
func NewThumbnailGenerator(client *Client) *ThumbnailGenerator {
	return &ThumbnailGenerator{
		client:   client,
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		log:      client.log.WithField("workflow", "thumbnails"),
		sleep:    client.sleep,
		now:      time.Now,
		status:   ThumbStatus{State: ThumbStateIdle},
	}
}

// SetPollTiming overrides the poll interval and timeout. The interval must
// not exceed the timeout.
func (g *ThumbnailGenerator) SetPollTiming(interval, timeout time.Duration) error {
	if interval <= 0 || timeout <= 0 {
		return fmt.Errorf("vimeo: poll interval and timeout must be positive")
	}
	if interval > timeout {
		return fmt.Errorf("vimeo: poll interval is greater than timeout")
	}
	g.interval = interval
	g.timeout = timeout
	return nil
}

// Status returns the current workflow snapshot.
func (g *ThumbnailGenerator) Status() ThumbStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Items returns the workflow's current in-memory thumbnail sets.
func (g *ThumbnailGenerator) Items() []ThumbnailSet {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := make([]ThumbnailSet, len(g.items))
	copy(items, g.items)
	return items
}

// Existing queries the remote API for the video's thumbnail sets. The call
// is idempotent and safe to repeat.
func (g *ThumbnailGenerator) Existing(ctx context.Context, videoURI string) ([]ThumbnailSet, error) {
	var list ThumbnailSetList
	if err := g.client.GetJSON(ctx, thumbsetsPath(videoURI), &list); err != nil {
		return nil, err
	}
	if list.Total > 0 {
		return list.Data, nil
	}
	return nil, nil
}

// Generate runs the generation workflow for one video. If a non-empty set
// already exists it is returned as-is and nothing is created; the caller
// must delete explicitly before regenerating. The requested clip starts at
// startTime and is capped at 6 seconds or the video's own duration,
// whichever is shorter.
func (g *ThumbnailGenerator) Generate(ctx context.Context, video Video, startTime float64) ([]ThumbnailSet, error) {
	if video.URI == "" {
		return nil, g.fail(fmt.Errorf("vimeo: no video URI provided"))
	}

	g.set(ThumbStatus{State: ThumbStateChecking, Message: msgGenerating})

	existing, err := g.Existing(ctx, video.URI)
	if err != nil {
		return nil, g.fail(err)
	}
	if len(existing) > 0 {
		g.setItems(existing)
		g.set(ThumbStatus{State: ThumbStateAlreadyGenerated, Message: msgAlreadyDone})
		return existing, nil
	}

	// Give the API a moment so the creation call does not land inside the
	// quota window the existing-state check just consumed.
	if err := g.sleep(ctx, preCreateDelay); err != nil {
		return nil, g.fail(err)
	}

	g.set(ThumbStatus{State: ThumbStateCreating, Message: msgGenerating})

	duration := video.Duration
	if duration > maxClipDuration {
		duration = maxClipDuration
	}
	body := map[string]float64{
		"start_time": startTime,
		"duration":   duration,
	}
	if _, err := g.client.Send(ctx, http.MethodPost, thumbsetsPath(video.URI), body); err != nil {
		return nil, g.fail(err)
	}

	items, err := g.poll(ctx, video.URI)
	if err != nil {
		return nil, g.fail(err)
	}

	g.setItems(items)
	g.set(ThumbStatus{State: ThumbStateCompleted, Message: msgGenerated})
	return items, nil
}

// poll queries existing-state on a fixed interval until the first set
// reports completion or the timeout elapses.
func (g *ThumbnailGenerator) poll(ctx context.Context, videoURI string) ([]ThumbnailSet, error) {
	start := g.now()
	attempt := 0

	for {
		sets, err := g.Existing(ctx, videoURI)
		if err != nil {
			return nil, err
		}
		if len(sets) > 0 && sets[0].Status == ThumbnailStatusCompleted {
			return sets, nil
		}

		if g.now().Sub(start) >= g.timeout {
			return nil, fmt.Errorf("%w: generation took longer than %s for video %s",
				ErrThumbnailTimeout, g.timeout, videoURI)
		}

		attempt++
		g.set(ThumbStatus{State: ThumbStatePolling, Message: progressMessage(attempt), Attempt: attempt})
		g.log.WithField("attempt", attempt).Debug("waiting for thumbnail generation to complete")

		if err := g.sleep(ctx, g.interval); err != nil {
			return nil, err
		}
	}
}

// Refresh fetches the video's current thumbnail sets and makes them the
// workflow's item list, so a Delete can operate on sets this generator
// did not create itself.
func (g *ThumbnailGenerator) Refresh(ctx context.Context, videoURI string) ([]ThumbnailSet, error) {
	sets, err := g.Existing(ctx, videoURI)
	if err != nil {
		return nil, g.fail(err)
	}
	g.setItems(sets)
	return sets, nil
}

// Delete removes every set in the current item list, one delete call per
// item. The first failing delete aborts the remaining ones and surfaces
// its error.
func (g *ThumbnailGenerator) Delete(ctx context.Context) error {
	g.set(ThumbStatus{State: ThumbStateDeleting, Message: msgDeleting})

	for _, item := range g.Items() {
		if _, err := g.client.Send(ctx, http.MethodDelete, item.URI, nil); err != nil {
			return g.fail(err)
		}
	}

	g.setItems(nil)
	g.set(ThumbStatus{State: ThumbStateDeleted, Message: msgDeleted})
	return nil
}

func (g *ThumbnailGenerator) set(status ThumbStatus) {
	g.mu.Lock()
	g.status = status
	g.mu.Unlock()
}

func (g *ThumbnailGenerator) setItems(items []ThumbnailSet) {
	g.mu.Lock()
	g.items = items
	g.mu.Unlock()
}

// fail records an error state and passes the error through.
func (g *ThumbnailGenerator) fail(err error) error {
	g.set(ThumbStatus{State: ThumbStateError, Message: err.Error()})
	return err
}

// progressMessage selects escalating status text by poll attempt.
func progressMessage(attempt int) string {
	switch attempt {
	case 3:
		return msgStillGenerating
	case 4:
		return msgTakingLonger
	case 5:
		return msgLastAttempt
	default:
		return msgGenerating
	}
}

func thumbsetsPath(videoURI string) string {
	return videoURI + "/animated_thumbsets"
}
