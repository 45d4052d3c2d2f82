package vimeo

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"vimeosync/store"
)

// Enricher derives the persisted document shape from raw video records and
// attaches any existing animated-thumbnail state.
type Enricher struct {
	thumbs ThumbnailLookup

	// newKey synthesizes array element keys: unique within an array and
	// stable for the run. Arrays are replaced whole on every sync, never
	// diffed, so keys are freshly randomized each run.
	newKey func() string
}

// NewEnricher creates an enricher that looks up thumbnail state through the
// given client.
func NewEnricher(client *Client) *Enricher {
	return NewEnricherWithLookup(NewThumbnailGenerator(client))
}

// NewEnricherWithLookup creates an enricher with a custom thumbnail lookup.
// A nil lookup skips thumbnail attachment entirely.
func NewEnricherWithLookup(thumbs ThumbnailLookup) *Enricher {
	return &Enricher{
		thumbs: thumbs,
		newKey: uuid.NewString,
	}
}

// DocumentID derives the stable document ID from a video URI. It is a pure
// function of the URI, so repeated syncs always target the same document.
func DocumentID(videoURI string) string {
	return "video-" + lastPathSegment(videoURI)
}

// Enrich transforms one raw record into its target document.
//
// A record without an encoded-file list is rejected with
// ErrMissingFilesScope; the error aborts the enclosing batch, since every
// record of an under-scoped account comes back the same way.
func (e *Enricher) Enrich(ctx context.Context, video Video) (*store.VideoDocument, error) {
	if video.Files == nil {
		return nil, ErrMissingFilesScope
	}

	doc := &store.VideoDocument{
		ID:           DocumentID(video.URI),
		Type:         store.DocTypeVideo,
		URI:          video.URI,
		Name:         video.Name,
		Slug:         store.Slug{Type: "slug", Current: Slugify(video.Name)},
		Description:  video.Description,
		Link:         video.Link,
		Width:        video.Width,
		Height:       video.Height,
		Duration:     video.Duration,
		CreatedTime:  video.CreatedTime,
		ModifiedTime: video.ModifiedTime,
	}
	if video.Height > 0 {
		doc.AspectRatio = float64(video.Width) / float64(video.Height)
	}

	doc.Pictures = make([]store.Picture, 0, len(video.Pictures.Sizes))
	for _, p := range video.Pictures.Sizes {
		doc.Pictures = append(doc.Pictures, store.Picture{
			Key:    e.newKey(),
			Width:  p.Width,
			Height: p.Height,
			Link:   p.Link,
		})
	}

	doc.Srcset = make([]store.VideoFile, 0, len(video.Files))
	for _, f := range video.Files {
		doc.Srcset = append(doc.Srcset, store.VideoFile{
			Key:     e.newKey(),
			Quality: f.Quality,
			MIME:    f.MIME,
			Width:   f.Width,
			Height:  f.Height,
			Link:    f.Link,
			FPS:     f.FPS,
			Size:    f.Size,
			MD5:     f.MD5,
		})
	}

	if e.thumbs != nil {
		sets, err := e.thumbs.Existing(ctx, video.URI)
		if err != nil {
			return nil, fmt.Errorf("fetch thumbnail state for %s: %w", video.URI, err)
		}
		if len(sets) > 0 {
			doc.AnimatedThumbnails = KeyedThumbnails(sets)
		}
	}

	return doc, nil
}

// KeyedThumbnails converts remote thumbnail sets into the embedded document
// shape, attaching a deterministic key per set and per size variant. The
// declared start time and duration of the first set's first size carry over
// to the embedding.
func KeyedThumbnails(sets []ThumbnailSet) *store.AnimatedThumbnails {
	if len(sets) == 0 {
		return nil
	}

	items := make([]store.ThumbnailItem, 0, len(sets))
	for _, set := range sets {
		sizes := make([]store.ThumbnailSize, 0, len(set.Sizes))
		for _, size := range set.Sizes {
			sizes = append(sizes, store.ThumbnailSize{
				Key:       fmt.Sprintf("size-%d", size.Width),
				Width:     size.Width,
				Height:    size.Height,
				Link:      size.Link,
				Duration:  size.Duration,
				StartTime: size.StartTime,
			})
		}
		items = append(items, store.ThumbnailItem{
			Key:       "thumb-" + set.ClipURI,
			URI:       set.URI,
			ClipURI:   set.ClipURI,
			Status:    set.Status,
			CreatedOn: set.CreatedOn,
			Sizes:     sizes,
		})
	}

	out := &store.AnimatedThumbnails{Thumbnails: items}
	if len(sets[0].Sizes) > 0 {
		out.StartTime = sets[0].Sizes[0].StartTime
		out.Duration = sets[0].Sizes[0].Duration
	}
	return out
}

// Slugify derives a URL-safe slug from a display name: lowercase ASCII
// letters and digits with single dashes, truncated to 200 runes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 200 {
			break
		}
	}
	return strings.TrimRight(b.String(), "-")
}
