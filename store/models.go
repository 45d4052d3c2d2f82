package store

// VideoDocument is the persisted representation of a remote video.
// It is derived deterministically from the remote record: the ID is a pure
// function of the remote URI, so re-running a sync against the same remote
// record always targets the same document.
type VideoDocument struct {
	// ID is the stable document ID ("video-" + last URI path segment).
	ID string `json:"_id"`
	// Type is the document type, always DocTypeVideo.
	Type string `json:"_type"`
	// URI is the remote video URI (e.g. "/videos/123456").
	URI string `json:"uri"`
	// Name is the video display name.
	Name string `json:"name"`
	// Slug is a URL-safe slug derived from the name.
	Slug Slug `json:"slug"`
	// Description is the video description (empty string when absent).
	Description string `json:"description"`
	// Link is the public watch-page URL.
	Link string `json:"link"`
	// Width and Height are the source dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`
	// AspectRatio is Width / Height.
	AspectRatio float64 `json:"aspectRatio"`
	// Duration is the video length in seconds.
	Duration float64 `json:"duration"`
	// CreatedTime and ModifiedTime are the remote timestamps (RFC 3339).
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	// Pictures holds the still-image size variants, each with a unique key.
	Pictures []Picture `json:"pictures"`
	// Srcset holds the encoded-file variants, each with a unique key.
	Srcset []VideoFile `json:"srcset"`
	// AnimatedThumbnails holds the generated thumbnail set state, if any.
	AnimatedThumbnails *AnimatedThumbnails `json:"animatedThumbnails,omitempty"`
}

// Slug is a URL-safe identifier derived from the video name.
type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

// Picture is one still-image size variant.
type Picture struct {
	Key    string `json:"_key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

// VideoFile is one encoded-file variant of a video.
type VideoFile struct {
	Key     string  `json:"_key"`
	Quality string  `json:"quality"`
	MIME    string  `json:"type"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Link    string  `json:"link"`
	FPS     float64 `json:"fps,omitempty"`
	Size    int64   `json:"size,omitempty"`
	MD5     string  `json:"md5,omitempty"`
}

// AnimatedThumbnails embeds the state of a generated animated thumbnail set.
type AnimatedThumbnails struct {
	// Thumbnails lists each generated set, keyed by its clip URI.
	Thumbnails []ThumbnailItem `json:"thumbnails"`
	// StartTime is the requested clip start offset in seconds.
	StartTime float64 `json:"startTime"`
	// Duration is the clip length in seconds.
	Duration float64 `json:"duration"`
}

// ThumbnailItem is one generated thumbnail set.
type ThumbnailItem struct {
	Key       string          `json:"_key"`
	URI       string          `json:"uri"`
	ClipURI   string          `json:"clip_uri"`
	Status    string          `json:"status"`
	CreatedOn string          `json:"created_on,omitempty"`
	Sizes     []ThumbnailSize `json:"sizes"`
}

// ThumbnailSize is one size variant inside a thumbnail set.
type ThumbnailSize struct {
	Key       string  `json:"_key"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Link      string  `json:"link"`
	Duration  float64 `json:"duration,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
}
