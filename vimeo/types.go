package vimeo

import "strings"

// Video is an immutable snapshot of a remote video record as returned by the
// listing API. Field names follow the wire format.
type Video struct {
	// URI identifies the video (e.g. "/videos/123456").
	URI string `json:"uri"`
	// Name is the display name.
	Name string `json:"name"`
	// Description may be empty.
	Description string `json:"description"`
	// Link is the public watch-page URL.
	Link string `json:"link"`
	// Width and Height are the source dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`
	// Duration is the video length in seconds.
	Duration float64 `json:"duration"`
	// CreatedTime and ModifiedTime are RFC 3339 timestamps.
	CreatedTime  string `json:"created_time"`
	ModifiedTime string `json:"modified_time"`
	// Pictures holds the still-image size variants.
	Pictures Pictures `json:"pictures"`
	// Files holds the encoded-file variants. A nil list means the API did
	// not return files at all: the token lacks the video_files scope or
	// the account plan does not expose them.
	Files []File `json:"files"`
}

// ID returns the last path segment of the video URI.
func (v Video) ID() string {
	return lastPathSegment(v.URI)
}

// Pictures is the still-image container of a video record.
type Pictures struct {
	URI   string        `json:"uri,omitempty"`
	Sizes []PictureSize `json:"sizes"`
}

// PictureSize is one still-image size variant.
type PictureSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

// File is one encoded-file variant of a video.
type File struct {
	Quality string  `json:"quality"`
	MIME    string  `json:"type"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Link    string  `json:"link"`
	FPS     float64 `json:"fps,omitempty"`
	Size    int64   `json:"size,omitempty"`
	MD5     string  `json:"md5,omitempty"`
}

// Paging carries the pagination links of a listing response.
type Paging struct {
	Next     string `json:"next"`
	Previous string `json:"previous"`
	First    string `json:"first"`
	Last     string `json:"last"`
}

// VideoList is one page of a video listing.
type VideoList struct {
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Paging  Paging  `json:"paging"`
	Data    []Video `json:"data"`
}

// ProjectItem is one entry of a folder's item listing. Entries may be
// videos, folders, or showcases; only folders carry a Folder payload.
type ProjectItem struct {
	Type   string  `json:"type"`
	Folder *Folder `json:"folder,omitempty"`
}

// Folder describes a remote folder ("project").
type Folder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ID returns the last path segment of the folder URI.
func (f Folder) ID() string {
	return lastPathSegment(f.URI)
}

// ProjectItemList is one page of a folder's item listing.
type ProjectItemList struct {
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Paging  Paging        `json:"paging"`
	Data    []ProjectItem `json:"data"`
}

// ThumbnailSet is one generated animated thumbnail set.
type ThumbnailSet struct {
	URI       string             `json:"uri"`
	ClipURI   string             `json:"clip_uri"`
	Status    string             `json:"status"`
	CreatedOn string             `json:"created_on"`
	Sizes     []ThumbnailSetSize `json:"sizes"`
}

// ThumbnailSetSize is one size variant inside a thumbnail set.
type ThumbnailSetSize struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Link      string  `json:"link"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
}

// ThumbnailSetList is the response of the thumbnail-set listing endpoint.
type ThumbnailSetList struct {
	Total int            `json:"total"`
	Data  []ThumbnailSet `json:"data"`
}

// ThumbnailStatusCompleted is the terminal status of a generated set.
const ThumbnailStatusCompleted = "completed"

func lastPathSegment(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
