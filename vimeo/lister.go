package vimeo

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// listingFields is the field selection requested on every video listing,
// keeping response payloads to what the enricher consumes.
const listingFields = "uri,modified_time,created_time,name,description,link,pictures,files,width,height,duration"

// DefaultPerPage is the page size for video listings.
const DefaultPerPage = 100

// Page is one page of raw video records yielded by a Lister, with the
// listing metadata needed for absolute progress reporting.
type Page struct {
	// Videos is the ordered record list of this page.
	Videos []Video
	// Number is the 1-based page number.
	Number int
	// PerPage is the page size the listing was requested with.
	PerPage int
	// Total is the total record count the listing reports.
	Total int
}

// PageFunc consumes one page. Returning a non-nil error aborts the walk.
type PageFunc func(page Page) error

// Lister walks a remote video collection, yielding pages strictly in order.
// Count performs an independent traversal that only sums totals; it is used
// for progress reporting before the data-yielding walk begins.
type Lister interface {
	Walk(ctx context.Context, fn PageFunc) error
	Count(ctx context.Context) (int, error)
}

// FlatLister lists the account's full video catalog, following the
// listing's next-page link until exhausted. Pages are fetched strictly
// sequentially, never ahead.
type FlatLister struct {
	client  *Client
	perPage int
}

// NewFlatLister creates a flat catalog lister.
func NewFlatLister(client *Client) *FlatLister {
	return &FlatLister{client: client, perPage: DefaultPerPage}
}

// SetPerPage overrides the listing page size. Values outside 1-100 are
// ignored.
func (l *FlatLister) SetPerPage(n int) {
	if n >= 1 && n <= 100 {
		l.perPage = n
	}
}

// Walk pages through /me/videos, yielding each page in order.
func (l *FlatLister) Walk(ctx context.Context, fn PageFunc) error {
	return stripAbort(walkListing(ctx, l.client, listingURL("/me/videos", l.perPage), fn))
}

// Count probes the listing with a minimal page to read the total.
func (l *FlatLister) Count(ctx context.Context) (int, error) {
	return probeTotal(ctx, l.client, "/me/videos")
}

// FolderLister walks a folder tree depth-first from a root folder,
// yielding each folder's videos independently. Folders are probed with a
// minimal listing call first; branches with zero videos are pruned without
// fetching their children. Videos appearing in multiple folders are yielded
// once per folder.
type FolderLister struct {
	client  *Client
	rootID  string
	perPage int
	log     logrus.FieldLogger
}

// NewFolderLister creates a folder-tree lister rooted at the given folder.
func NewFolderLister(client *Client, folderID string) *FolderLister {
	return &FolderLister{
		client:  client,
		rootID:  folderID,
		perPage: DefaultPerPage,
		log:     client.log.WithField("folder", folderID),
	}
}

// SetPerPage overrides the listing page size. Values outside 1-100 are
// ignored.
func (l *FolderLister) SetPerPage(n int) {
	if n >= 1 && n <= 100 {
		l.perPage = n
	}
}

// abortError marks consumer-callback failures so they abort the whole tree
// walk instead of being absorbed as an empty branch.
type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Walk traverses the folder tree. A failure in the root folder's own calls
// aborts and is surfaced; failures inside a subfolder branch are logged and
// the branch is treated as containing zero videos.
func (l *FolderLister) Walk(ctx context.Context, fn PageFunc) error {
	total, err := l.probe(ctx, l.rootID)
	if err != nil {
		return err
	}
	return stripAbort(l.walkFolder(ctx, l.rootID, total, fn))
}

// stripAbort unwraps the consumer-error marker before surfacing to callers.
func stripAbort(err error) error {
	var abort *abortError
	if errors.As(err, &abort) {
		return abort.err
	}
	return err
}

// Count performs the same recursive traversal as Walk, summing probed
// totals without fetching any video data.
func (l *FolderLister) Count(ctx context.Context) (int, error) {
	total, err := l.probe(ctx, l.rootID)
	if err != nil {
		return 0, err
	}
	return l.countFolder(ctx, l.rootID, total)
}

// walkFolder handles one folder whose probe already reported n videos.
func (l *FolderLister) walkFolder(ctx context.Context, folderID string, n int, fn PageFunc) error {
	if n > 0 {
		if err := walkListing(ctx, l.client, listingURL(folderVideosPath(folderID), l.perPage), fn); err != nil {
			return err
		}
	}

	subs, err := l.subfolders(ctx, folderID)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		count, err := l.probe(ctx, sub)
		if err != nil {
			l.log.WithError(err).WithField("subfolder", sub).Warn("subfolder probe failed, skipping branch")
			continue
		}
		if count == 0 {
			// Pruned: children are never fetched.
			continue
		}
		if err := l.walkFolder(ctx, sub, count, fn); err != nil {
			var abort *abortError
			if errors.As(err, &abort) {
				return err
			}
			l.log.WithError(err).WithField("subfolder", sub).Warn("subfolder walk failed, treating branch as empty")
		}
	}
	return nil
}

func (l *FolderLister) countFolder(ctx context.Context, folderID string, n int) (int, error) {
	total := n

	subs, err := l.subfolders(ctx, folderID)
	if err != nil {
		return 0, err
	}

	for _, sub := range subs {
		count, err := l.probe(ctx, sub)
		if err != nil {
			l.log.WithError(err).WithField("subfolder", sub).Warn("subfolder probe failed, counting branch as empty")
			continue
		}
		if count == 0 {
			continue
		}
		branch, err := l.countFolder(ctx, sub, count)
		if err != nil {
			l.log.WithError(err).WithField("subfolder", sub).Warn("subfolder count failed, counting branch as empty")
			continue
		}
		total += branch
	}
	return total, nil
}

// probe issues a minimal listing call to read a folder's video total.
func (l *FolderLister) probe(ctx context.Context, folderID string) (int, error) {
	return probeTotal(ctx, l.client, folderVideosPath(folderID))
}

// subfolders lists the immediate child folders of a folder, following the
// item listing's own pagination.
func (l *FolderLister) subfolders(ctx context.Context, folderID string) ([]string, error) {
	var ids []string
	url := fmt.Sprintf("/me/projects/%s/items?per_page=%d", folderID, l.perPage)
	for {
		var list ProjectItemList
		if err := l.client.GetJSON(ctx, url, &list); err != nil {
			return nil, err
		}
		for _, item := range list.Data {
			if item.Type == "folder" && item.Folder != nil {
				ids = append(ids, item.Folder.ID())
			}
		}
		if list.Paging.Next == "" {
			return ids, nil
		}
		url = list.Paging.Next
	}
}

// walkListing follows a video listing's next-page links, yielding each page
// in arrival order. Consumer errors are wrapped so tree walks can tell them
// apart from fetch failures.
func walkListing(ctx context.Context, client *Client, url string, fn PageFunc) error {
	for {
		var list VideoList
		if err := client.GetJSON(ctx, url, &list); err != nil {
			return err
		}
		if err := fn(Page{
			Videos:  list.Data,
			Number:  list.Page,
			PerPage: list.PerPage,
			Total:   list.Total,
		}); err != nil {
			return &abortError{err: err}
		}
		if list.Paging.Next == "" {
			return nil
		}
		url = list.Paging.Next
	}
}

// probeTotal fetches a single-record page of a listing and returns its total.
func probeTotal(ctx context.Context, client *Client, path string) (int, error) {
	var list VideoList
	if err := client.GetJSON(ctx, fmt.Sprintf("%s?fields=uri&per_page=1", path), &list); err != nil {
		return 0, err
	}
	return list.Total, nil
}

func folderVideosPath(folderID string) string {
	return fmt.Sprintf("/me/projects/%s/videos", folderID)
}

func listingURL(path string, perPage int) string {
	return fmt.Sprintf("%s?fields=%s&per_page=%d", path, listingFields, perPage)
}
