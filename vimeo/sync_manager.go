package vimeo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vimeosync/store"
)

// RunStatus is the lifecycle status of a sync run.
type RunStatus string

// Run statuses.
const (
	StatusIdle     RunStatus = "idle"
	StatusLoading  RunStatus = "loading"
	StatusFinished RunStatus = "finished"
	StatusError    RunStatus = "error"
)

// RunState is the transient, per-invocation state of a sync run. It is
// created when Run starts and discarded when the run ends; nothing persists
// across runs.
type RunState struct {
	Status RunStatus
	// Message is the terminal status text (finish summary or error).
	Message string
	// Total is the expected record count reported by the counting pass.
	Total int
	// Processed is the absolute number of records committed so far,
	// across all pages.
	Processed int
	// Page is the page number currently being processed.
	Page int
	// Documents accumulates every committed document of this run.
	Documents []*store.VideoDocument
	// Inexistent lists documents that could not be removed during
	// reconciliation because other documents still reference them.
	Inexistent []string
}

// DefaultBatchSize is the number of records enriched concurrently and
// committed as one store transaction.
const DefaultBatchSize = 5

// interBatchDelay is a small defensive pause between batch commits, on top
// of the transport's own throttling.
const interBatchDelay = 100 * time.Millisecond

// SyncManager drives a full synchronization run: it walks the remote
// collection page by page, enriches records in fixed-size concurrent
// batches, commits one store transaction per batch, and reconciles
// deletions once the walk completes.
type SyncManager struct {
	lister     Lister
	enricher   *Enricher
	store      store.Store
	reconciler *Reconciler
	batchSize  int
	log        logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	// onProgress, when set, observes state snapshots after each batch.
	onProgress func(RunState)

	state RunState
}

// NewSyncManager creates a sync manager over the given lister, enricher and
// content store.
func NewSyncManager(lister Lister, enricher *Enricher, st store.Store) *SyncManager {
	return &SyncManager{
		lister:     lister,
		enricher:   enricher,
		store:      st,
		reconciler: NewReconciler(st),
		batchSize:  DefaultBatchSize,
		log:        logrus.StandardLogger().WithField("component", "sync"),
		sleep:      sleepContext,
		now:        time.Now,
		state:      RunState{Status: StatusIdle},
	}
}

// SetBatchSize overrides the batch size. Non-positive values are ignored.
func (m *SyncManager) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

// SetOnProgress registers a callback invoked with a state snapshot after
// every committed batch. The callback runs on the sync flow; it must not
// block for long.
func (m *SyncManager) SetOnProgress(fn func(RunState)) {
	m.onProgress = fn
}

// State returns a snapshot of the current run state.
func (m *SyncManager) State() RunState {
	state := m.state
	state.Documents = append([]*store.VideoDocument(nil), m.state.Documents...)
	state.Inexistent = append([]string(nil), m.state.Inexistent...)
	return state
}

// Run executes one full sync: count pass, page walk with batched upserts,
// then reconciliation. It returns the number of processed documents.
//
// A failure in any page, batch, or commit aborts the run with status
// "error"; transactions committed before the failure stay committed.
func (m *SyncManager) Run(ctx context.Context) (int, error) {
	m.state = RunState{Status: StatusLoading}

	total, err := m.lister.Count(ctx)
	if err != nil {
		return 0, m.fail(&SyncError{Stage: "count", Err: err})
	}
	m.state.Total = total

	walkErr := m.lister.Walk(ctx, func(page Page) error {
		return m.processPage(ctx, page)
	})
	if walkErr != nil {
		var syncErr *SyncError
		if !errors.As(walkErr, &syncErr) {
			walkErr = &SyncError{Stage: "list", Err: walkErr}
		}
		return len(m.state.Documents), m.fail(walkErr)
	}

	inexistent, err := m.reconciler.Reconcile(ctx, documentIDs(m.state.Documents))
	if err != nil {
		return len(m.state.Documents), m.fail(&SyncError{Stage: "reconcile", Err: err})
	}
	m.state.Inexistent = inexistent

	count := len(m.state.Documents)
	m.state.Status = StatusFinished
	m.state.Message = fmt.Sprintf("Finished syncing %d videos at %s",
		count, m.now().Format("15:04"))
	m.log.WithField("count", count).Info("sync finished")
	return count, nil
}

// processPage partitions one page into fixed-size batches. Batches run
// strictly in sequence; within a batch the enrichments run concurrently and
// all must succeed before the batch's single transaction commits.
func (m *SyncManager) processPage(ctx context.Context, page Page) error {
	m.state.Page = page.Number
	videos := page.Videos

	for start := 0; start < len(videos); start += m.batchSize {
		end := start + m.batchSize
		if end > len(videos) {
			end = len(videos)
		}
		batch := videos[start:end]

		docs := make([]*store.VideoDocument, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, video := range batch {
			i, video := i, video
			g.Go(func() error {
				doc, err := m.enricher.Enrich(gctx, video)
				if err != nil {
					return err
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return &SyncError{Stage: "enrich", Err: err}
		}

		tx := m.store.Transaction()
		for _, doc := range docs {
			tx.CreateOrReplace(doc)
		}
		if err := tx.Commit(ctx); err != nil {
			return &SyncError{Stage: "commit", Err: err}
		}

		m.state.Documents = append(m.state.Documents, docs...)
		// Absolute position across pages, not just within this one.
		m.state.Processed = end + (page.Number-1)*page.PerPage
		if m.onProgress != nil {
			m.onProgress(m.State())
		}

		// Defensive pause between batches, beyond the transport's own
		// throttling. Skipped after the page's last batch.
		if end < len(videos) {
			if err := m.sleep(ctx, interBatchDelay); err != nil {
				return &SyncError{Stage: "commit", Err: err}
			}
		}
	}
	return nil
}

// fail records the terminal error state and passes the error through.
func (m *SyncManager) fail(err error) error {
	m.state.Status = StatusError
	m.state.Message = err.Error()
	m.log.WithError(err).Error("sync run failed")
	return err
}

func documentIDs(docs []*store.VideoDocument) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}
