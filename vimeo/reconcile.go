package vimeo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"vimeosync/store"
)

// Reconciler removes store documents whose remote counterpart has
// disappeared. It runs after a completed walk, with the run's full set of
// valid document IDs.
type Reconciler struct {
	store   store.Store
	docType string
	log     logrus.FieldLogger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(st store.Store) *Reconciler {
	return &Reconciler{
		store:   st,
		docType: store.DocTypeVideo,
		log:     logrus.StandardLogger().WithField("component", "reconcile"),
	}
}

// Reconcile deletes every managed document not present in validIDs.
//
// Deletions are issued individually so one failure does not block the rest.
// Documents that cannot be removed because other documents still reference
// them are expected casualties: their IDs are returned for user-facing
// reporting, never raised as errors. Any other deletion failure is logged
// and the ID conservatively reported as not removed. Only a failure to
// fetch the existing ID set is a hard error.
func (r *Reconciler) Reconcile(ctx context.Context, validIDs []string) ([]string, error) {
	existing, err := r.store.FetchIDs(ctx, r.docType)
	if err != nil {
		return nil, fmt.Errorf("fetch existing document ids: %w", err)
	}

	valid := make(map[string]bool, len(validIDs))
	for _, id := range validIDs {
		valid[id] = true
	}

	var inexistent []string
	var failures *multierror.Error
	for _, id := range existing {
		if valid[id] {
			continue
		}
		if err := r.store.Delete(ctx, id); err != nil {
			inexistent = append(inexistent, id)
			if !errors.Is(err, store.ErrDocumentReferenced) {
				failures = multierror.Append(failures, fmt.Errorf("%s: %w", id, err))
			}
			continue
		}
		r.log.WithField("id", id).Info("deleted stale document")
	}

	if failures != nil {
		r.log.WithError(failures).Warn("some stale documents could not be deleted")
	}
	return inexistent, nil
}
