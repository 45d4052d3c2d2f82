// Package vimeosync synchronizes a remote Vimeo video catalog into a
// transactional content store and keeps the two consistent across runs.
//
// # Overview
//
// vimeosync provides high-level convenience functions for the two core
// workflows:
//
//   - Sync: walk the remote catalog (flat or folder-scoped), upsert every
//     video as a document in the content store, and delete documents whose
//     remote counterpart has disappeared
//   - GenerateThumbnails / DeleteThumbnails: drive the per-video animated
//     thumbnail workflow against the remote API
//
// # Quick Start
//
// Run a full sync into an in-memory store:
//
//	cfg := config.Default()
//	cfg.AccessToken = os.Getenv("VIMEOSYNC_ACCESS_TOKEN")
//	st := store.NewMemoryStore()
//	result, err := vimeosync.Sync(context.Background(), cfg, st)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Message)
//
// # Rate limiting
//
// Every remote API call goes through a rate-aware transport: quota-exhausted
// responses are retried after the server-specified delay up to a fixed retry
// budget, and a low remaining-quota header triggers a short proactive
// cooldown. Writes to the content store are not rate limited.
//
// # Error Handling
//
// All operations return errors that support errors.Is and errors.As:
//
//	if errors.Is(err, vimeosync.ErrRateLimitExceeded) {
//		fmt.Println("over quota, try again later")
//	}
//
//	var syncErr *vimeosync.SyncError
//	if errors.As(err, &syncErr) {
//		fmt.Printf("sync failed during %s: %v\n", syncErr.Stage, syncErr.Err)
//	}
//
// # Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - vimeo: API client, collection walkers, enrichment, sync pipeline,
//     reconciliation, and the thumbnail workflow
//   - store: the content-store interface, document models, and the
//     in-memory implementation
//   - store/sanity: the Sanity Content Lake store adapter
//   - config: configuration management
package vimeosync
