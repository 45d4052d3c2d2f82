package vimeosync

import (
	"context"

	"vimeosync/config"
	"vimeosync/store"
	"vimeosync/vimeo"
)

// Result summarizes a completed sync run.
type Result struct {
	// Count is the number of documents synced.
	Count int
	// Message is the terminal status text.
	Message string
	// Inexistent lists document IDs that could not be cleaned up because
	// other documents still reference them.
	Inexistent []string
}

// Sync runs one full catalog synchronization into the given store. The
// folder-tree walker is used when cfg.FolderID is set, the flat catalog
// walker otherwise.
func Sync(ctx context.Context, cfg *config.Config, st store.Store) (*Result, error) {
	manager, err := NewSyncManager(cfg, st)
	if err != nil {
		return nil, err
	}
	count, err := manager.Run(ctx)
	if err != nil {
		return nil, err
	}
	state := manager.State()
	return &Result{
		Count:      count,
		Message:    state.Message,
		Inexistent: state.Inexistent,
	}, nil
}

// NewSyncManager wires a sync manager from configuration: client, walker,
// enricher, and reconciler over the given store.
func NewSyncManager(cfg *config.Config, st store.Store) (*vimeo.SyncManager, error) {
	if cfg.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	client := newClient(cfg)

	var lister vimeo.Lister
	if cfg.FolderID != "" {
		fl := vimeo.NewFolderLister(client, cfg.FolderID)
		fl.SetPerPage(cfg.PerPage)
		lister = fl
	} else {
		fl := vimeo.NewFlatLister(client)
		fl.SetPerPage(cfg.PerPage)
		lister = fl
	}

	manager := vimeo.NewSyncManager(lister, vimeo.NewEnricher(client), st)
	manager.SetBatchSize(cfg.BatchSize)
	return manager, nil
}

// GenerateThumbnails runs the animated thumbnail generation workflow for
// one video and returns the generated (or pre-existing) sets.
func GenerateThumbnails(ctx context.Context, cfg *config.Config, video vimeo.Video, startTime float64) ([]vimeo.ThumbnailSet, error) {
	gen, err := newThumbnailGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, video, startTime)
}

// DeleteThumbnails removes a video's existing thumbnail sets.
func DeleteThumbnails(ctx context.Context, cfg *config.Config, video vimeo.Video) error {
	gen, err := newThumbnailGenerator(cfg)
	if err != nil {
		return err
	}
	sets, err := gen.Refresh(ctx, video.URI)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}
	return gen.Delete(ctx)
}

func newThumbnailGenerator(cfg *config.Config) (*vimeo.ThumbnailGenerator, error) {
	if cfg.AccessToken == "" {
		return nil, ErrNoAccessToken
	}
	gen := vimeo.NewThumbnailGenerator(newClient(cfg))
	if err := gen.SetPollTiming(cfg.PollInterval, cfg.PollTimeout); err != nil {
		return nil, err
	}
	return gen, nil
}

func newClient(cfg *config.Config) *vimeo.Client {
	clientCfg := vimeo.DefaultClientConfig()
	clientCfg.AccessToken = cfg.AccessToken
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
	return vimeo.NewClient(clientCfg)
}
