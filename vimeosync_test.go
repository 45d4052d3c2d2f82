package vimeosync

import (
	"context"
	"errors"
	"testing"

	"vimeosync/config"
	"vimeosync/store"
	"vimeosync/vimeo"
)

func TestNewSyncManagerRequiresToken(t *testing.T) {
	cfg := config.Default()
	if _, err := NewSyncManager(cfg, store.NewMemoryStore()); !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("NewSyncManager() error = %v, want ErrNoAccessToken", err)
	}
}

func TestNewSyncManagerWiring(t *testing.T) {
	cfg := config.Default()
	cfg.AccessToken = "token"

	manager, err := NewSyncManager(cfg, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewSyncManager() error = %v", err)
	}
	if manager == nil {
		t.Fatal("NewSyncManager() = nil")
	}

	// Folder-scoped configuration must also wire cleanly.
	cfg.FolderID = "1234567"
	if _, err := NewSyncManager(cfg, store.NewMemoryStore()); err != nil {
		t.Fatalf("NewSyncManager(folder) error = %v", err)
	}
}

func TestGenerateThumbnailsRequiresToken(t *testing.T) {
	cfg := config.Default()
	_, err := GenerateThumbnails(context.Background(), cfg, vimeo.Video{URI: "/videos/1"}, 0)
	if !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("GenerateThumbnails() error = %v, want ErrNoAccessToken", err)
	}
}

func TestGenerateThumbnailsRejectsBadPollTiming(t *testing.T) {
	cfg := config.Default()
	cfg.AccessToken = "token"
	cfg.PollInterval = cfg.PollTimeout * 2

	_, err := GenerateThumbnails(context.Background(), cfg, vimeo.Video{URI: "/videos/1"}, 0)
	if err == nil {
		t.Fatal("GenerateThumbnails() error = nil, want poll timing rejection")
	}
}
