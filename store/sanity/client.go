// Package sanity implements the store.Store interface against the Sanity
// Content Lake HTTP API: GROQ queries for reads, the mutate endpoint for
// transactional writes and deletes.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vimeosync/store"
)

// Config holds the connection settings for a Sanity project dataset.
type Config struct {
	// ProjectID is the Sanity project identifier.
	ProjectID string
	// Dataset is the dataset name (e.g. "production").
	Dataset string
	// Token is a write-capable API token.
	Token string
	// APIVersion is the dated API version (default "2025-02-07").
	APIVersion string
	// Timeout for individual HTTP requests.
	Timeout time.Duration
	// BaseURL overrides the derived https://<project>.api.sanity.io
	// endpoint. Used in tests.
	BaseURL string
	// Logger receives request diagnostics. Defaults to the standard logger.
	Logger logrus.FieldLogger
}

// DefaultConfig returns sensible defaults; project, dataset and token must
// still be supplied.
func DefaultConfig() Config {
	return Config{
		APIVersion: "2025-02-07",
		Timeout:    30 * time.Second,
	}
}

// Client talks to the Sanity Content Lake API. It implements store.Store.
type Client struct {
	base    *http.Client
	baseURL string
	dataset string
	token   string
	version string
	log     logrus.FieldLogger
}

// New creates a Sanity store client.
func New(cfg Config) (*Client, error) {
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("sanity: dataset required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("sanity: token required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultConfig().APIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("sanity: project id required")
		}
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		base:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		dataset: cfg.Dataset,
		token:   cfg.Token,
		version: cfg.APIVersion,
		log:     log.WithField("component", "sanity"),
	}, nil
}

// FetchIDs runs a GROQ query returning the IDs of every document of the
// given type.
func (c *Client) FetchIDs(ctx context.Context, docType string) ([]string, error) {
	query := fmt.Sprintf("*[_type == %q]{_id}", docType)
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?query=%s",
		c.baseURL, c.version, c.dataset, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &store.StoreError{Op: "fetch", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, &store.StoreError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &store.StoreError{Op: "fetch", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &store.StoreError{Op: "fetch", Err: statusError(resp.StatusCode, body)}
	}

	var result struct {
		Result []struct {
			ID string `json:"_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &store.StoreError{Op: "fetch", Err: fmt.Errorf("parse query result: %w", err)}
	}

	ids := make([]string, 0, len(result.Result))
	for _, doc := range result.Result {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Transaction starts a buffered mutation transaction.
func (c *Client) Transaction() store.Transaction {
	return &transaction{client: c}
}

// Delete removes a single document through a one-mutation transaction.
func (c *Client) Delete(ctx context.Context, id string) error {
	tx := &transaction{client: c}
	tx.Delete(id)
	if err := tx.Commit(ctx); err != nil {
		return &store.StoreError{Op: "delete", ID: id, Err: unwrapCommit(err)}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.base.CloseIdleConnections()
	return nil
}

// mutation is one entry in a mutate request body. Exactly one field is set.
type mutation struct {
	CreateOrReplace *store.VideoDocument `json:"createOrReplace,omitempty"`
	Delete          *deleteMutation      `json:"delete,omitempty"`
}

type deleteMutation struct {
	ID string `json:"id"`
}

type transaction struct {
	client    *Client
	mutations []mutation
	committed bool
}

func (t *transaction) CreateOrReplace(doc *store.VideoDocument) {
	t.mutations = append(t.mutations, mutation{CreateOrReplace: doc})
}

func (t *transaction) Delete(id string) {
	t.mutations = append(t.mutations, mutation{Delete: &deleteMutation{ID: id}})
}

// Commit posts all buffered mutations as a single transactional request.
func (t *transaction) Commit(ctx context.Context) error {
	if len(t.mutations) == 0 {
		return store.ErrEmptyTransaction
	}
	if t.committed {
		return store.ErrTransactionClosed
	}

	payload, err := json.Marshal(map[string]any{"mutations": t.mutations})
	if err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v%s/data/mutate/%s?returnIds=false&visibility=sync",
		t.client.baseURL, t.client.version, t.client.dataset)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+t.client.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.base.Do(req)
	if err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &store.StoreError{Op: "commit", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &store.StoreError{Op: "commit", Err: statusError(resp.StatusCode, body)}
	}

	t.committed = true
	return nil
}

// statusError classifies an error response. The mutate endpoint reports
// reference-constrained deletes as a conflict whose description names the
// referencing documents.
func statusError(status int, body []byte) error {
	if status == http.StatusConflict && bytes.Contains(bytes.ToLower(body), []byte("reference")) {
		return fmt.Errorf("%w: %s", store.ErrDocumentReferenced, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("sanity: unexpected status %d: %s", status, strings.TrimSpace(string(body)))
}

// unwrapCommit strips the transaction's own StoreError wrapper so single
// deletes are reported once, with the delete op.
func unwrapCommit(err error) error {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Err
	}
	return err
}
