package keyring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// Fetcher errors.
var (
	ErrKeyNotFound  = errors.New("key not found on keyserver")
	ErrNetworkError = errors.New("network error")
	ErrFetchFailed  = errors.New("fetch failed")
)

// maxKeySize bounds the response read from a keyserver.
const maxKeySize = 1 << 20

// Fetcher retrieves public key material by key id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// HKPFetcher fetches armored keys over the HKP lookup endpoint of a keyserver.
type HKPFetcher struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewHKPFetcher creates a fetcher for the keyserver at baseURL.
func NewHKPFetcher(baseURL string) *HKPFetcher {
	return &HKPFetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  "crostini-setup",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads the armored public key for id.
func (f *HKPFetcher) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := validation.ValidateKeyID(id); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("op", "get")
	q.Set("options", "mr")
	q.Set("search", "0x"+validation.NormalizeKeyID(id))
	lookup := f.baseURL + "/pks/lookup?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed", ErrNetworkError)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrNetworkError)
	}
	return data, nil
}

var _ Fetcher = (*HKPFetcher)(nil)

// Importer fetches keys and installs them into a Store.
type Importer struct {
	store   *Store
	fetcher Fetcher
}

// NewImporter creates an Importer.
func NewImporter(store *Store, fetcher Fetcher) *Importer {
	return &Importer{store: store, fetcher: fetcher}
}

// Store returns the trust store keys are imported into.
func (i *Importer) Store() *Store {
	return i.store
}

// Import fetches id and installs it as <name>.gpg. An id that is already
// trusted is left alone.
func (i *Importer) Import(ctx context.Context, name, id string) error {
	if i.store.Has(ctx, id) {
		return nil
	}
	key, err := i.fetcher.Fetch(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch key %s: %w", id, err)
	}
	if _, err := i.store.Install(name, key, id); err != nil {
		return fmt.Errorf("install key %s: %w", id, err)
	}
	return nil
}
