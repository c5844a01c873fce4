package triviacards

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSource opens a named trivia file and returns its full text
type FileSource interface {
	Open(ctx context.Context, name string) (string, error)
}

// DirSource reads trivia files from a local directory
type DirSource struct {
	basePath string
}

// NewDirSource creates a source rooted at basePath
func NewDirSource(basePath string) *DirSource {
	return &DirSource{basePath: basePath}
}

// Open reads name from the base directory. Names that would leave the
// directory are rejected.
func (s *DirSource) Open(_ context.Context, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("open %q: path outside collection directory: %w", name, ErrFileUnavailable)
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		return "", fmt.Errorf("open %q: %v: %w", name, err, ErrFileUnavailable)
	}
	return string(data), nil
}

// HTTPSource fetches trivia files served as static assets
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source that fetches baseURL + "/" + name
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Open performs a single GET for the file; there are no retries
func (s *HTTPSource) Open(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+name, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %v: %w", name, err, ErrFileUnavailable)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %v: %w", name, err, ErrFileUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %q: status %d: %w", name, resp.StatusCode, ErrFileUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %v: %w", name, err, ErrFileUnavailable)
	}
	return string(data), nil
}

// NewFileSource picks the HTTP source when a base URL is configured
func NewFileSource(cfg FilesConfig) FileSource {
	if cfg.BaseURL != "" {
		return NewHTTPSource(cfg.BaseURL, nil)
	}
	return NewDirSource(cfg.Dir)
}

// ReadUpload reads an uploaded trivia file of at most limit bytes
func ReadUpload(name string, r io.Reader, limit int64) (string, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return "", fmt.Errorf("upload %q: please upload a CSV file: %w", name, ErrFileUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("upload %q: %v: %w", name, err, ErrFileUnavailable)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("upload %q: larger than %d bytes: %w", name, limit, ErrFileUnavailable)
	}
	return string(data), nil
}
