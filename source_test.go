package triviacards

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "q.csv"), []byte(sampleFile), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := NewDirSource(dir)

	text, err := src.Open(context.Background(), "q.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if text != sampleFile {
		t.Fatalf("Open returned %q", text)
	}

	for _, name := range []string{"missing.csv", "../q.csv", "/etc/passwd"} {
		if _, err := src.Open(context.Background(), name); !errors.Is(err, ErrFileUnavailable) {
			t.Errorf("Open(%q) error = %v, want ErrFileUnavailable", name, err)
		}
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/q.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleFile))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/files/", srv.Client())
	text, err := src.Open(context.Background(), "q.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if text != sampleFile {
		t.Fatalf("Open returned %q", text)
	}

	if _, err := src.Open(context.Background(), "missing.csv"); !errors.Is(err, ErrFileUnavailable) {
		t.Fatalf("missing file error = %v, want ErrFileUnavailable", err)
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewHTTPSource(url, nil).Open(context.Background(), "q.csv"); !errors.Is(err, ErrFileUnavailable) {
		t.Fatalf("error = %v, want ErrFileUnavailable", err)
	}
}

func TestNewFileSource(t *testing.T) {
	if _, ok := NewFileSource(FilesConfig{Dir: "public"}).(*DirSource); !ok {
		t.Errorf("expected DirSource without base URL")
	}
	if _, ok := NewFileSource(FilesConfig{BaseURL: "http://example.test"}).(*HTTPSource); !ok {
		t.Errorf("expected HTTPSource with base URL")
	}
}

func TestReadUpload(t *testing.T) {
	text, err := ReadUpload("Questions.CSV", strings.NewReader(sampleFile), 1024)
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if text != sampleFile {
		t.Fatalf("ReadUpload returned %q", text)
	}

	if _, err := ReadUpload("questions.txt", strings.NewReader(sampleFile), 1024); !errors.Is(err, ErrFileUnavailable) {
		t.Errorf("wrong extension error = %v", err)
	}
	if _, err := ReadUpload("big.csv", strings.NewReader(strings.Repeat("x", 11)), 10); !errors.Is(err, ErrFileUnavailable) {
		t.Errorf("oversized upload error = %v", err)
	}
	if _, err := ReadUpload("exact.csv", strings.NewReader(strings.Repeat("x", 10)), 10); err != nil {
		t.Errorf("upload at limit error = %v", err)
	}
}
