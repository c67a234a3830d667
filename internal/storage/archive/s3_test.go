// internal/storage/archive/s3_test.go
package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/binsig/internal/config"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"archive", "file.txt", "archive/file.txt"},
		{"archive/", "file.txt", "archive/file.txt"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{}); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestS3Storage_WriteAndExists(t *testing.T) {
	objects := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = string(body)
		case http.MethodHead:
			if _, ok := objects[r.URL.Path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(S3Config{
		Bucket:    "signals",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
		Prefix:    "binsig/",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	ctx := context.Background()
	if err := s.Write(ctx, "exports/b1.txt", []byte("line")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := objects["/signals/binsig/exports/b1.txt"]; got != "line" {
		t.Errorf("stored object = %q, objects = %v", got, objects)
	}

	exists, err := s.Exists(ctx, "exports/b1.txt")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}
	exists, err = s.Exists(ctx, "exports/missing.txt")
	if err != nil || exists {
		t.Errorf("Exists = %v, %v; want false", exists, err)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(config.ArchiveStorageConfig{Type: "none"})
	if err != nil || s != nil {
		t.Errorf("none: got %v, %v", s, err)
	}

	s, err = New(config.ArchiveStorageConfig{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("localfs: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}

	if _, err := New(config.ArchiveStorageConfig{Type: "gcs"}); err == nil {
		t.Error("expected error for unknown type")
	}
}
