package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	loc, err := s.Put(ctx, "deadbeef.wav", []byte("RIFFdata"), "audio/wav")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if loc != "deadbeef.wav" {
		t.Errorf("location = %q, want %q", loc, "deadbeef.wav")
	}

	rc, err := s.Open(ctx, loc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Errorf("data = %q, want %q", data, "RIFFdata")
	}

	if err := s.Remove(ctx, loc); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Open(ctx, loc); err == nil {
		t.Error("Open after Remove succeeded, want error")
	}
}

func TestNewFSStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "audio")
	if _, err := NewFSStore(root); err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat root: %v", err)
	}
	if !info.IsDir() {
		t.Error("root is not a directory")
	}
}

func TestFSStoreHealthy(t *testing.T) {
	root := filepath.Join(t.TempDir(), "audio")
	s, err := NewFSStore(root)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if !s.Healthy(context.Background()) {
		t.Error("Healthy = false for existing root")
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}
	if s.Healthy(context.Background()) {
		t.Error("Healthy = true after root removed")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(Config{AudioDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*FSStore); !ok {
		t.Errorf("default backend = %T, want *FSStore", s)
	}

	if _, err := New(Config{Backend: "s3"}); err == nil {
		t.Error("unknown backend accepted, want error")
	}
}
