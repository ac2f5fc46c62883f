package blobs

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestDirStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	if err := s.Put(ctx, "01ABC.docx", strings.NewReader("hello"), 5, "application/msword"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Open(ctx, "01ABC.docx")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Fatalf("data = %q", data)
	}
	if err := s.Remove(ctx, "01ABC.docx"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Open(ctx, "01ABC.docx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open after remove = %v", err)
	}
	if err := s.Remove(ctx, "01ABC.docx"); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}
}

func TestDirStoreRejectsTraversal(t *testing.T) {
	s, _ := NewDirStore(t.TempDir())
	for _, name := range []string{"../x", "a/b", `a\b`, ".hidden", ""} {
		if err := s.Put(context.Background(), name, strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Put(%q) = %v", name, err)
		}
	}
}

func TestDirStoreSizeMismatchLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewDirStore(dir)
	if err := s.Put(context.Background(), "a.docx", strings.NewReader("abc"), 10, ""); err == nil {
		t.Fatal("expected size mismatch error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("leftover files: %v", entries)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMinioConfigRequired(t *testing.T) {
	if _, err := NewMinioStore(context.Background(), MinioConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}
