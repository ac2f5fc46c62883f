package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKVLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv := NewFileKV(path)

	if _, ok, err := kv.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("empty file should have no token: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected permissions %v", perm)
	}
	if v, ok, _ := NewFileKV(path).Get(ctx, KeyToken); !ok || v != "abc" {
		t.Fatalf("value not persisted: %q", v)
	}
	if err := kv.Delete(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should be removed once empty, stat err=%v", err)
	}
}

func TestFileKVRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileKV(path).Get(context.Background(), KeyToken); err == nil {
		t.Fatal("expected decode error")
	}
}
