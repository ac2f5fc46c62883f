package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	kv := NewRedisKV(client, "")

	if _, ok, err := kv.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("expected missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, KeyToken, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mr.Get("wordcheck:session:token"); err != nil || got != "tok" {
		t.Fatalf("unexpected raw value %q: %v", got, err)
	}
	if v, ok, err := kv.Get(ctx, KeyToken); err != nil || !ok || v != "tok" {
		t.Fatalf("Get = %q %v %v", v, ok, err)
	}
	if err := kv.Delete(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("wordcheck:session:token") {
		t.Fatal("key should be deleted")
	}
}
