package database

import (
	"context"
	"testing"
	"time"

	"kblog/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rdb, err := NewRedisClient(ctx, addr, "", 0)
	if err == nil {
		rdb.Close()
		t.Fatal("expected an error for a closed server")
	}
}

func TestRedisPostCacheMiss(t *testing.T) {
	_, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	posts, ok, err := cache.GetList(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || posts != nil {
		t.Fatalf("expected a miss, got ok=%v posts=%+v", ok, posts)
	}
}

func TestRedisPostCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	want := []models.Post{
		{ID: 1, Title: "first", Content: "a", UserID: 7},
		{ID: 2, Title: "second", Content: "b", UserID: 7},
	}
	if err := cache.SetList(ctx, 7, 0, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists(postListKey(7)) {
		t.Fatalf("expected key %s", postListKey(7))
	}

	got, ok, err := cache.GetList(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d posts, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title ||
			got[i].Content != want[i].Content || got[i].UserID != want[i].UserID {
			t.Fatalf("post %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRedisPostCacheEmptyList(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	if err := cache.SetList(ctx, 3, 0, []models.Post{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	posts, ok, err := cache.GetList(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("an empty list is still a hit")
	}
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected a non-nil empty list, got %#v", posts)
	}
}

func TestRedisPostCacheKeysPerOwner(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	if err := cache.SetList(ctx, 1, 0, []models.Post{{ID: 10, Title: "alice"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := cache.GetList(ctx, 2); ok {
		t.Fatal("owner 2 must not see owner 1's list")
	}

	if err := cache.SetList(ctx, 2, 0, []models.Post{{ID: 20, Title: "bob"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Invalidate(ctx, 2); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	posts, ok, err := cache.GetList(ctx, 1)
	if err != nil || !ok || len(posts) != 1 || posts[0].ID != 10 {
		t.Fatalf("owner 1 list changed: ok=%v err=%v posts=%+v", ok, err, posts)
	}
	if gen, _ := cache.Generation(ctx, 1); gen != 0 {
		t.Fatalf("owner 1 generation = %d, want 0", gen)
	}
}

func TestRedisPostCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	gen, err := cache.Generation(ctx, 5)
	if err != nil || gen != 0 {
		t.Fatalf("initial generation = %d (%v), want 0", gen, err)
	}
	if err := cache.SetList(ctx, 5, gen, []models.Post{{ID: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := cache.Invalidate(ctx, 5); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(postListKey(5)) {
		t.Fatal("invalidate should remove the list")
	}
	if gen, _ := cache.Generation(ctx, 5); gen != 1 {
		t.Fatalf("generation = %d, want 1", gen)
	}

	// Invalidating an owner with nothing cached still bumps the generation.
	if err := cache.Invalidate(ctx, 5); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if gen, _ := cache.Generation(ctx, 5); gen != 2 {
		t.Fatalf("generation = %d, want 2", gen)
	}
}

func TestRedisPostCacheSkipsStaleGeneration(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, time.Minute)

	stale, _ := cache.Generation(ctx, 4)
	if err := cache.Invalidate(ctx, 4); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if err := cache.SetList(ctx, 4, stale, []models.Post{{ID: 1, Title: "old"}}); err != nil {
		t.Fatalf("stale set should be dropped quietly, got %v", err)
	}
	if mr.Exists(postListKey(4)) {
		t.Fatal("a list read under an old generation must not be stored")
	}

	current, _ := cache.Generation(ctx, 4)
	if err := cache.SetList(ctx, 4, current, []models.Post{{ID: 1, Title: "new"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	posts, ok, _ := cache.GetList(ctx, 4)
	if !ok || len(posts) != 1 || posts[0].Title != "new" {
		t.Fatalf("expected the current list, got ok=%v posts=%+v", ok, posts)
	}
}

func TestRedisPostCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisPostCache(rdb, 30*time.Second)

	if err := cache.SetList(ctx, 9, 0, []models.Post{{ID: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(postListKey(9)); ttl != 30*time.Second {
		t.Fatalf("TTL = %v, want 30s", ttl)
	}

	mr.FastForward(29 * time.Second)
	if _, ok, _ := cache.GetList(ctx, 9); !ok {
		t.Fatal("list expired early")
	}

	mr.FastForward(2 * time.Second)
	if _, ok, err := cache.GetList(ctx, 9); ok || err != nil {
		t.Fatalf("expected expiry, got ok=%v err=%v", ok, err)
	}
}
