package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "test:"), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper, _ := setupTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	in := payload{Name: "quarterly-review", Score: 83}
	if err := helper.Set(ctx, "attempt:1", in, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "attempt:1", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper, _ := setupTestCache(t)

	var out map[string]string
	err := helper.Get(context.Background(), "nope", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("got %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := setupTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := helper.Set(ctx, key, key, time.Minute); err != nil {
			t.Fatalf("Set %q failed: %v", key, err)
		}
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var out string
	if err := helper.Get(ctx, "a", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("key a: got %v, want ErrCacheNotFound", err)
	}
	if err := helper.Get(ctx, "c", &out); err != nil {
		t.Errorf("key c should survive: %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set on nil client should be a no-op, got %v", err)
	}

	var out string
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("got %v, want ErrCacheNotAvailable", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := setupTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"score": 75}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "score:emp-1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls)
	}
	if first["score"] != 75 {
		t.Errorf("score = %d, want 75", first["score"])
	}

	// The async populate may lag; seed the cache deterministically and make
	// sure the second call does not re-fetch.
	if err := helper.Set(ctx, "score:emp-1", first, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "score:emp-1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute (cached) failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (second read should hit cache)", calls)
	}
}

func TestCacheManager_InvalidateAssessment(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Assessment.Set(ctx, "assessment:id:7", "cached", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.InvalidateAssessment(ctx, 7); err != nil {
		t.Fatalf("InvalidateAssessment failed: %v", err)
	}

	var out string
	if err := cm.Assessment.Get(ctx, "assessment:id:7", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("got %v, want ErrCacheNotFound after invalidation", err)
	}
}
