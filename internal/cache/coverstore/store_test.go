package coverstore

import (
	"context"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/geohash-polyfill/internal/cache/redisstore"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
)

func newRedis(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	rc, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestStore_SetGet_BothTiers(t *testing.T) {
	rc, mr := newRedis(t)
	s := New(rc, 16, time.Minute)
	ctx := context.Background()

	key := "cover:outer:5:00000000000000aa"
	want := model.Cells{"9g3qr", "9g3qx"}
	if err := s.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := mr.Get(key)
	if err != nil || raw != `["9g3qr","9g3qx"]` {
		t.Fatalf("redis value=%q err=%v", raw, err)
	}
	if mr.TTL(key) != time.Minute {
		t.Fatalf("redis ttl=%v", mr.TTL(key))
	}

	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("Get=%v ok=%v err=%v", got, ok, err)
	}
	if s.Len() != 1 {
		t.Fatalf("local len=%d", s.Len())
	}
}

func TestStore_RedisHitPopulatesLocal(t *testing.T) {
	rc, mr := newRedis(t)
	key := "cover:inner:6:00000000000000bb"
	if err := mr.Set(key, `["u4pruy"]`); err != nil {
		t.Fatalf("mr.Set: %v", err)
	}

	s := New(rc, 16, time.Minute)
	got, ok, err := s.Get(context.Background(), key)
	if err != nil || !ok || !reflect.DeepEqual(got, model.Cells{"u4pruy"}) {
		t.Fatalf("Get=%v ok=%v err=%v", got, ok, err)
	}

	mr.Del(key)
	got, ok, err = s.Get(context.Background(), key)
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("expected local hit after redis delete, got=%v ok=%v err=%v", got, ok, err)
	}
}

func TestStore_MissAndEmptyCovering(t *testing.T) {
	rc, _ := newRedis(t)
	s := New(rc, 0, 0)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "absent"); ok || err != nil {
		t.Fatalf("absent: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "empty", model.Cells{}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "empty")
	if err != nil || !ok || got == nil || len(got) != 0 {
		t.Fatalf("empty covering: got=%#v ok=%v err=%v", got, ok, err)
	}
}

func TestStore_CorruptValue(t *testing.T) {
	rc, mr := newRedis(t)
	_ = mr.Set("bad", "not json")
	s := New(rc, 0, 0)
	if _, _, err := s.Get(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStore_LocalOnly(t *testing.T) {
	s := New(nil, 2, time.Minute)
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, model.Cells{k}, 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("oldest entry should be evicted")
	}
	if got, ok, _ := s.Get(ctx, "c"); !ok || got[0] != "c" {
		t.Fatalf("newest entry missing")
	}
}

func TestStore_DelBothTiers(t *testing.T) {
	rc, mr := newRedis(t)
	s := New(rc, 16, time.Minute)
	ctx := context.Background()

	if err := s.Set(ctx, "k", model.Cells{"9g3qr"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if mr.Exists("k") || s.Len() != 0 {
		t.Fatalf("entry survived: redis=%v local=%d", mr.Exists("k"), s.Len())
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("deleted entry still served")
	}
}
