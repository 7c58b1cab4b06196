package redisstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
)

const coverKey = "cover:outer:5:0000000000000001"

func newMiniServer(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr(), WithPoolSize(4), WithIOTimeout(500*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestGet_HitMissAndTTL(t *testing.T) {
	rc, mr := newMiniServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, ok, err := rc.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("Get absent: ok=%v err=%v", ok, err)
	}
	if err := rc.Set(ctx, coverKey, []byte(`["9g3qr"]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := rc.Get(ctx, coverKey)
	if err != nil || !ok || string(v) != `["9g3qr"]` {
		t.Fatalf("Get: v=%s ok=%v err=%v", v, ok, err)
	}
	d, err := rc.TTL(ctx, coverKey)
	if err != nil || d <= 0 || d > time.Minute {
		t.Fatalf("TTL=%v err=%v", d, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, err := rc.Get(ctx, coverKey); err != nil || ok {
		t.Fatalf("expired key still served: ok=%v err=%v", ok, err)
	}
}

func TestSet_NonPositiveTTLPersists(t *testing.T) {
	rc, mr := newMiniServer(t)
	ctx := context.Background()

	if err := rc.Set(ctx, "forever", []byte("x"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("forever"); ttl != 0 {
		t.Fatalf("ttl=%v want none", ttl)
	}
}

func TestDel(t *testing.T) {
	rc, mr := newMiniServer(t)
	ctx := context.Background()

	for _, k := range []string{"k1", "k2"} {
		if err := rc.Set(ctx, k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := rc.Del(ctx, "k1", "k2", "missing"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("keys left: %v", mr.Keys())
	}
	if err := rc.Del(ctx); err != nil {
		t.Fatalf("empty Del: %v", err)
	}
}

func TestContextCanceled(t *testing.T) {
	rc, _ := newMiniServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error on Get with canceled context")
	}
	if err := rc.Del(ctx, "k"); err == nil {
		t.Fatalf("expected error on Del with canceled context")
	}
}

func TestServerErrors(t *testing.T) {
	rc, mr := newMiniServer(t)
	ctx := context.Background()

	mr.SetError("ERR server down")
	if _, _, err := rc.Get(ctx, "x"); err == nil {
		t.Fatalf("expected error while server fails")
	}
	if err := rc.Ping(ctx); err == nil {
		t.Fatalf("expected ping error while server fails")
	}
	mr.SetError("")
	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMetrics_Incremented(t *testing.T) {
	p := observability.Init(observability.Config{})
	rc, _ := newMiniServer(t)
	ctx := context.Background()

	_ = rc.Set(ctx, "m1", []byte("x"), time.Minute)
	_, _, _ = rc.Get(ctx, "m1")
	_, _ = rc.TTL(ctx, "m1")
	_ = rc.Del(ctx, "m1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	body := rr.Body.String()
	for _, op := range []string{"set", "get", "ttl", "del", "ping"} {
		if !strings.Contains(body, `cache_op_total{op="`+op+`"`) {
			t.Fatalf("missing cache_op_total for %s; got:\n%s", op, body)
		}
	}
	if !strings.Contains(body, `redis_operation_duration_seconds_bucket{op="set"`) {
		t.Fatalf("missing redis_operation_duration_seconds histogram; got:\n%s", body)
	}
}

func TestNew_RequiresAddrAndReachableServer(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := New(ctx, "127.0.0.1:1", WithDialTimeout(100*time.Millisecond)); err == nil {
		t.Fatalf("expected ping failure for unreachable server")
	}
}
