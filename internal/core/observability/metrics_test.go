package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func TestProvider_RegistersStandardCollectors_AndBuildInfo(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "r", BuildDate: "now"}})

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "smoke"})
	p.Register(g)
	g.Set(42)
	if n := testutil.CollectAndCount(g); n == 0 {
		t.Fatalf("expected at least 1 sample from test_gauge, got %d", n)
	}

	body := scrape(t, p)
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go_goroutines in payload; got:\n%s", body)
	}
	if !strings.Contains(body, "test_gauge 42") {
		t.Fatalf("expected test_gauge in payload; got:\n%s", body)
	}
	assertHasMetricLine(t, body, "app_build_info", `version="test"`, `revision="r"`)
}

func TestAppMetrics_Labels(t *testing.T) {
	p := Init(Config{})
	SetScenario("cache")
	t.Cleanup(func() { SetScenario("") })

	ObserveHTTP(http.MethodPost, "/cover", 200, 0.01)
	ObserveCover("inner", "ok", 42, 0.002)
	ObserveCover("outer", "invalid", 0, 0.0001)
	IncCacheHit("local")
	IncCacheMiss("redis")
	ObserveCacheOp("get", nil, 0.001)
	ObserveCacheOp("set", errors.New("boom"), 0.001)
	SetHotKeys(3)
	IncAdmission("bypass", "cold")

	body := scrape(t, p)
	assertHasMetricLine(t, body, "http_requests_total", `method="POST"`, `route="/cover"`, `status="200"`, `scenario="cache"`)
	assertHasMetricLine(t, body, "cover_requests_total", `mode="inner"`, `outcome="ok"`)
	assertHasMetricLine(t, body, "cover_requests_total", `mode="outer"`, `outcome="invalid"`)
	assertHasMetricLine(t, body, "cover_cells_count", `mode="inner"`)
	assertHasMetricLine(t, body, "cache_results_total", `tier="local"`, `outcome="hit"`)
	assertHasMetricLine(t, body, "cache_results_total", `tier="redis"`, `outcome="miss"`)
	assertHasMetricLine(t, body, "cache_op_total", `op="set"`, `result="error"`)
	assertHasMetricLine(t, body, "redis_operation_duration_seconds_count", `op="get"`)
	assertHasMetricLine(t, body, "hot_keys", `scenario="cache"`)
	assertHasMetricLine(t, body, "cache_admissions_total", `decision="bypass"`, `reason="cold"`)
}

func TestSetScenario_EmptyFallsBack(t *testing.T) {
	SetScenario("")
	if got := getScenario(); got != "direct" {
		t.Fatalf("scenario=%q want direct", got)
	}
}
