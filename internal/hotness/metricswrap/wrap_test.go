package metricswrap

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/hotness/expdecay"
)

func Test_HotKeysGauge_Updates(t *testing.T) {
	p := observability.Init(observability.Config{})
	observability.SetScenario("cache")
	t.Cleanup(func() { observability.SetScenario("") })

	w := New(expdecay.New(30*time.Second), nil, Options{})
	w.Inc("keyA")
	w.Inc("keyB")
	w.Reset("keyA")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	body := rr.Body.String()

	if !strings.Contains(body, `hot_keys{scenario="cache"} 1`) {
		t.Fatalf("expected hot_keys gauge == 1, got:\n%s", body)
	}
}

func Test_HotKeyLogged(t *testing.T) {
	var buf bytes.Buffer
	w := New(expdecay.New(time.Minute), slog.New(slog.NewJSONHandler(&buf, nil)), Options{HotThreshold: 1.5, LogSample: 1})

	w.Inc("k")
	if buf.Len() != 0 {
		t.Fatalf("logged below threshold: %s", buf.String())
	}
	w.Inc("k")
	if !strings.Contains(buf.String(), `"event":"hotness_threshold"`) {
		t.Fatalf("missing hot log: %s", buf.String())
	}
}

func TestShouldLog(t *testing.T) {
	if shouldLog(0, "k") || !shouldLog(1, "k") {
		t.Fatalf("sample edges wrong")
	}
}
