package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8090" || cfg.Scenario != "direct" || cfg.Precision != 6 || cfg.MaxPrecision != 9 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheOpTimeout != 250*time.Millisecond || cfg.Jobs.Enabled || cfg.Admission.Threshold != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("SCENARIO", " Cache ")
	t.Setenv("GEOHASH_PRECISION", "7")
	t.Setenv("GEOHASH_MAX_PRECISION", "40")
	t.Setenv("CACHE_TTL_DEFAULT", "90s")
	t.Setenv("JOBS_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CACHE_ADMIT_THRESHOLD", "2.5")
	t.Setenv("HOT_HALF_LIFE", "30s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Scenario != "cache" || cfg.Precision != 7 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxPrecision != 12 {
		t.Fatalf("max precision must clamp to 12, got %d", cfg.MaxPrecision)
	}
	if cfg.CacheTTLDefault != 90*time.Second {
		t.Fatalf("ttl=%v", cfg.CacheTTLDefault)
	}
	if cfg.Admission.Threshold != 2.5 || cfg.Admission.HalfLife != 30*time.Second {
		t.Fatalf("admission=%+v", cfg.Admission)
	}
	if !cfg.Jobs.Enabled || !reflect.DeepEqual(cfg.Jobs.Brokers, []string{"a:9092", "b:9092"}) {
		t.Fatalf("jobs=%+v", cfg.Jobs)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "addr: \":7000\"\nredis_addr: \"redis:6379\"\ngeohash_precision: 5\ncache_local_size: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REDIS_ADDR", "override:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" || cfg.Precision != 5 || cfg.CacheLocalSize != 10 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.RedisAddr != "override:6379" {
		t.Fatalf("env must win over file, got %q", cfg.RedisAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	t.Setenv("GEOHASH_PRECISION", "11")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for precision above max")
	}
}
