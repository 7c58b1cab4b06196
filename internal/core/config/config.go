// Package config loads service settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

type JobsCfg struct {
	Enabled      bool
	Brokers      []string
	JobsTopic    string
	ResultsTopic string
	GroupID      string
	DedupeSize   int
}

// AdmissionCfg controls which computed coverings the cache scenario stores.
type AdmissionCfg struct {
	Threshold float64
	MaxCells  int
	TTLWarm   time.Duration
	TTLHot    time.Duration
	HalfLife  time.Duration
	LogSample float64
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	Scenario        string
	RedisAddr       string
	CacheNamespace  string
	Precision       int
	MaxPrecision    int
	CacheTTLDefault time.Duration
	CacheOpTimeout  time.Duration
	CacheLocalSize  int
	CacheLocalTTL   time.Duration
	Admission       AdmissionCfg
	MetricsEnabled  bool
	Jobs            JobsCfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_console", false)
	v.SetDefault("log_sample_n", 0)
	v.SetDefault("scenario", "direct")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("cache_namespace", "")
	v.SetDefault("geohash_precision", 6)
	v.SetDefault("geohash_max_precision", 9)
	v.SetDefault("cache_ttl_default", 10*time.Minute)
	v.SetDefault("cache_op_timeout", 250*time.Millisecond)
	v.SetDefault("cache_local_size", 1024)
	v.SetDefault("cache_local_ttl", time.Minute)
	v.SetDefault("cache_admit_threshold", 0.0)
	v.SetDefault("cache_admit_max_cells", 0)
	v.SetDefault("cache_ttl_warm", 0)
	v.SetDefault("cache_ttl_hot", 0)
	v.SetDefault("hot_half_life", time.Minute)
	v.SetDefault("hot_log_sample", 0.01)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("jobs_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_jobs_topic", "geohash-cover-jobs")
	v.SetDefault("kafka_results_topic", "geohash-cover-results")
	v.SetDefault("kafka_group_id", "geohash-cover-workers")
	v.SetDefault("jobs_dedupe_size", 4096)
}

// Load reads path (YAML, optional when empty) and overlays environment
// variables named after the upper-cased keys, e.g. REDIS_ADDR.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	maxP := clamp(v.GetInt("geohash_max_precision"), geohash.MinPrecision, geohash.MaxPrecision)
	p := v.GetInt("geohash_precision")
	if p < geohash.MinPrecision || p > maxP {
		return Config{}, fmt.Errorf("geohash_precision %d outside 1..%d", p, maxP)
	}

	cfg := Config{
		Addr:            v.GetString("addr"),
		LogLevel:        v.GetString("log_level"),
		LogConsole:      v.GetBool("log_console"),
		LogSampleN:      v.GetInt("log_sample_n"),
		Scenario:        strings.ToLower(strings.TrimSpace(v.GetString("scenario"))),
		RedisAddr:       v.GetString("redis_addr"),
		CacheNamespace:  v.GetString("cache_namespace"),
		Precision:       p,
		MaxPrecision:    maxP,
		CacheTTLDefault: v.GetDuration("cache_ttl_default"),
		CacheOpTimeout:  v.GetDuration("cache_op_timeout"),
		CacheLocalSize:  v.GetInt("cache_local_size"),
		CacheLocalTTL:   v.GetDuration("cache_local_ttl"),
		Admission: AdmissionCfg{
			Threshold: v.GetFloat64("cache_admit_threshold"),
			MaxCells:  v.GetInt("cache_admit_max_cells"),
			TTLWarm:   v.GetDuration("cache_ttl_warm"),
			TTLHot:    v.GetDuration("cache_ttl_hot"),
			HalfLife:  v.GetDuration("hot_half_life"),
			LogSample: v.GetFloat64("hot_log_sample"),
		},
		MetricsEnabled: v.GetBool("metrics_enabled"),
		Jobs: JobsCfg{
			Enabled:      v.GetBool("jobs_enabled"),
			Brokers:      split(v.GetString("kafka_brokers")),
			JobsTopic:    v.GetString("kafka_jobs_topic"),
			ResultsTopic: v.GetString("kafka_results_topic"),
			GroupID:      v.GetString("kafka_group_id"),
			DedupeSize:   v.GetInt("jobs_dedupe_size"),
		},
	}
	if cfg.Jobs.Enabled && len(cfg.Jobs.Brokers) == 0 {
		return Config{}, errors.New("jobs enabled but kafka_brokers is empty")
	}
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() (Config, error) {
	return Load("")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
