// Command loadgen drives GET /cover with a Zipf-skewed pool of polygons and
// bounding boxes and writes a latency summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/httpclient"
	"github.com/mohammed-shakir/geohash-polyfill/internal/logger"
)

type Config struct {
	TargetURL      string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	PoolSize       int
	Precision      int
	InnerRatio     float64
	OutputPath     string
	RequestTimeout time.Duration
	Seed           int64
}

func loadConfig(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("loadgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/cover", "geohash-server /cover URL")
	fs.IntVar(&cfg.Concurrency, "concurrency", 16, "Concurrent workers")
	fs.DurationVar(&cfg.Duration, "duration", 30*time.Second, "Test duration")
	fs.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	fs.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	fs.IntVar(&cfg.PoolSize, "pool", 128, "Distinct geometries in pool")
	fs.IntVar(&cfg.Precision, "precision", 6, "Geohash precision sent with every request")
	fs.Float64Var(&cfg.InnerRatio, "inner-ratio", 0.25, "Share of pool entries requesting inner coverings")
	fs.StringVar(&cfg.OutputPath, "out", "", "Optional JSON summary path")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "Per-request timeout")
	fs.Int64Var(&cfg.Seed, "seed", 0, "Workload seed, 0 for time based")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Concurrency <= 0 || cfg.PoolSize <= 0 {
		return cfg, fmt.Errorf("concurrency and pool must be positive")
	}
	if cfg.ZipfS <= 1 || cfg.ZipfV < 1 {
		return cfg, fmt.Errorf("zipf parameters out of range: s=%g v=%g", cfg.ZipfS, cfg.ZipfV)
	}
	return cfg, nil
}

// pool entries alternate between bbox and polygon requests
func makePool(count, precision int, innerRatio float64, r *rand.Rand) []url.Values {
	centers := [][2]float64{
		{-99.1332, 19.4326}, // Mexico City
		{18.0686, 59.3293},  // Stockholm
		{-0.1276, 51.5072},  // London
		{139.6917, 35.6895}, // Tokyo
	}
	out := make([]url.Values, 0, count)
	for i := range count {
		c := centers[i%len(centers)]
		lon := c[0] + (r.Float64()-0.5)*0.2
		lat := c[1] + (r.Float64()-0.5)*0.2
		w := 0.02 + r.Float64()*0.08

		q := url.Values{}
		q.Set("precision", strconv.Itoa(precision))
		if r.Float64() < innerRatio {
			q.Set("inner", "true")
		}
		if i%2 == 0 {
			q.Set("bbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", lon-w/2, lat-w/2, lon+w/2, lat+w/2))
		} else {
			q.Set("polygon", fmt.Sprintf("POLYGON((%.6f %.6f,%.6f %.6f,%.6f %.6f,%.6f %.6f))",
				lon-w/2, lat-w/2, lon+w/2, lat-w/3, lon, lat+w/2, lon-w/2, lat-w/2))
		}
		out = append(out, q)
	}
	return out
}

type sample struct {
	Latency time.Duration
	Status  int
	Err     string
}

type summary struct {
	StartTime     time.Time `json:"start"`
	EndTime       time.Time `json:"end"`
	DurationSec   float64   `json:"duration_sec"`
	TotalRequests int64     `json:"total"`
	SuccessCount  int64     `json:"success"`
	ErrorCount    int64     `json:"errors"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	Pool          int       `json:"pool"`
	Precision     int       `json:"precision"`
	TargetURL     string    `json:"target"`
}

func run(ctx context.Context, cfg Config, client *http.Client, log zerolog.Logger) (summary, error) {
	base, err := url.Parse(cfg.TargetURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return summary{}, fmt.Errorf("bad target URL %q", cfg.TargetURL)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pool := makePool(cfg.PoolSize, cfg.Precision, cfg.InnerRatio, rand.New(rand.NewSource(seed)))
	imax := uint64(len(pool)) - 1

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	samples := make(chan sample, 4096)
	done := make(chan summary, 1)
	go func() {
		var s summary
		lat := make([]float64, 0, 1<<14)
		for x := range samples {
			s.TotalRequests++
			if x.Err == "" {
				s.SuccessCount++
				lat = append(lat, float64(x.Latency.Microseconds())/1000.0)
			} else {
				s.ErrorCount++
			}
		}
		sort.Float64s(lat)
		s.P50Ms, s.P95Ms, s.P99Ms = percentile(lat, 50), percentile(lat, 95), percentile(lat, 99)
		done <- s
	}()

	start := time.Now()
	log.Info().
		Str("target", cfg.TargetURL).
		Dur("duration", cfg.Duration).
		Int("concurrency", cfg.Concurrency).
		Int("pool", len(pool)).
		Msg("loadgen start")

	var wg sync.WaitGroup
	for id := range cfg.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			zipf := rand.NewZipf(rand.New(rand.NewSource(seed+int64(id)+1)), cfg.ZipfS, cfg.ZipfV, imax)
			for ctx.Err() == nil {
				u := *base
				u.RawQuery = pool[zipf.Uint64()].Encode()
				x := do(ctx, client, u.String())
				if ctx.Err() != nil {
					return
				}
				select {
				case samples <- x:
				case <-ctx.Done():
					return
				}
			}
		}(id)
	}
	wg.Wait()
	close(samples)

	s := <-done
	end := time.Now()
	s.StartTime, s.EndTime = start.UTC(), end.UTC()
	s.DurationSec = end.Sub(start).Seconds()
	if s.DurationSec > 0 {
		s.ThroughputRPS = float64(s.TotalRequests) / s.DurationSec
	}
	s.Concurrency, s.Pool, s.Precision, s.TargetURL = cfg.Concurrency, len(pool), cfg.Precision, cfg.TargetURL
	return s, nil
}

func do(ctx context.Context, client *http.Client, target string) sample {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return sample{Err: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	x := sample{Latency: time.Since(start)}
	if err != nil {
		x.Err = err.Error()
		return x
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	x.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		x.Err = fmt.Sprintf("status=%d", resp.StatusCode)
	}
	return x
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}

func writeSummary(path string, s summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode summary: %w", err)
	}
	return f.Close()
}

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	log := logger.Build(logger.Config{Level: "info", Console: true, Component: "loadgen"}, os.Stderr)

	s, err := run(context.Background(), cfg, httpclient.NewOutbound(cfg.RequestTimeout, cfg.Concurrency), log)
	if err != nil {
		log.Fatal().Err(err).Msg("loadgen failed")
	}
	log.Info().
		Int64("total", s.TotalRequests).
		Int64("success", s.SuccessCount).
		Int64("errors", s.ErrorCount).
		Float64("rps", s.ThroughputRPS).
		Float64("p50_ms", s.P50Ms).
		Float64("p95_ms", s.P95Ms).
		Float64("p99_ms", s.P99Ms).
		Msg("loadgen done")

	if cfg.OutputPath != "" {
		if err := writeSummary(cfg.OutputPath, s); err != nil {
			log.Fatal().Err(err).Msg("write summary")
		}
		log.Info().Str("path", cfg.OutputPath).Msg("summary written")
	}
}
