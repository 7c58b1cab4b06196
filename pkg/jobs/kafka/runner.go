// Package kafka runs cover jobs from a Kafka topic and publishes their
// results to another.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/jobs"
	mylog "github.com/mohammed-shakir/geohash-polyfill/internal/logger"
)

// Coverer computes coverings; the serving scenarios implement it.
type Coverer interface {
	Cover(ctx context.Context, req model.CoverRequest) (model.Cells, error)
}

type Runner struct {
	log      *slog.Logger
	cfg      RunnerConfig
	cover    Coverer
	pub      Publisher
	ms       *metricSet
	ver      *versionDedupe
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type Options struct {
	Logger    *slog.Logger
	Register  prometheus.Registerer
	Publisher Publisher
}

func New(cfg RunnerConfig, c Coverer, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:    opts.Logger,
		cfg:    cfg,
		cover:  c,
		pub:    opts.Publisher,
		ms:     newMetricSet(opts.Register),
		ver:    newVersionDedupe(cfg.DedupeSize),
		assign: map[int32]struct{}{},
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("job runner disabled")
		return nil
	}
	if r.cover == nil {
		return errors.New("kafka runner: coverer dependency is required")
	}
	if r.pub == nil {
		p, err := NewProducer(r.cfg.Brokers, r.cfg.ResultsTopic)
		if err != nil {
			return err
		}
		r.pub = p
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup:   r.onAssign,
		cleanup: r.onRevoke,
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.JobsTopic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("kafka job runner started",
		"jobs_topic", r.cfg.JobsTopic, "results_topic", r.cfg.ResultsTopic,
		"group", r.cfg.GroupID, "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.pub != nil {
		if err := r.pub.Close(); err != nil {
			r.log.Error("result producer close", "err", err)
		}
	}
	r.log.Info("kafka job runner stopped")
}

// Readiness reports ready once the group has assigned partitions. A disabled
// runner is always ready.
func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.cfg.Enabled {
		return true, nil
	}
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

func (r *Runner) onAssign(sess sarama.ConsumerGroupSession) {
	r.assignMu.Lock()
	defer r.assignMu.Unlock()
	r.assigned.Store(true)
	r.assign = map[int32]struct{}{}
	for _, parts := range sess.Claims() {
		for _, p := range parts {
			r.assign[p] = struct{}{}
		}
	}
}

func (r *Runner) onRevoke(sarama.ConsumerGroupSession) {
	r.assignMu.Lock()
	defer r.assignMu.Unlock()
	r.assigned.Store(false)
	r.assign = map[int32]struct{}{}
}

// handleMessage answers one job. Undecodable messages are dropped; only a
// failed publish is returned, so the message is redelivered.
func (r *Runner) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()
	if !msg.Timestamp.IsZero() {
		r.ms.lagGauge.Set(time.Since(msg.Timestamp).Seconds())
	}

	var job jobs.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		r.ms.msgs.WithLabelValues("undecodable").Inc()
		r.log.WarnContext(ctx, "dropping undecodable job",
			"partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	ctx = mylog.WithJobID(ctx, job.ID)

	if job.ID != "" && r.ver.stale(job.ID, job.Version) {
		r.ms.msgs.WithLabelValues("skip_version").Inc()
		r.log.DebugContext(ctx, "skipping already answered job", "version", job.Version)
		return nil
	}

	res := r.run(ctx, job)
	if err := r.pub.Publish(ctx, res); err != nil {
		r.ms.msgs.WithLabelValues("publish_error").Inc()
		return err
	}
	r.ver.remember(job.ID, job.Version)

	mode := "outer"
	if job.Inner {
		mode = "inner"
	}
	r.ms.proc.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if res.Error != "" {
		r.ms.msgs.WithLabelValues("failed").Inc()
		r.log.InfoContext(ctx, "job failed", "err", res.Error)
		return nil
	}
	r.ms.msgs.WithLabelValues("ok").Inc()
	r.ms.cells.Observe(float64(len(res.Geohashes)))
	r.log.DebugContext(ctx, "job done", "cells", len(res.Geohashes), "precision", job.Precision, "mode", mode)
	return nil
}

func (r *Runner) run(ctx context.Context, job jobs.Job) jobs.Result {
	if err := job.Validate(); err != nil {
		return job.Failed(fmt.Errorf("validate: %w", err))
	}
	req, err := job.Request()
	if err != nil {
		return job.Failed(err)
	}
	if r.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.JobTimeout)
		defer cancel()
	}
	cells, err := r.cover.Cover(ctx, req)
	if err != nil {
		return job.Failed(err)
	}
	return job.Done(cells)
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
