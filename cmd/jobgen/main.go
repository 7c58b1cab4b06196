// Command jobgen submits one cover job to Kafka and waits for its result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/jobs"
	"github.com/mohammed-shakir/geohash-polyfill/internal/logger"
	jobskafka "github.com/mohammed-shakir/geohash-polyfill/pkg/jobs/kafka"
)

func main() {
	os.Exit(run())
}

func run() int {
	in := flag.String("in", "", "geometry file (GeoJSON or WKT)")
	id := flag.String("id", "", "job id (generated when empty)")
	version := flag.Uint64("version", 1, "job version")
	precision := flag.Int("precision", 6, "geohash precision")
	inner := flag.Bool("inner", false, "inner covering")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for the result, 0 to not wait")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Component: "jobgen"}, os.Stderr)
	log := logger.NewSlog(&zl)

	job, err := buildJob(*in, *id, *version, *precision, *inner)
	if err != nil {
		log.Error("build job", "err", err)
		return 2
	}
	ctx := logger.WithJobID(context.Background(), job.ID)

	// subscribe before producing so the result cannot be missed
	var results <-chan jobs.Result
	if *wait > 0 {
		var stop func()
		results, stop, err = subscribe(cfg.Jobs.Brokers, cfg.Jobs.ResultsTopic, job.ID)
		if err != nil {
			log.ErrorContext(ctx, "subscribe results", "err", err)
			return 1
		}
		defer stop()
	}

	if err := submit(cfg.Jobs.Brokers, cfg.Jobs.JobsTopic, job); err != nil {
		log.ErrorContext(ctx, "submit job", "err", err)
		return 1
	}
	log.InfoContext(ctx, "job submitted", "topic", cfg.Jobs.JobsTopic, "precision", job.Precision, "inner", job.Inner)
	if *wait <= 0 {
		return 0
	}

	select {
	case res := <-results:
		if res.Error != "" {
			log.ErrorContext(ctx, "job failed", "err", res.Error)
			return 1
		}
		for _, c := range res.Geohashes {
			fmt.Println(c)
		}
		return 0
	case <-time.After(*wait):
		log.ErrorContext(ctx, "timed out waiting for result", "wait", *wait)
		return 1
	}
}

func buildJob(path, id string, version uint64, precision int, inner bool) (jobs.Job, error) {
	if path == "" {
		return jobs.Job{}, errors.New("-in is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return jobs.Job{}, err
	}
	geom := json.RawMessage(strings.TrimSpace(string(data)))
	if len(geom) == 0 || geom[0] != '{' {
		b, err := json.Marshal(string(geom))
		if err != nil {
			return jobs.Job{}, err
		}
		geom = b
	}
	if id == "" {
		id = logger.NewID()
	}
	j := jobs.Job{ID: id, Version: version, Geometry: geom, Precision: precision, Inner: inner, TS: time.Now().UTC()}
	return j, j.Validate()
}

func submit(brokers []string, topic string, job jobs.Job) error {
	prod, err := sarama.NewSyncProducer(brokers, jobskafka.ProducerConfig())
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}
	defer func() { _ = prod.Close() }()

	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, _, err = prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(job.ID),
		Value: sarama.ByteEncoder(b),
	})
	return err
}

// subscribe tails every partition of topic from the newest offset and
// delivers the first result for id.
func subscribe(brokers []string, topic, id string) (<-chan jobs.Result, func(), error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("consumer: %w", err)
	}
	parts, err := consumer.Partitions(topic)
	if err != nil {
		_ = consumer.Close()
		return nil, nil, fmt.Errorf("partitions of %s: %w", topic, err)
	}

	out := make(chan jobs.Result, 1)
	done := make(chan struct{})
	var pcs []sarama.PartitionConsumer
	for _, p := range parts {
		pc, err := consumer.ConsumePartition(topic, p, sarama.OffsetNewest)
		if err != nil {
			for _, c := range pcs {
				_ = c.Close()
			}
			_ = consumer.Close()
			return nil, nil, fmt.Errorf("consume %s/%d: %w", topic, p, err)
		}
		pcs = append(pcs, pc)
		go func(pc sarama.PartitionConsumer) {
			for {
				select {
				case <-done:
					return
				case msg, ok := <-pc.Messages():
					if !ok {
						return
					}
					var res jobs.Result
					if json.Unmarshal(msg.Value, &res) != nil || res.ID != id {
						continue
					}
					select {
					case out <- res:
					default:
					}
				}
			}
		}(pc)
	}

	stop := func() {
		close(done)
		for _, pc := range pcs {
			_ = pc.Close()
		}
		_ = consumer.Close()
	}
	return out, stop, nil
}
