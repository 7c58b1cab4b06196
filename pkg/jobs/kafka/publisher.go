package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geohash-polyfill/internal/jobs"
)

// Publisher delivers job results.
type Publisher interface {
	Publish(ctx context.Context, res jobs.Result) error
	Close() error
}

// Producer publishes results synchronously, keyed by job id so every version
// of a job lands on the same partition.
type Producer struct {
	topic string
	prod  sarama.SyncProducer
}

func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return cfg
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	prod, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("jobs: create sync producer: %w", err)
	}
	return WrapProducer(prod, topic), nil
}

// WrapProducer publishes through an existing producer.
func WrapProducer(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{topic: topic, prod: p}
}

func (p *Producer) Publish(ctx context.Context, res jobs.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("jobs: marshal result %q: %w", res.ID, err)
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(res.ID),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("jobs: publish result %q: %w", res.ID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("jobs: close producer: %w", err)
	}
	return nil
}
