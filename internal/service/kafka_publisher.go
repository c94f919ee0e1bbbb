package service

import (
	"context"
	"fmt"
	"time"

	"pyth-serum-client/internal/mq"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaPublisher 把每个账户组 JSON 作为一条消息发送，key 为市场地址
type KafkaPublisher struct {
	producer   *kafka.Producer
	topic      string
	partitions int
	timeout    time.Duration
}

func NewKafkaPublisher(producer *kafka.Producer, opt mq.KafkaProducerOption, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		producer:   producer,
		topic:      opt.Topic,
		partitions: opt.Partitions,
		timeout:    timeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, runID string, results []*MarketResult) error {
	jobs := groupJobs(p.topic, p.partitions, runID, results)
	if len(jobs) == 0 {
		return nil
	}
	_, failed := mq.SendKafkaJobs(ctx, p.producer, jobs, p.timeout)
	if len(failed) > 0 {
		return fmt.Errorf("kafka: %d/%d messages failed, first: %w", len(failed), len(jobs), failed[0].Err)
	}
	return nil
}

func groupJobs(topic string, partitions int, runID string, results []*MarketResult) []*mq.KafkaJob {
	jobs := make([]*mq.KafkaJob, 0, len(results))
	for _, res := range results {
		if !res.OK() || len(res.JSON) == 0 {
			continue
		}
		jobs = append(jobs, &mq.KafkaJob{
			Topic:     topic,
			Partition: mq.PartitionFor(res.Record.Address[:], partitions),
			Key:       []byte(res.Record.Address.String()),
			Value:     res.JSON,
			Headers: map[string]string{
				"run_id": runID,
				"market": res.Record.Name,
			},
		})
	}
	return jobs
}
