package mq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
)

const testTopic = "test-serum-pyth-accounts"

func TestPartitionFor(t *testing.T) {
	key := make([]byte, 32)
	key[27] = 5
	assert.Equal(t, int32(0), PartitionFor(key, 1))
	assert.Equal(t, int32(0), PartitionFor(key[:10], 4), "short keys go to partition 0")
	assert.Equal(t, int32(1), PartitionFor(key, 4))
	assert.Equal(t, PartitionFor(key, 3), PartitionFor(append([]byte(nil), key...), 3))
}

func TestKafkaJob_Message(t *testing.T) {
	job := &KafkaJob{
		Topic:     testTopic,
		Partition: 2,
		Key:       []byte("k"),
		Value:     []byte("v"),
		Headers:   map[string]string{"run_id": "abc"},
	}
	msg := job.message()
	assert.Equal(t, testTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, int32(2), msg.TopicPartition.Partition)
	assert.Equal(t, []byte("v"), msg.Value)
	assert.Equal(t, []kafka.Header{{Key: "run_id", Value: []byte("abc")}}, msg.Headers)
}

// 需要本地 Kafka：KAFKA_BROKERS=127.0.0.1:9092
func createTestProducer(t *testing.T) *kafka.Producer {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}
	producer, err := NewKafkaProducer(KafkaProducerOption{
		Brokers:    brokers,
		LingerMs:   5,
		Topic:      testTopic,
		Partitions: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create producer: %v", err)
	}
	return producer
}

func TestSendKafkaJobs_RealKafka(t *testing.T) {
	producer := createTestProducer(t)
	defer producer.Close()

	jobs := []*KafkaJob{
		{Topic: testTopic, Key: []byte("sol_usd"), Value: []byte(`{"name":"SOL/USD"}`)},
		{Topic: testTopic, Key: []byte("btc_usd"), Value: []byte(`{"name":"BTC/USD"}`)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, failed := SendKafkaJobs(ctx, producer, jobs, 2*time.Second)
	assert.Equal(t, 2, len(ok))
	assert.Equal(t, 0, len(failed))
	producer.Flush(1000)
}

func TestSendKafkaJobs_RealKafka_Empty(t *testing.T) {
	producer := createTestProducer(t)
	defer producer.Close()

	ok, failed := SendKafkaJobs(context.Background(), producer, nil, time.Second)
	assert.Equal(t, 0, len(ok))
	assert.Equal(t, 0, len(failed))
}
