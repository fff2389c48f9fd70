// internal/pkg/mq/kafka.go
package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// NewWriter 创建指向单个 topic 的 Kafka writer。
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewGroupReader 创建一个属于指定消费组的 Kafka reader。
func NewGroupReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// ProduceMessage 发送一条消息。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	return writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}
