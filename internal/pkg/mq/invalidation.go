// internal/pkg/mq/invalidation.go
package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/logger"
)

// InvalidationEvent 是广播给所有实例的缓存失效事件。
// Origin 用来识别发起方；发起方自己的 L1 在广播前已同步清除，
// 重复清一次也无害，所以消费端不做去重。
type InvalidationEvent struct {
	Prefix   string    `json:"prefix"`
	Origin   string    `json:"origin"`
	IssuedAt time.Time `json:"issuedAt"`
}

// InvalidationBus 通过 Kafka 把 L1 失效扩散到所有服务实例。
// 每个实例使用独立的消费组订阅同一个 topic，等价于广播。
type InvalidationBus struct {
	writer     *kafka.Writer
	instanceID string
}

// NewInvalidationBus 创建失效广播总线。
func NewInvalidationBus(brokers []string, topic string) *InvalidationBus {
	return &InvalidationBus{
		writer:     NewWriter(brokers, topic),
		instanceID: uuid.New().String(),
	}
}

// InstanceID 返回本实例的标识，同时用作消费组后缀。
func (b *InvalidationBus) InstanceID() string {
	return b.instanceID
}

// Broadcast 实现 cache.InvalidationBroadcaster。
func (b *InvalidationBus) Broadcast(ctx context.Context, prefix string) error {
	event := InvalidationEvent{Prefix: prefix, Origin: b.instanceID, IssuedAt: time.Now()}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return ProduceMessage(ctx, b.writer, []byte(prefix), payload)
}

// Close 关闭底层 writer。
func (b *InvalidationBus) Close() error {
	return b.writer.Close()
}

// ConsumeInvalidations 阻塞消费失效事件并调用 purge 清本地 L1，
// 直到 ctx 被取消。由 bootstrap 在独立协程中启动。
func ConsumeInvalidations(ctx context.Context, brokers []string, topic, groupID string, purge func(prefix string)) {
	reader := NewGroupReader(brokers, topic, groupID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Ctx(ctx).Warn().Err(err).Msg("invalidation consumer read failed, retrying")
			continue
		}
		var event InvalidationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("dropping malformed invalidation event")
			continue
		}
		purge(event.Prefix)
	}
}
