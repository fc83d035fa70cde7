package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	EventsTopic         = "bookbarter.events"
	EventsConsumerGroup = "bookbarter-events"
)

type Config struct {
	Addrs  []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
	Enable bool     `yaml:"enable" envconfig:"KAFKA_ENABLE"`
}

func newConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	return cfg
}

func NewAsyncProducer(cfg Config) (sarama.AsyncProducer, error) {
	return sarama.NewAsyncProducer(cfg.Addrs, newConfig())
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(cfg.Addrs, group, newConfig())
}

func CreateTopics(cfg Config, topics ...string) error {
	admin, err := sarama.NewClusterAdmin(cfg.Addrs, newConfig())
	if err != nil {
		return errors.Wrap(err, "sarama.NewClusterAdmin")
	}
	defer admin.Close()

	existing, err := admin.ListTopics()
	if err != nil {
		return errors.Wrap(err, "ListTopics")
	}
	for _, topic := range topics {
		if _, ok := existing[topic]; ok {
			continue
		}
		if err = admin.CreateTopic(topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false); err != nil {
			return errors.Wrapf(err, "CreateTopic %s", topic)
		}
	}
	return nil
}

// Consume blocks until ctx is done, re-joining the group after every rebalance.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, log *zap.Logger, topics ...string) {
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			log.Error("kafka consume", zap.Error(err))
			time.Sleep(time.Second)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
