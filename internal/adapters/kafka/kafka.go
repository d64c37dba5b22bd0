package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"safespace-chat/internal/config"
	"safespace-chat/internal/crisis"

	"github.com/IBM/sarama"
)

// NewProducerConfig returns the producer settings used for alert topics.
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	// keyed by room, so one room's alerts stay on one partition
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.MaxMessageBytes = 1000000
	cfg.Version = sarama.V2_0_0_0
	cfg.ClientID = clientID
	return cfg
}

// InitKafkaProducer connects to the brokers and returns the client with a
// sync producer built on it. Close the producer before the client.
func InitKafkaProducer(cfg config.KafkaConfig) (sarama.Client, sarama.SyncProducer, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "safespace-chat"
	}

	client, err := sarama.NewClient(cfg.Brokers, NewProducerConfig(clientID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return client, producer, nil
}

var errNoBrokers = errors.New("kafka client has no reachable brokers")

// ClientPinger reports a closed client or one without known brokers.
type ClientPinger struct {
	Client sarama.Client
}

func (p ClientPinger) Ping(_ context.Context) error {
	if p.Client.Closed() {
		return sarama.ErrClosedClient
	}
	if len(p.Client.Brokers()) == 0 {
		return errNoBrokers
	}
	return nil
}

// CrisisAlertProducer publishes crisis alerts to a Kafka topic.
type CrisisAlertProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewCrisisAlertProducer(producer sarama.SyncProducer, topic string, log *slog.Logger) *CrisisAlertProducer {
	if log == nil {
		log = slog.Default()
	}
	return &CrisisAlertProducer{producer: producer, topic: topic, log: log}
}

func (p *CrisisAlertProducer) Publish(ctx context.Context, alert crisis.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal crisis alert: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(alert.Room),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte("crisis-alert")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send crisis alert to %s: %w", p.topic, err)
	}

	p.log.Debug("Crisis alert sent to kafka", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

func (p *CrisisAlertProducer) Close() error {
	return p.producer.Close()
}
