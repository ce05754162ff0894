package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/abdullah-azi/football-highlights/internal/monitoring"
	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// KafkaConfig holds the Kafka connection settings for event publishing.
type KafkaConfig struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	Topic            string `env:"KAFKA_TOPIC" envDefault:"camera-switch-events"`
	SecurityProtocol string `env:"KAFKA_SECURITY_PROTOCOL" envDefault:"PLAINTEXT"`
	SASLMechanism    string `env:"KAFKA_SASL_MECHANISM" envDefault:"PLAIN"`
	SASLUsername     string `env:"KAFKA_SASL_USERNAME"`
	SASLPassword     string `env:"KAFKA_SASL_PASSWORD"`
}

// Enabled reports whether publishing is configured at all.
func (c KafkaConfig) Enabled() bool { return c.BootstrapServers != "" }

// KafkaSink publishes switch events to a Kafka topic, keyed by session ID so
// one run's events land on one partition in order. Usage counters are not
// published; they live in the store and the API.
type KafkaSink struct {
	producer     *kafka.Producer
	topic        string
	deliveryChan chan kafka.Event
	done         chan struct{}
}

// NewKafkaSink connects the producer and starts the delivery-report drain.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"security.protocol": cfg.SecurityProtocol,
		"acks":              "all",
	}
	if cfg.SASLUsername != "" {
		_ = cm.SetKey("sasl.mechanism", cfg.SASLMechanism)
		_ = cm.SetKey("sasl.username", cfg.SASLUsername)
		_ = cm.SetKey("sasl.password", cfg.SASLPassword)
	}
	p, err := kafka.NewProducer(cm)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	s := &KafkaSink{
		producer:     p,
		topic:        cfg.Topic,
		deliveryChan: make(chan kafka.Event, 1000),
		done:         make(chan struct{}),
	}
	go s.drainDeliveryReports()
	return s, nil
}

// drainDeliveryReports logs failed deliveries until Close.
func (s *KafkaSink) drainDeliveryReports() {
	defer close(s.done)
	for e := range s.deliveryChan {
		m, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if m.TopicPartition.Error != nil {
			monitoring.Logf("telemetry: kafka delivery failed: %v", m.TopicPartition.Error)
		}
	}
}

// RecordSwitch publishes the event. Publish failures are logged and
// swallowed; telemetry never aborts the frame loop.
func (s *KafkaSink) RecordSwitch(ev switcher.SwitchEvent) {
	msg, err := buildSwitchMessage(&s.topic, ev)
	if err != nil {
		monitoring.Logf("telemetry: encode switch event: %v", err)
		return
	}
	if err := s.producer.Produce(msg, s.deliveryChan); err != nil {
		monitoring.Logf("telemetry: kafka produce: %v", err)
	}
}

// RecordUsage is a no-op for the Kafka sink.
func (s *KafkaSink) RecordUsage(string, switcher.CameraID, int64) {}

// Close flushes pending messages and stops the drain goroutine.
func (s *KafkaSink) Close() {
	remaining := s.producer.Flush(int((10 * time.Second).Milliseconds()))
	if remaining > 0 {
		monitoring.Logf("telemetry: %d kafka messages unflushed at close", remaining)
	}
	s.producer.Close()
	close(s.deliveryChan)
	<-s.done
}

// buildSwitchMessage encodes one event as a Kafka message.
func buildSwitchMessage(topic *string, ev switcher.SwitchEvent) (*kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: topic, Partition: kafka.PartitionAny},
		Key:            []byte(ev.SessionID),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "zone", Value: []byte(ev.Zone)},
			{Key: "from_cam", Value: []byte(fmt.Sprintf("%d", ev.FromCam))},
			{Key: "to_cam", Value: []byte(fmt.Sprintf("%d", ev.ToCam))},
		},
	}, nil
}
