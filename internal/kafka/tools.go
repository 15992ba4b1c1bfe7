package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// CheckClusterAvailability dials every broker the cluster advertises. It is
// driver independent: a Sarama client is only used for the probe.
func CheckClusterAvailability(brokers []string, timeout time.Duration) error {
	config := sarama.NewConfig()
	config.Net.DialTimeout = timeout
	config.Net.ReadTimeout = timeout
	config.Net.WriteTimeout = timeout
	config.Metadata.Retry.Max = 0

	log := logger.WithField("component", "kafka_probe")
	log.Tracef("Checking Kafka cluster availability with brokers: %v", brokers)

	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return fmt.Errorf("failed to create kafka client: %w", err)
	}
	defer client.Close()

	available := client.Brokers()
	if len(available) == 0 {
		return fmt.Errorf("no brokers available in the cluster")
	}
	log.Tracef("Kafka brokers available: %d", len(available))

	for _, broker := range available {
		if err := broker.Open(config); err != nil && err != sarama.ErrAlreadyConnected {
			return fmt.Errorf("failed to connect to broker %s: %w", broker.Addr(), err)
		}
		connected, err := broker.Connected()
		if err != nil {
			return fmt.Errorf("failed to check connection to broker %s: %w", broker.Addr(), err)
		}
		if !connected {
			return fmt.Errorf("broker %s is not connected", broker.Addr())
		}
		log.Tracef("Broker %s is connected", broker.Addr())
		broker.Close()
	}
	return nil
}
