package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSplitBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{name: "empty", brokers: "", want: nil},
		{name: "single", brokers: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "with spaces", brokers: "broker1:9092, broker2:9092 ,", want: []string{"broker1:9092", "broker2:9092"}},
		{name: "only commas", brokers: " , ,", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, splitBrokers(tt.brokers))
		})
	}
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer(" , ", "backoffice", log.WithField("test", "kafka"))

	require.NoError(t, err)
	require.Nil(t, producer)
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	// Несуществующие брокеры: producer не создаётся.
	producer, err := initKafkaProducer("invalid-broker:9999", "backoffice", log.WithField("test", "kafka"))

	require.Error(t, err)
	require.Nil(t, producer)
}

func TestCloseKafka_NilProducer(t *testing.T) {
	require.NotPanics(t, func() {
		closeKafka(nil, log.WithField("test", "kafka"))
	})
}
