package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestProducer_Send(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndSucceed()

	producer := NewProducerFromSync(mockProducer, nil)
	require.NoError(t, producer.Send(TopicOrderChanges, "1", []byte(`{}`), map[string]string{HeaderEventType: "order.inserted"}))
	require.NoError(t, producer.Close())
}

func TestProducer_Send_Error(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewProducerFromSync(mockProducer, nil)
	err := producer.Send(TopicOrderChanges, "1", []byte(`{}`), nil)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(ProducerConfig{}, nil)
	require.Error(t, err)
}

func TestParseOrderChange(t *testing.T) {
	t.Parallel()

	change, err := ParseOrderChange([]byte(`{"id":"x","aggregate_id":"5","event_type":"order.deleted","payload":{"id":5}}`))
	require.NoError(t, err)
	require.Equal(t, "5", change.AggregateID)
	require.JSONEq(t, `{"id":5}`, string(change.Payload))

	_, err = ParseOrderChange([]byte(`not-json`))
	require.Error(t, err)
}
