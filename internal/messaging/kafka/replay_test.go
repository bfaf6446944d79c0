package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

type offsetRange struct{ oldest, newest int64 }

type stubOffsets struct {
	partitions []int32
	offsets    map[int32]offsetRange
	err        error
}

func (s *stubOffsets) Partitions(string) ([]int32, error) { return s.partitions, s.err }

func (s *stubOffsets) GetOffset(_ string, partition int32, at int64) (int64, error) {
	r := s.offsets[partition]
	if at == sarama.OffsetOldest {
		return r.oldest, nil
	}
	return r.newest, nil
}

type stubStream struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (s *stubStream) Messages() <-chan *sarama.ConsumerMessage { return s.messages }
func (s *stubStream) Errors() <-chan *sarama.ConsumerError     { return s.errors }
func (s *stubStream) Close() error                             { return nil }

func streamOf(messages ...*sarama.ConsumerMessage) *stubStream {
	ch := make(chan *sarama.ConsumerMessage, len(messages))
	for _, m := range messages {
		ch <- m
	}
	close(ch)
	return &stubStream{messages: ch, errors: make(chan *sarama.ConsumerError)}
}

type consumeCall struct {
	partition int32
	offset    int64
}

type stubPartitions struct {
	streams map[int32]PartitionStream
	calls   []consumeCall
}

func (s *stubPartitions) ConsumePartition(_ string, partition int32, offset int64) (PartitionStream, error) {
	s.calls = append(s.calls, consumeCall{partition: partition, offset: offset})
	stream, ok := s.streams[partition]
	if !ok {
		return nil, errors.New("no stream")
	}
	return stream, nil
}

func deadLetterValue(t *testing.T, aggregateID string) []byte {
	t.Helper()
	dead, err := json.Marshal(DeadLetter{
		OutboxID:      "outbox-" + aggregateID,
		AggregateType: "order",
		AggregateID:   aggregateID,
		EventType:     "order.updated",
		Payload:       json.RawMessage(`{"id":` + aggregateID + `}`),
		PublishError:  "broker unavailable",
	})
	require.NoError(t, err)
	value, err := json.Marshal(OrderChange{
		ID:          "outbox-" + aggregateID,
		AggregateID: aggregateID,
		EventType:   "order.updated",
		Payload:     dead,
	})
	require.NoError(t, err)
	return value
}

func TestExtractReplay(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	replay, ok, err := ExtractReplay(deadLetterValue(t, "7"), TopicOrderChanges, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TopicOrderChanges, replay.Topic)
	require.Equal(t, "7", replay.Key)

	change, err := ParseOrderChange(replay.Value)
	require.NoError(t, err)
	require.Equal(t, "outbox-7", change.ID)
	require.Equal(t, "order", change.AggregateType)
	require.JSONEq(t, `{"id":7}`, string(change.Payload))
	require.True(t, change.PublishedAt.Equal(now))
	require.Equal(t, map[string]string{
		HeaderEventType:     "order.updated",
		HeaderAggregateType: "order",
		HeaderOutboxID:      "outbox-7",
	}, replay.Headers)
}

func TestExtractReplay_Unsupported(t *testing.T) {
	_, ok, err := ExtractReplay([]byte(`plain text`), TopicOrderChanges, time.Now())
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = ExtractReplay([]byte(`{"id":"x","payload":"not-an-object"}`), TopicOrderChanges, time.Now())
	require.Error(t, err)
	require.False(t, ok)

	_, ok, err = ExtractReplay([]byte(`{"id":"x","payload":{"outbox_id":"x"}}`), TopicOrderChanges, time.Now())
	require.Error(t, err)
	require.False(t, ok)
}

func TestReplayer_DryRun(t *testing.T) {
	offsets := &stubOffsets{
		partitions: []int32{1, 0},
		offsets:    map[int32]offsetRange{0: {0, 2}, 1: {5, 6}},
	}
	partitions := &stubPartitions{streams: map[int32]PartitionStream{
		0: streamOf(
			&sarama.ConsumerMessage{Partition: 0, Offset: 0, Value: deadLetterValue(t, "1")},
			&sarama.ConsumerMessage{Partition: 0, Offset: 1, Value: []byte(`garbage`)},
		),
		1: streamOf(&sarama.ConsumerMessage{Partition: 1, Offset: 5, Value: deadLetterValue(t, "2")}),
	}}

	replayer := NewReplayer(ReplayConfig{
		SourceTopic: TopicDeadLetterQueue,
		TargetTopic: TopicOrderChanges,
		Limit:       10,
		IdleTimeout: 50 * time.Millisecond,
	}, offsets, partitions, nil, nil)

	stats, err := replayer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ReplayStats{Processed: 3, Replayed: 2, Skipped: 1}, stats)
	require.Equal(t, []consumeCall{{partition: 0, offset: 0}, {partition: 1, offset: 5}}, partitions.calls)
}

func TestReplayer_ExecuteRespectsLimitAndFromNewest(t *testing.T) {
	offsets := &stubOffsets{
		partitions: []int32{0},
		offsets:    map[int32]offsetRange{0: {0, 10}},
	}
	partitions := &stubPartitions{streams: map[int32]PartitionStream{
		0: streamOf(
			&sarama.ConsumerMessage{Partition: 0, Offset: 8, Value: deadLetterValue(t, "8")},
			&sarama.ConsumerMessage{Partition: 0, Offset: 9, Value: deadLetterValue(t, "9")},
		),
	}}

	replayedHeaders := func(aggregateID string) mocks.MessageChecker {
		return func(msg *sarama.ProducerMessage) error {
			if headerValue(msg, HeaderEventType) != "order.updated" ||
				headerValue(msg, HeaderAggregateType) != "order" ||
				headerValue(msg, HeaderOutboxID) != "outbox-"+aggregateID {
				return errors.New("replayed message lost its headers")
			}
			return nil
		}
	}

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(replayedHeaders("8"))
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(replayedHeaders("9"))

	replayer := NewReplayer(ReplayConfig{
		SourceTopic: TopicDeadLetterQueue,
		TargetTopic: TopicOrderChanges,
		Limit:       2,
		Execute:     true,
		FromNewest:  true,
		IdleTimeout: 50 * time.Millisecond,
	}, offsets, partitions, NewProducerFromSync(mockProducer, nil), nil)

	stats, err := replayer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Replayed)
	require.Equal(t, int64(8), partitions.calls[0].offset)
	require.NoError(t, mockProducer.Close())
}

func TestReplayer_Errors(t *testing.T) {
	cfg := ReplayConfig{SourceTopic: TopicDeadLetterQueue, TargetTopic: TopicOrderChanges, Limit: 1, IdleTimeout: 20 * time.Millisecond}

	_, err := NewReplayer(cfg, nil, nil, nil, nil).Run(context.Background())
	require.Error(t, err)

	execCfg := cfg
	execCfg.Execute = true
	_, err = NewReplayer(execCfg, &stubOffsets{}, &stubPartitions{}, nil, nil).Run(context.Background())
	require.Error(t, err)

	_, err = NewReplayer(cfg, &stubOffsets{err: errors.New("metadata")}, &stubPartitions{}, nil, nil).Run(context.Background())
	require.Error(t, err)

	_, err = NewReplayer(cfg, &stubOffsets{
		partitions: []int32{0},
		offsets:    map[int32]offsetRange{0: {0, 1}},
	}, &stubPartitions{}, nil, nil).Run(context.Background())
	require.Error(t, err)
}

func TestReplayer_IdleTimeoutAndCancel(t *testing.T) {
	offsets := &stubOffsets{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {0, 5}}}
	open := &stubStream{messages: make(chan *sarama.ConsumerMessage), errors: make(chan *sarama.ConsumerError)}
	cfg := ReplayConfig{SourceTopic: TopicDeadLetterQueue, TargetTopic: TopicOrderChanges, Limit: 5, IdleTimeout: 20 * time.Millisecond}

	stats, err := NewReplayer(cfg, offsets, &stubPartitions{streams: map[int32]PartitionStream{0: open}}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Processed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg.IdleTimeout = time.Second
	_, err = NewReplayer(cfg, offsets, &stubPartitions{streams: map[int32]PartitionStream{0: open}}, nil, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
