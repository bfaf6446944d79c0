package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "1",
		EventType:     domain.EventOrderInserted,
		Payload:       []byte(`{"order_id":1}`),
	}

	saved, err := repo.Enqueue(msg)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, saved.ID, pending[0].ID)
}

func TestOutboxRepository_PullPendingKeepsOrderAndLimit(t *testing.T) {
	repo := NewOutboxRepository()

	var ids []string
	for i := 0; i < 5; i++ {
		saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateOrder})
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}
	require.NoError(t, repo.MarkSent(ids[0]))

	pending, err := repo.PullPending(2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, ids[1], pending[0].ID)
	require.Equal(t, ids[2], pending[1].ID)
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateOrder})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(saved.ID))
	require.NoError(t, repo.MarkFailed(saved.ID))
	require.ErrorIs(t, repo.MarkFailed("missing"), domain.ErrOutboxRecordNotFound)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.IsZero())

	first, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateOrder})
	require.NoError(t, err)
	_, err = repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateOrder})
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(first.ID))

	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.False(t, stats.OldestPendingAt.IsZero())
}

func TestOutboxRepository_DeleteProcessed(t *testing.T) {
	repo := NewOutboxRepository()

	var ids []string
	for i := 0; i < 4; i++ {
		msg, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateOrder, EventType: domain.EventOrderUpdated})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	require.NoError(t, repo.MarkSent(ids[0]))
	require.NoError(t, repo.MarkFailed(ids[1]))
	require.NoError(t, repo.MarkSent(ids[3]))

	deleted, err := repo.DeleteProcessed(time.Now().UTC().Add(time.Second), 2)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	deleted, err = repo.DeleteProcessed(time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Zero(t, deleted, "records newer than the cutoff are kept")

	deleted, err = repo.DeleteProcessed(time.Now().UTC().Add(time.Second), 10)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ids[2], pending[0].ID)
	require.ErrorIs(t, repo.MarkSent(ids[0]), domain.ErrOutboxRecordNotFound)
}
