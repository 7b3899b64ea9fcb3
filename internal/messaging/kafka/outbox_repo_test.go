package kafka

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e, err := NewEvent("rid", "leave", "leave-1", "leave_requested", "topic", map[string]int{"n": 1})

		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, OutboxStatusPending, e.Status)
		assert.JSONEq(t, `{"n":1}`, string(e.Payload))
	})

	t.Run("negative missing aggregate id", func(t *testing.T) {
		_, err := NewEvent("rid", "leave", "", "leave_requested", "topic", map[string]int{"n": 1})

		assert.Error(t, err)
	})

	t.Run("negative missing topic", func(t *testing.T) {
		_, err := NewEvent("rid", "leave", "leave-1", "leave_requested", "", map[string]int{"n": 1})

		assert.Error(t, err)
	})
}

func TestOutboxRepository_CreateInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e, err := NewEvent("rid", "leave", "leave-1", "leave_requested", "topic", map[string]int{"n": 1})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs(e.ID, e.RequestID, e.AggregateType, e.AggregateID, e.EventType, e.Topic, e.Payload, e.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	repo := NewOutboxRepository(db).WithTx(tx)
	require.NoError(t, repo.Create(context.Background(), e))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_CountBacklog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM outbox_events")).
		WithArgs(OutboxStatusPending, OutboxStatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewOutboxRepository(db).CountBacklog(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestOutboxRepository_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	due := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND NOT EXISTS")).
		WithArgs(OutboxStatusPending, OutboxStatusFailed, OutboxStatusSent, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "request_id", "aggregate_type", "aggregate_id", "event_type",
			"topic", "payload", "status", "retry_count", "next_retry_at",
		}).AddRow("ev-1", "rid-9", "leave_request", "leave-1", "leave_approved",
			"hr.leave.lifecycle.v1", []byte(`{}`), OutboxStatusFailed, 2, due))

	events, err := NewOutboxRepository(db).ListPending(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "rid-9", events[0].RequestID)
	assert.Equal(t, "leave-1", events[0].AggregateID)
	assert.Equal(t, 2, events[0].RetryCount)
	assert.Equal(t, due, events[0].NextRetryAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
