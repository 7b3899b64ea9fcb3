package producer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"hr-leave/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	sent    []string
	failed  []string
}

func (f *fakeOutboxRepo) WithTx(*sql.Tx) kafka.OutboxRepository          { return f }
func (f *fakeOutboxRepo) Create(context.Context, kafka.OutboxEvent) error { return nil }
func (f *fakeOutboxRepo) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) {
	return f.pending, nil
}
func (f *fakeOutboxRepo) CountBacklog(context.Context) (int64, error) {
	return int64(len(f.pending)), nil
}
func (f *fakeOutboxRepo) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id string, _ string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeWriter struct {
	messages []kafkago.Message
	failKey  string
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failKey {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

type fakeMetrics struct {
	published, failed int
	backlog           int64
}

func (m *fakeMetrics) OutboxPublished(string) { m.published++ }
func (m *fakeMetrics) OutboxFailed(string)    { m.failed++ }
func (m *fakeMetrics) OutboxBacklog(n int64)  { m.backlog = n }

func TestProcessPendingEvents(t *testing.T) {
	ok, err := kafka.NewEvent("rid-1", "leave", "leave-1", "leave_requested", "hr.leave.lifecycle.v1", map[string]string{"a": "b"})
	require.NoError(t, err)
	bad, err := kafka.NewEvent("rid-2", "leave", "leave-2", "leave_approved", "hr.leave.lifecycle.v1", map[string]string{"a": "c"})
	require.NoError(t, err)

	repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{ok, bad}}
	writer := &fakeWriter{failKey: "leave-2"}
	metrics := &fakeMetrics{}

	sent, err := processPendingEvents(context.Background(), repo, writer, metrics, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{ok.ID}, repo.sent)
	assert.Equal(t, []string{bad.ID}, repo.failed)
	assert.Equal(t, int64(2), metrics.backlog)
	assert.Equal(t, 1, metrics.published)
	assert.Equal(t, 1, metrics.failed)
	if assert.Len(t, writer.messages, 1) {
		assert.Equal(t, "hr.leave.lifecycle.v1", writer.messages[0].Topic)
		assert.Equal(t, "leave_requested", string(writer.messages[0].Headers[0].Value))
		assert.Equal(t, "rid-1", string(writer.messages[0].Headers[2].Value))
	}
}
