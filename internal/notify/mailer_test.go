package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/skpick99/Underwater-Hockey-Punchcards/jobs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type queueFixture struct {
	mailer    *Mailer
	inspector *asynq.Inspector
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	client, err := jobs.NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(opts)
	t.Cleanup(func() { _ = inspector.Close() })

	return &queueFixture{mailer: NewMailer(client, testLogger()), inspector: inspector}
}

func (q *queueFixture) pending(t *testing.T) []*asynq.TaskInfo {
	t.Helper()
	tasks, err := q.inspector.ListPendingTasks(jobs.QueueDefault)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	require.NoError(t, err)
	return tasks
}

func TestMailerQueuesMessage(t *testing.T) {
	q := newQueueFixture(t)
	msg := Message{Subject: "hello", Body: "body"}
	require.NoError(t, q.mailer.Send(context.Background(), "pat@example.com", msg))

	tasks := q.pending(t)
	require.Len(t, tasks, 1)
	require.Equal(t, jobs.TaskTypeSendEmail, tasks[0].Type)

	var payload jobs.SendEmailPayload
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
	require.Equal(t, "pat@example.com", payload.To)
	require.Equal(t, "hello", payload.Subject)
	require.NotEmpty(t, payload.ID)
	require.Equal(t, payload.ID, tasks[0].ID)
}

func TestMailerDropsEmptyRecipient(t *testing.T) {
	q := newQueueFixture(t)
	require.NoError(t, q.mailer.Send(context.Background(), "", Message{Subject: "hello"}))
	require.Empty(t, q.pending(t))
}

func TestSendWithCopiesMarksCopies(t *testing.T) {
	q := newQueueFixture(t)
	msg := Message{Subject: "punch used", Body: "body"}
	cc := []string{"", "pat@example.com", "treasurer@example.com"}
	require.NoError(t, q.mailer.SendWithCopies(context.Background(), "pat@example.com", cc, msg))

	tasks := q.pending(t)
	require.Len(t, tasks, 2)

	subjects := make(map[string]string, 2)
	for _, task := range tasks {
		var payload jobs.SendEmailPayload
		require.NoError(t, json.Unmarshal(task.Payload, &payload))
		subjects[payload.To] = payload.Subject
	}
	require.Equal(t, "punch used", subjects["pat@example.com"])
	require.Equal(t, "[copy] punch used", subjects["treasurer@example.com"])
}
