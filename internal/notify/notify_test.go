package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func int64Ptr(v int64) *int64 { return &v }

func sampleEvent() Event {
	start := time.Date(2024, 11, 11, 10, 0, 0, 0, time.UTC)
	return Event{
		Type:      EventScheduled,
		MeetingID: "7b1f",
		Title:     "Sync",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		ActorID:   2,
		Recipients: []Recipient{
			{UserID: 1, TelegramID: int64Ptr(1001), Timezone: "Europe/Moscow"},
			{UserID: 2, TelegramID: int64Ptr(1002), Timezone: "UTC"},
			{UserID: 3, Timezone: "UTC"},
		},
	}
}

func TestTelegramSkipsActorAndUnlinkedUsers(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender)

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(1001), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "13:00-13:30", "time is shown in the recipient's zone")
}

func TestNATSPublishesMsgpack(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub)

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	assert.Equal(t, "scheduler.meetings.scheduled", pub.subject)

	var decoded Event
	require.NoError(t, msgpack.Unmarshal(pub.data, &decoded))
	assert.Equal(t, "7b1f", decoded.MeetingID)
	assert.Len(t, decoded.Recipients, 3)
}

func TestMultiCollectsErrors(t *testing.T) {
	failing := &fakePublisher{err: errors.New("nats down")}
	sender := &fakeSender{}
	m := NewMulti(zap.NewNop(), NewNATSNotifier(failing), NewTelegramNotifier(sender))

	err := m.Notify(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Len(t, sender.sent, 1, "other channels still receive the event")
}
