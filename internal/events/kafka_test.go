package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/usersvc/internal/logger"
)

type writerFunc func(ctx context.Context, msgs ...kafkago.Message) error

func (f writerFunc) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	return f(ctx, msgs...)
}

func (f writerFunc) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()

	event := Event{
		Type:       TypeUserRegistered,
		UserID:     uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Email:      "user@example.com",
		OccurredAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("new requires brokers", func(t *testing.T) {
		_, err := NewKafkaPublisher(KafkaConfig{}, logger.NewNoOpLogger())

		require.Error(t, err)
	})

	t.Run("new sets defaults", func(t *testing.T) {
		p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, logger.NewNoOpLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })

		w, ok := p.writer.(*kafkago.Writer)
		require.True(t, ok)
		require.Equal(t, DefaultTopic, w.Topic)
		require.Equal(t, defaultWriteTimeout, w.WriteTimeout)
		require.Equal(t, 1, w.BatchSize, "every publish should flush its message without waiting for a batch")
		require.Equal(t, 10*time.Millisecond, w.BatchTimeout, "kafka-go default of 1s would block every request")
		require.False(t, w.Async, "publish reports delivery errors to the caller")
	})

	t.Run("publish writes json keyed by user", func(t *testing.T) {
		var got []kafkago.Message
		p := &KafkaPublisher{writer: writerFunc(func(_ context.Context, msgs ...kafkago.Message) error {
			got = append(got, msgs...)
			return nil
		})}

		err := p.Publish(t.Context(), event)

		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", string(got[0].Key))
		require.JSONEq(t, `{
			"type": "user.registered",
			"user_id": "0f8fad5b-d9cb-469f-a165-70867728950e",
			"email": "user@example.com",
			"occurred_at": "2025-05-01T12:00:00Z"
		}`, string(got[0].Value))
		require.Contains(t, got[0].Headers, kafkago.Header{Key: "event-type", Value: []byte("user.registered")})
	})

	t.Run("publish wraps writer error", func(t *testing.T) {
		errBroker := errors.New("broker down")
		p := &KafkaPublisher{writer: writerFunc(func(context.Context, ...kafkago.Message) error {
			return errBroker
		})}

		err := p.Publish(t.Context(), event)

		require.ErrorIs(t, err, errBroker)
	})

	t.Run("noop publisher", func(t *testing.T) {
		var p Publisher = NoopPublisher{}

		require.NoError(t, p.Publish(t.Context(), event))
		require.NoError(t, p.Close())
	})
}
