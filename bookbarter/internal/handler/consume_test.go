package handler_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/handler"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumer_ConsumeClaim(t *testing.T) {
	t.Parallel()
	good, err := json.Marshal(kafka.Event{
		Timestamp: time.Now().UTC(),
		UserID:    uuid.New(),
		EventType: kafka.EventNotificationCreated,
	})
	require.NoError(t, err)
	failing, err := json.Marshal(kafka.Event{UserID: uuid.Nil, EventType: kafka.EventBookDeleted})
	require.NoError(t, err)

	tests := []struct {
		name          string
		values        [][]byte
		expectedTrack int
		expectedMarks []int64
		wantErr       bool
	}{
		{
			name:          "all tracked",
			values:        [][]byte{good, good},
			expectedTrack: 2,
			expectedMarks: []int64{1, 2},
		},
		{
			name:          "malformed is skipped",
			values:        [][]byte{good, []byte("{broken"), good},
			expectedTrack: 2,
			expectedMarks: []int64{1, 2, 3},
		},
		{
			name:          "failure stops before later messages",
			values:        [][]byte{good, failing, good},
			expectedTrack: 1,
			expectedMarks: []int64{1},
			wantErr:       true,
		},
		{
			name:          "failure first marks nothing",
			values:        [][]byte{failing, good},
			expectedTrack: 0,
			expectedMarks: nil,
			wantErr:       true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var tracked int
			consumer := handler.NewConsumer(func(_ context.Context, event kafka.Event) error {
				if event.UserID == uuid.Nil {
					return errors.New("db down")
				}
				tracked++
				return nil
			}, zap.NewNop(), handler.WithRetryDelay(time.Millisecond))

			session := &fakeSession{ctx: context.Background()}
			claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, len(tt.values))}
			for i, v := range tt.values {
				claim.messages <- &sarama.ConsumerMessage{Offset: int64(i + 1), Value: v}
			}
			close(claim.messages)

			require.NoError(t, consumer.Setup(session))
			<-consumer.Ready()
			err := consumer.ConsumeClaim(session, claim)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.expectedTrack, tracked)
			require.Equal(t, tt.expectedMarks, session.marked)
		})
	}
}

func TestConsumer_FailureWaitsForSessionEnd(t *testing.T) {
	t.Parallel()
	failing, err := json.Marshal(kafka.Event{EventType: kafka.EventBookDeleted})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer := handler.NewConsumer(func(context.Context, kafka.Event) error {
		cancel()
		return errors.New("db down")
	}, zap.NewNop(), handler.WithRetryDelay(time.Hour))

	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 7, Value: failing}

	require.Error(t, consumer.ConsumeClaim(session, claim))
	require.Empty(t, session.marked)
}
