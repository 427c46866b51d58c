package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, f.err
}

func TestProducer_PublishOutcome(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "http://localstack:4566/000000000000/kobot-outcomes")
	event := OutcomeEvent{
		RunID:      "run-1",
		Date:       "2026-10-15",
		Direction:  "in",
		Status:     "SUCCESS",
		ClockIn:    "09:01",
		OccurredAt: time.Date(2026, 10, 15, 9, 1, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishOutcome(context.Background(), event))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "http://localstack:4566/000000000000/kobot-outcomes", *in.QueueUrl)
	assert.Equal(t, "RUN_OUTCOME", *in.MessageAttributes["EventType"].StringValue)

	var got OutcomeEvent
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &got))
	assert.Equal(t, event, got)
	assert.NotContains(t, *in.MessageBody, "clockOut", "empty fields are omitted")
}

func TestProducer_PublishOutcomeError(t *testing.T) {
	p := NewSQSProducer(&fakeSQS{err: errors.New("queue does not exist")}, "q")

	err := p.PublishOutcome(context.Background(), OutcomeEvent{RunID: "run-1"})
	assert.ErrorContains(t, err, "queue does not exist")
}
