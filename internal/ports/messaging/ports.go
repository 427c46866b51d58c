package messaging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// OutcomePublisher defines the output port for run outcome events.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event OutcomeEvent) error
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// SQSClient defines the interface for the AWS SQS client.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// NopPublisher drops events; used when no outcome queue is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOutcome(context.Context, OutcomeEvent) error { return nil }
