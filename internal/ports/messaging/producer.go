package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender   MessageSender
	queueURL string
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, queueURL)
}

func (p *Producer) PublishOutcome(ctx context.Context, event OutcomeEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.runId", event.RunID),
			attribute.String("app.outcome", event.Status),
		)
	}

	if err := p.sender.SendMessage(ctx, p.queueURL, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
