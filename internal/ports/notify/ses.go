package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SESClient is the slice of the SES API the notifier uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESNotifier struct {
	client SESClient
	env    Envelope
}

func NewSESNotifier(client SESClient, env Envelope) *SESNotifier {
	return &SESNotifier{client: client, env: env}
}

func (s *SESNotifier) Send(ctx context.Context, htmlBody string) error {
	tracer := otel.Tracer("ses-notifier")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("app.recipient", s.env.Recipient()))

	input := &ses.SendEmailInput{
		Source: aws.String(s.env.From),
		Destination: &types.Destination{
			ToAddresses: []string{s.env.Recipient()},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(s.env.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		span.RecordError(err)
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
