package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

// Settings selects the region and, for local runs, a LocalStack endpoint.
type Settings struct {
	Region     string
	Endpoint   string
	IsLocalDev bool
}

// NewAWSConfig creates a new AWS configuration, pointing to LocalStack if an endpoint is provided.
func NewAWSConfig(ctx context.Context, s Settings) (aws.Config, error) {
	if s.IsLocalDev {
		log.Info().Str("endpoint", s.Endpoint).Msg("Local development mode detected. Routing AWS calls to LocalStack.")
		opts := []func(*awsConfig.LoadOptions) error{
			awsConfig.WithRegion(s.Region),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		}
		if s.Endpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(s.Endpoint))
		}
		return awsConfig.LoadDefaultConfig(ctx, opts...)
	}

	// Standard credential chain: environment, shared config, instance role.
	log.Debug().Str("region", s.Region).Msg("Using standard AWS credential chain")
	return awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(s.Region))
}
