package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/models"
)

// SNSTransport publishes to AWS SNS platform endpoints (FCM/APNS behind one
// platform application).
type SNSTransport struct {
	client      *awssns.Client
	platformArn string
	logger      *zap.Logger
}

func NewSNSTransport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*SNSTransport, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	return &SNSTransport{
		client:      awssns.NewFromConfig(awscfg),
		platformArn: cfg.SNSPlatformARN,
		logger:      logger,
	}, nil
}

func (t *SNSTransport) Name() string { return config.TransportSNS }

// RegisterToken exchanges a device token for a platform endpoint ARN, which
// becomes the subscription's identity.
func (t *SNSTransport) RegisterToken(ctx context.Context, token string) (string, error) {
	out, err := t.client.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(t.platformArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.EndpointArn), nil
}

func (t *SNSTransport) Deliver(ctx context.Context, sub *models.Subscription, msg Message) Outcome {
	if sub.EndpointARN == "" {
		t.logger.Warn("subscription has no SNS endpoint ARN", zap.String("identity", sub.TruncatedIdentity()))
		return TransientFailure
	}

	wire := map[string]any{
		"default": msg.Body,
		"GCM": map[string]any{
			"notification": map[string]string{
				"title": msg.Title,
				"body":  msg.Body,
			},
			"data": map[string]string{
				"url": msg.URL,
				"tag": msg.Tag,
			},
		},
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		t.logger.Error("marshal SNS payload", zap.Error(err))
		return TransientFailure
	}

	_, err = t.client.Publish(ctx, &awssns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(string(raw)),
		TargetArn:        aws.String(sub.EndpointARN),
	})
	if err == nil {
		return Delivered
	}

	var disabled *snstypes.EndpointDisabledException
	var notFound *snstypes.NotFoundException
	if errors.As(err, &disabled) || errors.As(err, &notFound) {
		return PermanentFailure
	}
	t.logger.Warn("SNS publish failed", zap.String("arn", sub.EndpointARN), zap.Error(err))
	return TransientFailure
}
