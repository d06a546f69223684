package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/vapestore/storefront-api/internal/config"
	"github.com/vapestore/storefront-api/internal/model"
)

// SES sends order confirmation emails through Amazon SES.
type SES struct {
	client *ses.Client
	sender string
}

func NewSES(ctx context.Context, cfg config.SESConfig) (*SES, error) {
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("sender email is not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SES{client: ses.NewFromConfig(awsCfg), sender: cfg.SenderEmail}, nil
}

func (s *SES) OrderConfirmation(ctx context.Context, msg model.OrderPaidMessage) error {
	if msg.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", msg.OrderNumber)
	}

	subject := fmt.Sprintf("Order %s confirmed - thank you for your purchase", msg.OrderNumber)
	total := msg.Total.StringFixed(2)

	bodyHTML := fmt.Sprintf(`
		<html>
		<body>
			<p>Hi %s,</p>
			<p>Your payment went through and order <strong>%s</strong> is confirmed.</p>
			<p>Total charged: EUR %s</p>
			<p>We will let you know as soon as it ships.</p>
		</body>
		</html>`, msg.CustomerName, msg.OrderNumber, total)

	bodyText := fmt.Sprintf(
		"Hi %s,\n\nYour payment went through and order %s is confirmed.\nTotal charged: EUR %s\n\nWe will let you know as soon as it ships.",
		msg.CustomerName, msg.OrderNumber, total)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.CustomerEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyHTML),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyText),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send confirmation for order %s: %w", msg.OrderNumber, err)
	}
	return nil
}
