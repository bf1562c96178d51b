package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the minimal SES v2 interface required by Client.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SenderResolver returns the verified From address. It is resolved per send so
// the address can live in Parameter Store.
type SenderResolver func(ctx context.Context) (string, error)

// Client sends plain-text email through SES.
type Client struct {
	api    sesAPI
	sender SenderResolver
}

// New creates a Client. sender must yield an SES-verified identity.
func New(api sesAPI, sender SenderResolver) (*Client, error) {
	if api == nil {
		return nil, errors.New("mailer: api must not be nil")
	}
	if sender == nil {
		return nil, errors.New("mailer: sender resolver must not be nil")
	}
	return &Client{api: api, sender: sender}, nil
}

// Send delivers a plain-text message to recipient and returns the SES message id.
func (c *Client) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", errors.New("mailer: recipient is required")
	}
	from, err := c.sender(ctx)
	if err != nil {
		return "", fmt.Errorf("mailer: resolve sender: %w", err)
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return "", errors.New("mailer: sender address is empty")
	}

	out, err := c.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mailer: send email: %w", err)
	}
	if out == nil {
		return "", nil
	}
	return aws.ToString(out.MessageId), nil
}
