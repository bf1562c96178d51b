package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"dining-concierge/internal/domain"
)

// SQS caps a single receive at ten messages.
const maxReceiveBatch = 10

// sqsAPI is the minimal SQS interface required by Client.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Client carries fulfillment jobs over a single SQS queue.
type Client struct {
	api      sqsAPI
	queueURL string
}

// New creates a Client bound to queueURL.
func New(api sqsAPI, queueURL string) (*Client, error) {
	if api == nil {
		return nil, errors.New("queue: api must not be nil")
	}
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, errors.New("queue: queue url must not be empty")
	}
	return &Client{api: api, queueURL: queueURL}, nil
}

// Enqueue publishes job and returns the SQS message id.
func (c *Client) Enqueue(ctx context.Context, job domain.FulfillmentJob) (string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: marshal job: %w", err)
	}
	out, err := c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("queue: send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// ReceiveBatch pulls up to maxCount pending messages without waiting.
func (c *Client) ReceiveBatch(ctx context.Context, maxCount int) ([]domain.ReceivedJob, error) {
	if maxCount <= 0 || maxCount > maxReceiveBatch {
		maxCount = maxReceiveBatch
	}
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: int32(maxCount),
		WaitTimeSeconds:     0,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: receive message: %w", err)
	}
	if out == nil {
		return nil, nil
	}

	jobs := make([]domain.ReceivedJob, 0, len(out.Messages))
	for _, m := range out.Messages {
		jobs = append(jobs, domain.ReceivedJob{
			MessageID:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return jobs, nil
}

// Acknowledge deletes the message identified by receiptHandle.
func (c *Client) Acknowledge(ctx context.Context, receiptHandle string) error {
	if strings.TrimSpace(receiptHandle) == "" {
		return errors.New("queue: receipt handle is required")
	}
	_, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("queue: delete message: %w", err)
	}
	return nil
}
