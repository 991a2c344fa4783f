package aws

import (
	"context"
	"eventpass/src/lib"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type Handler func(ctx context.Context, body string) error

// SQSConsumer drains a queue and deletes each message its handler accepted.
type SQSConsumer struct {
	Name    string
	client  lib.SQSAPI
	handler Handler
	// MinBackoff and MaxBackoff bound the wait after a failed call to SQS.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewSQSConsumer(client lib.SQSAPI, queue string, handler Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:       queue,
		client:     client,
		handler:    handler,
		MinBackoff: time.Second,
		MaxBackoff: time.Minute,
	}
}

// Listen polls in the background until ctx is cancelled.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go s.Run(ctx)
}

// Run polls until ctx is cancelled. Failed calls to SQS are logged and
// retried with exponential backoff.
func (s *SQSConsumer) Run(ctx context.Context) {
	backoff := s.MinBackoff
	var qurl *string
	for ctx.Err() == nil {
		if qurl == nil {
			out, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
				QueueName: aws.String(s.Name),
			})
			if err != nil {
				log.Printf("Failed to retrieve queue URL for %s: %s\n", s.Name, err.Error())
				backoff = s.wait(ctx, backoff)
				continue
			}
			qurl = out.QueueUrl
			log.Printf("%s: Listening for messages...", s.Name)
		}
		if _, err := s.Poll(ctx, qurl, 20); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[SQS] Error receiving messages from %s, retrying in %s: %s\n", s.Name, backoff, err.Error())
			backoff = s.wait(ctx, backoff)
			continue
		}
		backoff = s.MinBackoff
	}
}

// wait sleeps for d or until ctx is done and returns the next backoff.
func (s *SQSConsumer) wait(ctx context.Context, d time.Duration) time.Duration {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return min(d*2, s.MaxBackoff)
}

// Poll receives one batch and returns how many messages were handled.
func (s *SQSConsumer) Poll(ctx context.Context, qurl *string, wait int32) (int, error) {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            qurl,
		WaitTimeSeconds:     wait,
		MaxNumberOfMessages: 10,
	})
	if err != nil {
		return 0, err
	}
	handled := 0
	for i := range output.Messages {
		m := output.Messages[i]
		body := strings.Clone(aws.ToString(m.Body))
		if err := s.handler(ctx, body); err != nil {
			log.Printf("[%s] message %s left on queue: %s\n", s.Name, aws.ToString(m.MessageId), err.Error())
			continue
		}
		lib.SQSDeleteMessage(ctx, s.client, qurl, &m)
		handled++
	}
	return handled, nil
}
