package mailer

import (
	"context"
	"encoding/json"
	"eventpass/src/config"
	"eventpass/src/lib"
	awslib "eventpass/src/lib/aws"
	"eventpass/src/types"
	"fmt"
	"log"
)

type Mailer interface {
	Send(ctx context.Context, in *lib.SendMailInput) error
}

// New picks the delivery backend named by cfg.Mailer.
func New(cfg config.App) Mailer {
	switch cfg.Mailer {
	case "smtp":
		return SMTPMailer{}
	case "sqs":
		return &QueueMailer{Client: lib.AWSGetSQSClient(), Queue: cfg.EmailQueue}
	case "ses":
		return &SESMailer{Client: lib.AWSGetSESClient()}
	default:
		return LogMailer{}
	}
}

type SMTPMailer struct{}

func (SMTPMailer) Send(_ context.Context, in *lib.SendMailInput) error {
	return lib.SendMail(in)
}

// QueueMailer hands messages to a worker through SQS.
type QueueMailer struct {
	Client lib.SQSAPI
	Queue  string
}

func (q *QueueMailer) Send(ctx context.Context, in *lib.SendMailInput) error {
	emailBody := &types.JSONB{
		"from":      in.From,
		"from-name": in.FromName,
		"to":        in.To,
		"reply-to":  in.ReplyTo,
		"body":      in.Body,
		"html":      in.Html,
		"subject":   in.Subject,
	}
	body, err := json.Marshal(emailBody)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(ctx, q.Client, q.Queue, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

type SESMailer struct {
	Client awslib.SESAPI
}

func (s *SESMailer) Send(ctx context.Context, in *lib.SendMailInput) error {
	_, err := awslib.SESSendMessage(ctx, s.Client, in)
	return err
}

type LogMailer struct{}

func (LogMailer) Send(_ context.Context, in *lib.SendMailInput) error {
	log.Printf("[mailer] %q to %v\n", in.Subject, in.To)
	return nil
}

// DeliverQueued is the SQS worker handler: it decodes a QueueMailer message
// and sends it over SMTP.
func DeliverQueued(_ context.Context, body string) error {
	var in lib.SendMailInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		log.Printf("[mailer] dropping undecodable message: %s\n", err.Error())
		return nil
	}
	return lib.SendMail(&in)
}
