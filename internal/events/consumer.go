package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"stress-backend/internal/shared/metrics"
	"stress-backend/internal/shared/telemetry"
)

const (
	defaultConcurrency     = 4
	defaultVisibility      = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	receiveCountAttribute = "ApproximateReceiveCount"
)

// ReceiveAPI is the subset of the SQS client used by Consumer.
type ReceiveAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ErrPermanent marks a handler failure that redelivery cannot fix. Such
// messages are deleted and counted as dropped.
var ErrPermanent = errors.New("permanent event failure")

// Handler processes one decoded event. A returned error leaves the message on
// the queue so SQS redelivers it after the visibility timeout, unless it wraps
// ErrPermanent.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Consumer long-polls a queue and dispatches events to Handler.
type Consumer struct {
	Client          ReceiveAPI
	QueueURL        string
	Handler         Handler
	Concurrency     int
	Visibility      time.Duration
	ShutdownTimeout time.Duration
}

// NewSQSConsumer builds a Consumer backed by AWS SQS.
func NewSQSConsumer(ctx context.Context, region, queueURL string, handler Handler) (*Consumer, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("EVENTS_QUEUE_URL is required")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Consumer{
		Client:   sqs.NewFromConfig(cfg),
		QueueURL: queueURL,
		Handler:  handler,
	}, nil
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight messages.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Client == nil || c.Handler == nil {
		return errors.New("consumer not configured")
	}
	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	visibility := c.Visibility
	if visibility <= 0 {
		visibility = defaultVisibility
	}
	shutdownTimeout := c.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       c.QueueURL,
		"concurrency": concurrency,
		"visibility":  visibility.String(),
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := c.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.QueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibility / time.Second),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName(receiveCountAttribute)},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"err": err})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncEventsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				c.handle(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		return nil
	case <-time.After(shutdownTimeout):
		return errors.New("shutdown timeout reached with messages in flight")
	}
}

func (c *Consumer) handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		telemetry.Error("worker.event.empty_body", baseFields(msg, Message{}))
		if c.delete(ctx, msg, Message{}) {
			metrics.IncEventsDropped()
		}
		return
	}

	decoded, err := DecodeMessage([]byte(body))
	if err != nil {
		fields := baseFields(msg, Message{})
		fields["body_len"] = len(body)
		fields["err"] = err
		telemetry.Error("worker.event.decode_failed", fields)
		if c.delete(ctx, msg, Message{}) {
			metrics.IncEventsDropped()
		}
		return
	}

	if err := c.Handler.Handle(ctx, decoded); err != nil {
		fields := baseFields(msg, decoded)
		fields["err"] = err
		if errors.Is(err, ErrPermanent) {
			telemetry.Error("worker.event.rejected", fields)
			if c.delete(ctx, msg, decoded) {
				metrics.IncEventsDropped()
			}
			return
		}
		telemetry.Error("worker.event.failed", fields)
		metrics.IncEventsFailed()
		return
	}

	if c.delete(ctx, msg, decoded) {
		telemetry.Info("worker.event.completed", baseFields(msg, decoded))
		metrics.IncEventsProcessed()
	}
}

func (c *Consumer) delete(ctx context.Context, msg sqstypes.Message, decoded Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, decoded)
		fields["err"] = "missing receipt handle"
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	if _, err := c.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, decoded)
		fields["err"] = err
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, decoded Message) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if decoded.Type != "" {
		fields["event_type"] = decoded.Type
	}
	if decoded.PredictionID != "" {
		fields["prediction_id"] = decoded.PredictionID
	}
	if strings.TrimSpace(decoded.RequestID) != "" {
		fields["request_id"] = decoded.RequestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[receiveCountAttribute]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
