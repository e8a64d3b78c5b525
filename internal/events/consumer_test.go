package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]sqstypes.Message
	deleted  []string
	deleteEr error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteEr != nil {
		return nil, f.deleteEr
	}
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func sqsMessage(t *testing.T, id string, msg Message) sqstypes.Message {
	t.Helper()
	body, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("r-" + id),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func completedEvent() Message {
	return Message{Type: TypePredictionCompleted, PredictionID: "p1", UserID: "u1", StressCategory: "High", Version: 1}
}

func TestConsumerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	var got []Message
	c := &Consumer{Client: client, QueueURL: "queue", Handler: HandlerFunc(func(ctx context.Context, msg Message) error {
		got = append(got, msg)
		return nil
	})}

	c.handle(context.Background(), sqsMessage(t, "m1", completedEvent()))

	if len(client.deleted) != 1 || client.deleted[0] != "r-m1" {
		t.Fatalf("expected delete of r-m1, got %v", client.deleted)
	}
	if len(got) != 1 || got[0].PredictionID != "p1" {
		t.Fatalf("expected handler to receive the event, got %+v", got)
	}
}

func TestConsumerKeepsMessageOnHandlerFailure(t *testing.T) {
	client := &fakeSQS{}
	c := &Consumer{Client: client, QueueURL: "queue", Handler: HandlerFunc(func(context.Context, Message) error {
		return errors.New("boom")
	})}

	c.handle(context.Background(), sqsMessage(t, "m2", completedEvent()))

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestConsumerDeletesPermanentFailures(t *testing.T) {
	client := &fakeSQS{}
	c := &Consumer{Client: client, QueueURL: "queue", Handler: HandlerFunc(func(context.Context, Message) error {
		return fmt.Errorf("%w: unknown category", ErrPermanent)
	})}

	c.handle(context.Background(), sqsMessage(t, "m5", completedEvent()))

	if len(client.deleted) != 1 || client.deleted[0] != "r-m5" {
		t.Fatalf("expected delete of r-m5, got %v", client.deleted)
	}
}

func TestConsumerDropsUnreadableMessages(t *testing.T) {
	client := &fakeSQS{}
	called := false
	c := &Consumer{Client: client, QueueURL: "queue", Handler: HandlerFunc(func(context.Context, Message) error {
		called = true
		return nil
	})}

	for i, body := range []string{"{bad-json", "   ", `{"predictionId":"p1"}`} {
		c.handle(context.Background(), sqstypes.Message{
			MessageId:     aws.String("bad"),
			ReceiptHandle: aws.String("r" + string(rune('a'+i))),
			Body:          aws.String(body),
		})
	}

	if len(client.deleted) != 3 {
		t.Fatalf("expected 3 deletes, got %d", len(client.deleted))
	}
	if called {
		t.Fatal("handler should not see unreadable messages")
	}
}

func TestConsumerMissingReceiptHandle(t *testing.T) {
	client := &fakeSQS{}
	c := &Consumer{Client: client, QueueURL: "queue", Handler: HandlerFunc(func(context.Context, Message) error { return nil })}
	msg := sqsMessage(t, "m4", completedEvent())
	msg.ReceiptHandle = nil

	c.handle(context.Background(), msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete without receipt handle, got %v", client.deleted)
	}
}

func TestConsumerRunProcessesUntilCancelled(t *testing.T) {
	client := &fakeSQS{batches: [][]sqstypes.Message{{
		sqsMessage(t, "a", completedEvent()),
		sqsMessage(t, "b", completedEvent()),
	}, {
		sqsMessage(t, "c", completedEvent()),
	}}}

	var mu sync.Mutex
	seen := 0
	done := make(chan struct{})
	c := &Consumer{
		Client:          client,
		QueueURL:        "queue",
		Concurrency:     2,
		ShutdownTimeout: time.Second,
		Handler: HandlerFunc(func(context.Context, Message) error {
			mu.Lock()
			defer mu.Unlock()
			seen++
			if seen == 3 {
				close(done)
			}
			return nil
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for messages")
	}
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(client.deletedHandles()); got != 3 {
		t.Fatalf("expected 3 deletes, got %d", got)
	}
}

func TestConsumerRunRequiresHandler(t *testing.T) {
	c := &Consumer{Client: &fakeSQS{}}
	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error without handler")
	}
}
