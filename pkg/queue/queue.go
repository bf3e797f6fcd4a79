// Package queue schedules trip requests onto the durable pending-routes
// queue and hands them to workers exactly once per delivery.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"wayfarer/pkg/routing"
)

// ErrScheduler marks queue failures so callers can map them to a transport
// error without inspecting SDK error types.
var ErrScheduler = errors.New("scheduler error")

// expectedDelay is the optimization latency promised to async callers.
const expectedDelay = 3 * time.Second

// visibilityTimeout hides an in-flight message from other workers. A worker
// that dies mid-optimization forfeits the message back to the queue.
const visibilityTimeout = 300

// API is the queue surface the scheduler needs from the SQS client.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// Scheduler owns one queue: producers enqueue validated trip requests,
// workers poll and acknowledge them.
type Scheduler struct {
	client   API
	queueURL string
}

// NewScheduler binds a scheduler to the queue at queueURL.
func NewScheduler(client API, queueURL string) *Scheduler {
	return &Scheduler{client: client, queueURL: queueURL}
}

// ScheduleTrip assigns the request an id, enqueues it and returns the
// promise the client polls against.
func (s *Scheduler) ScheduleTrip(ctx context.Context, req *routing.TripRequest) (*routing.Promise, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduler, err)
	}

	now := time.Now().UTC()
	req.Meta.ID = uuid.NewString()
	req.Meta.CreatedAt = now
	req.Meta.ReceiptHandle = ""

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrScheduler, err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sending message: %v", ErrScheduler, err)
	}

	slog.Info("trip scheduled",
		"id", req.Meta.ID, "region", req.Meta.Region,
		"waypoints", len(req.Trip.Waypoints))
	return &routing.Promise{
		ID:          req.Meta.ID,
		ScheduledAt: now,
		ExpectedAt:  now.Add(expectedDelay),
	}, nil
}

// PollTripRequest fetches at most one pending request. A drained queue
// returns (nil, nil). A message that fails to parse is poison: it is deleted
// on the spot and reported as a drained poll, it never reaches a worker.
func (s *Scheduler) PollTripRequest(ctx context.Context) (*routing.TripRequest, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: 1,
		VisibilityTimeout:   visibilityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: receiving message: %v", ErrScheduler, err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	req, err := routing.ParseTripRequest([]byte(aws.ToString(msg.Body)))
	if err != nil {
		slog.Warn("discarding poison message", "error", err)
		if _, derr := s.delete(ctx, aws.ToString(msg.ReceiptHandle)); derr != nil {
			return nil, derr
		}
		return nil, nil
	}
	req.Meta.ReceiptHandle = aws.ToString(msg.ReceiptHandle)
	return req, nil
}

// CompleteTrip acknowledges a successfully processed request.
func (s *Scheduler) CompleteTrip(ctx context.Context, meta routing.Metadata) error {
	_, err := s.delete(ctx, meta.ReceiptHandle)
	if err == nil {
		slog.Info("trip completed", "id", meta.ID, "region", meta.Region)
	}
	return err
}

// DiscardTrip drops a request that failed permanently. The failure is
// recorded elsewhere; the message must not be redelivered.
func (s *Scheduler) DiscardTrip(ctx context.Context, meta routing.Metadata) error {
	_, err := s.delete(ctx, meta.ReceiptHandle)
	if err == nil {
		slog.Warn("trip discarded", "id", meta.ID, "region", meta.Region)
	}
	return err
}

// PendingCount reports the approximate queue depth.
func (s *Scheduler) PendingCount(ctx context.Context) (int, error) {
	out, err := s.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(s.queueURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reading queue attributes: %v", ErrScheduler, err)
	}
	raw := out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing queue depth %q: %v", ErrScheduler, raw, err)
	}
	return count, nil
}

func (s *Scheduler) delete(ctx context.Context, receiptHandle string) (*sqs.DeleteMessageOutput, error) {
	if receiptHandle == "" {
		return nil, fmt.Errorf("%w: message has no receipt handle", ErrScheduler)
	}
	out, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: deleting message: %v", ErrScheduler, err)
	}
	return out, nil
}
