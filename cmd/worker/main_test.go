package main

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/certificates"
	"pulsescore-backend/internal/queue"
)

// fakeSQS serves the queued batches in order, then fails once with
// receiveErr, then cancels the run.
type fakeSQS struct {
	mu         sync.Mutex
	batches    [][]sqstypes.Message
	receives   int
	receiveErr error
	cancel     context.CancelFunc
	deleted    []string
	deleteErr  error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receives++
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	if err := f.receiveErr; err != nil {
		f.receiveErr = nil
		return nil, err
	}
	if f.cancel != nil {
		f.cancel()
	}
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	mu        sync.Mutex
	err       error
	delivered []string
}

func (f *fakeProcessor) Deliver(_ context.Context, certificateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, certificateID)
	return f.err
}

func jobMessage(t *testing.T, id, certificateID string) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeJob(queue.CertificateJob{CertificateID: certificateID, RequestID: "req-" + id, Version: queue.JobVersion})
	require.NoError(t, err)
	return sqstypes.Message{
		MessageId:     aws.String("m" + id),
		ReceiptHandle: aws.String("r" + id),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func newPoller(api sqsAPI, proc *fakeProcessor) *poller {
	return &poller{api: api, queueURL: "queue", proc: proc, workers: 2, visibility: time.Minute, drain: time.Second, backoff: time.Millisecond}
}

func TestHandleOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		deliverErr  error
		wantOutcome string
		wantDeleted []string
	}{
		{name: "delivered", wantOutcome: "completed", wantDeleted: []string{"r1"}},
		{name: "transient failure", deliverErr: errors.New("smtp timeout"), wantOutcome: "failed"},
		{name: "unknown certificate", deliverErr: fmt.Errorf("load: %w", certificates.ErrNotFound), wantOutcome: "dropped", wantDeleted: []string{"r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSQS{}
			proc := &fakeProcessor{err: tt.deliverErr}
			got := newPoller(api, proc).handle(context.Background(), jobMessage(t, "1", "cert-1"))
			assert.Equal(t, tt.wantOutcome, got)
			assert.Equal(t, tt.wantDeleted, api.deleted)
			assert.Equal(t, []string{"cert-1"}, proc.delivered)
		})
	}
}

func TestHandleDropsInvalidMessages(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"bad json":   "{bad-json",
		"missing id": `{"requestId":"req-x","version":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeSQS{}
			proc := &fakeProcessor{}
			got := newPoller(api, proc).handle(context.Background(), sqstypes.Message{
				MessageId:     aws.String("m"),
				ReceiptHandle: aws.String("r"),
				Body:          aws.String(body),
			})
			assert.Equal(t, "dropped", got)
			assert.Equal(t, []string{"r"}, api.deleted)
			assert.Empty(t, proc.delivered)
		})
	}
}

func TestHandleReportsFailedDelete(t *testing.T) {
	api := &fakeSQS{}
	p := newPoller(api, &fakeProcessor{})

	msg := jobMessage(t, "1", "cert-1")
	msg.ReceiptHandle = nil
	assert.Empty(t, p.handle(context.Background(), msg))

	api.deleteErr = errors.New("denied")
	assert.Empty(t, p.handle(context.Background(), jobMessage(t, "2", "cert-2")))
}

func TestRunDeliversBatchesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := &fakeSQS{
		batches: [][]sqstypes.Message{
			{jobMessage(t, "1", "cert-1"), jobMessage(t, "2", "cert-2")},
			{jobMessage(t, "3", "cert-3")},
		},
		receiveErr: errors.New("throttled"),
		cancel:     cancel,
	}
	proc := &fakeProcessor{}

	newPoller(api, proc).run(ctx)

	assert.ElementsMatch(t, []string{"cert-1", "cert-2", "cert-3"}, proc.delivered)
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, api.deleted)
	assert.Equal(t, 4, api.receives)
}

func TestReceiveCount(t *testing.T) {
	assert.Equal(t, 0, receiveCount(sqstypes.Message{}))
	assert.Equal(t, 4, receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "4"}}))
}

func TestEnvSeconds(t *testing.T) {
	t.Setenv("PULSE_TEST_SECONDS", "45")
	assert.Equal(t, 45*time.Second, envSeconds("PULSE_TEST_SECONDS", time.Minute))
	t.Setenv("PULSE_TEST_SECONDS", "0")
	assert.Equal(t, time.Minute, envSeconds("PULSE_TEST_SECONDS", time.Minute))
}
