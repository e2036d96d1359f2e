package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"pulsescore-backend/internal/bootstrap"
	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/metrics"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/workerproc"
)

const (
	defaultRegion     = "us-east-1"
	defaultVisibility = 300 * time.Second
	defaultDrain      = 30 * time.Second
	receiveBackoff    = 2 * time.Second
	longPollSeconds   = 20
	receiveBatch      = 10
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func main() {
	defer telemetry.Sync()
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.CertificateQueue)
	if queueURL == "" {
		fatal("worker.config_invalid", "CERTIFICATE_QUEUE_URL is required")
	}
	region := cfg.AWSRegion
	if region == "" {
		region = defaultRegion
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		fatal("worker.aws_config_failed", err.Error())
	}
	app, err := bootstrap.BuildWorker(cfg)
	if err != nil {
		fatal("worker.bootstrap_failed", err.Error())
	}
	defer app.Close()

	p := &poller{
		api:        sqs.NewFromConfig(awsCfg),
		queueURL:   queueURL,
		proc:       app.Certificates,
		workers:    max(1, cfg.WorkerConcurrency),
		visibility: envSeconds("WORKER_VISIBILITY_TIMEOUT_SECONDS", defaultVisibility),
		drain:      envSeconds("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultDrain),
	}
	telemetry.Info("worker.started", map[string]any{
		"queue_url":          queueURL,
		"concurrency":        p.workers,
		"visibility_seconds": int(p.visibility.Seconds()),
	})
	p.run(ctx)
}

func fatal(event, msg string) {
	telemetry.Error(event, map[string]any{"error": msg})
	telemetry.Sync()
	os.Exit(1)
}

// poller long-polls the certificate queue and hands each message to a
// bounded set of handlers. Deliveries keep running after shutdown is
// signalled, for up to drain.
type poller struct {
	api        sqsAPI
	queueURL   string
	proc       workerproc.Processor
	workers    int
	visibility time.Duration
	drain      time.Duration
	backoff    time.Duration
}

func (p *poller) run(ctx context.Context) {
	work := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(p.workers)

	for ctx.Err() == nil {
		msgs, err := p.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			p.pause(ctx)
			continue
		}
		for _, msg := range msgs {
			g.Go(func() error {
				p.handle(work, msg)
				return nil
			})
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"drain": p.drain.String()})
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.drain):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"drain": p.drain.String()})
	}
}

func (p *poller) receive(ctx context.Context) ([]sqstypes.Message, error) {
	out, err := p.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(p.queueURL),
		MaxNumberOfMessages:         receiveBatch,
		WaitTimeSeconds:             longPollSeconds,
		VisibilityTimeout:           int32(p.visibility.Seconds()),
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// pause waits out a receive error so a broken queue does not spin the loop.
func (p *poller) pause(ctx context.Context) {
	d := p.backoff
	if d <= 0 {
		d = receiveBackoff
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// handle delivers one certificate job and reports the outcome recorded in
// worker metrics. Delivered and unrecoverable messages are deleted; a
// retryable failure is left to reappear after the visibility timeout.
func (p *poller) handle(ctx context.Context, msg sqstypes.Message) string {
	body := aws.ToString(msg.Body)
	job, meta, err := workerproc.ParseMessage(body)
	fields := map[string]any{
		"certificate_id": job.CertificateID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if job.RequestID != "" {
		fields["request_id"] = job.RequestID
	}

	outcome := "completed"
	if err != nil {
		fields["body_len"] = meta.BodyLen
		fields["body_sha256"] = meta.BodySHA
		fields["error"] = err.Error()
		telemetry.Error("worker.certificate.invalid_message", fields)
		outcome = "dropped"
	} else if err = workerproc.HandleCertificateJob(ctx, p.proc, body); err != nil {
		fields["error"] = err.Error()
		outcome = "dropped"
		if workerproc.Retryable(err) {
			outcome = "failed"
		}
		telemetry.Error("worker.certificate."+outcome, fields)
	}

	if outcome != "failed" && !p.delete(ctx, msg, fields) {
		return ""
	}
	if outcome == "completed" {
		telemetry.Info("worker.certificate.completed", fields)
	}
	metrics.IncWorkerJob(outcome)
	return outcome
}

func (p *poller) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	var err error
	if receipt == "" {
		err = errMissingReceipt
	} else {
		_, err = p.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(p.queueURL),
			ReceiptHandle: aws.String(receipt),
		})
	}
	if err != nil {
		fields["delete_error"] = err.Error()
		telemetry.Error("worker.certificate.delete_failed", fields)
		return false
	}
	return true
}

var errMissingReceipt = errors.New("missing receipt handle")

func receiveCount(msg sqstypes.Message) int {
	n, _ := strconv.Atoi(msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
	return n
}

func envSeconds(key string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
