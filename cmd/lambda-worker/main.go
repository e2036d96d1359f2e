package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"pulsescore-backend/internal/bootstrap"
	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/metrics"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	proc     workerproc.Processor
)

func initApp() {
	app, err := bootstrap.BuildWorker(config.Load())
	if err != nil {
		initErr = err
		return
	}
	proc = app.Certificates
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return events.SQSEventResponse{}, initErr
	}
	return processRecords(ctx, proc, event.Records), nil
}

// processRecords reports retryable failures back to SQS. Malformed messages
// and unknown certificates are acknowledged so they do not loop.
func processRecords(ctx context.Context, p workerproc.Processor, records []events.SQSMessage) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range records {
		err := workerproc.HandleCertificateJob(ctx, p, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerJob("completed")
		case workerproc.Retryable(err):
			telemetry.Error("lambda_worker.certificate.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncWorkerJob("failed")
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		default:
			telemetry.Error("lambda_worker.certificate.dropped", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncWorkerJob("dropped")
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
