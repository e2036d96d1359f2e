package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultRegion = "us-east-1"

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes certificate jobs to one SQS queue. On a FIFO queue
// (URL ending in ".fifo") jobs are grouped and deduplicated by certificate
// id, so a double submit enqueues one job.
type SQSClient struct {
	api  sqsSender
	url  string
	fifo bool
}

// NewSQSClient loads the default AWS credential chain for region, falling
// back to us-east-1.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, ErrQueueNotConfigured
	}
	if region = strings.TrimSpace(region); region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWithAPI(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSClientWithAPI wraps an existing SQS API client.
func NewSQSClientWithAPI(api sqsSender, queueURL string) *SQSClient {
	queueURL = strings.TrimSpace(queueURL)
	return &SQSClient{api: api, url: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}
}

// Send publishes job. The request id and schema version also travel as
// message attributes so they can be filtered on without decoding the body.
func (s *SQSClient) Send(ctx context.Context, job CertificateJob) error {
	if strings.TrimSpace(job.CertificateID) == "" {
		return errors.New("sqs send: certificate id is required")
	}
	body, err := EncodeJob(job)
	if err != nil {
		return fmt.Errorf("sqs send: encode job: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.url),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"JobVersion": {DataType: aws.String("Number"), StringValue: aws.String(strconv.Itoa(job.Version))},
		},
	}
	if job.RequestID != "" {
		in.MessageAttributes["RequestId"] = sqstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(job.RequestID),
		}
	}
	if s.fifo {
		in.MessageGroupId = aws.String(job.CertificateID)
		in.MessageDeduplicationId = aws.String(job.CertificateID)
	}

	if _, err := s.api.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs send certificate %s: %w", job.CertificateID, err)
	}
	return nil
}

var _ Client = (*SQSClient)(nil)
