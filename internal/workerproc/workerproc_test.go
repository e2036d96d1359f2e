package workerproc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pulsescore-backend/internal/certificates"
	"pulsescore-backend/internal/shared/telemetry"
)

type fakeProcessor struct {
	delivered  []string
	requestIDs []string
	err        error
}

func (f *fakeProcessor) Deliver(ctx context.Context, id string) error {
	f.delivered = append(f.delivered, id)
	f.requestIDs = append(f.requestIDs, telemetry.RequestID(ctx))
	return f.err
}

func TestHandleCertificateJob(t *testing.T) {
	proc := &fakeProcessor{}
	err := HandleCertificateJob(context.Background(), proc, `{"certificateId":"c1","requestId":"r1","version":1}`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"c1"}, proc.delivered)
	assert.Equal(t, []string{"r1"}, proc.requestIDs)
}

func TestHandleCertificateJobErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		procErr   error
		retryable bool
	}{
		{name: "empty", body: "  ", retryable: false},
		{name: "bad json", body: "{", retryable: false},
		{name: "missing id", body: `{"requestId":"r1"}`, retryable: false},
		{name: "unknown certificate", body: `{"certificateId":"c1"}`, procErr: certificates.ErrNotFound, retryable: false},
		{name: "transient", body: `{"certificateId":"c1"}`, procErr: fmt.Errorf("send certificate: %w", errors.New("timeout")), retryable: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := HandleCertificateJob(context.Background(), &fakeProcessor{err: tt.procErr}, tt.body)
			assert.Error(t, err)
			assert.Equal(t, tt.retryable, Retryable(err))
		})
	}
}

func TestParseMessageMeta(t *testing.T) {
	_, meta, err := ParseMessage("{")
	var decodeErr ErrDecode
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 1, meta.BodyLen)
	assert.Len(t, meta.BodySHA, 64)
}
