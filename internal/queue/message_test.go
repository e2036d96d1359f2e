package queue

import (
	"testing"
)

func TestDecodeJobAcceptsEncodedPayload(t *testing.T) {
	payload, err := EncodeJob(CertificateJob{
		CertificateID: "cert-123",
		RequestID:     "request-456",
		EnqueuedAt:    "2026-01-30T22:00:00Z",
		Version:       JobVersion,
	})
	if err != nil {
		t.Fatalf("encode job: %v", err)
	}
	want := `{"certificateId":"cert-123","requestId":"request-456","enqueuedAt":"2026-01-30T22:00:00Z","version":1}`
	if string(payload) != want {
		t.Fatalf("unexpected payload %s", payload)
	}

	got, err := DecodeJob([]byte(`{"certificateId":"cert-9","version":1,"extra":true}`))
	if err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if got.CertificateID != "cert-9" || got.Version != 1 {
		t.Fatalf("unexpected job %+v", got)
	}

	if _, err := DecodeJob([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
