package queue

import "encoding/json"

// CertificateJob asks a worker to render and deliver one certificate.
type CertificateJob struct {
	CertificateID string `json:"certificateId"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// JobVersion is the current CertificateJob schema version.
const JobVersion = 1

// EncodeJob returns the JSON representation of a job.
func EncodeJob(job CertificateJob) ([]byte, error) {
	return json.Marshal(job)
}

// DecodeJob parses a JSON payload into a CertificateJob.
func DecodeJob(payload []byte) (CertificateJob, error) {
	var job CertificateJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return CertificateJob{}, err
	}
	return job, nil
}
