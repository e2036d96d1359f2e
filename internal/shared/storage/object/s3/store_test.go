package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string]string
	put     *s3.PutObjectInput
	getErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]string{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestObjectKeyAppliesPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{prefix: "", key: "certificates/r1/c1.html", want: "certificates/r1/c1.html"},
		{prefix: "root", key: "certificates/r1/c1.html", want: "root/certificates/r1/c1.html"},
		{prefix: " /root/sub/ ", key: "certificates//c1.html", want: "root/sub/certificates/c1.html"},
	}
	for _, tt := range tests {
		got, err := NewWithClient(newFakeS3(), "bucket", tt.prefix, "").objectKey(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPutUsesKMSWhenConfigured(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, "bucket", "/pulse/", "kms-key")

	n, err := store.Put(context.Background(), "certificates/r1/c1.html", "text/html", strings.NewReader("<html/>"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, "pulse/certificates/r1/c1.html", aws.ToString(fake.put.Key))
	assert.Equal(t, "text/html", aws.ToString(fake.put.ContentType))
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, fake.put.ServerSideEncryption)
	assert.Equal(t, "kms-key", aws.ToString(fake.put.SSEKMSKeyId))

	rc, err := store.Open(context.Background(), "certificates/r1/c1.html")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(data))
}

func TestPutDefaultsToS3ManagedEncryption(t *testing.T) {
	fake := newFakeS3()
	_, err := NewWithClient(fake, "bucket", "", "").Put(context.Background(), "a.html", "text/html", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, s3types.ServerSideEncryptionAes256, fake.put.ServerSideEncryption)
	assert.Nil(t, fake.put.SSEKMSKeyId)
}

func TestRejectsEscapingKeys(t *testing.T) {
	store := NewWithClient(newFakeS3(), "bucket", "", "")
	_, err := store.Put(context.Background(), "../x", "text/plain", strings.NewReader(""))
	assert.ErrorIs(t, err, object.ErrInvalidKey)
	_, err = store.Open(context.Background(), "/etc/passwd")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
}

func TestOpenMapsMissingKey(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, "bucket", "", "")
	_, err := store.Open(context.Background(), "missing.html")
	assert.ErrorIs(t, err, object.ErrNotFound)

	fake.getErr = errors.New("access denied")
	_, err = store.Open(context.Background(), "missing.html")
	require.Error(t, err)
	assert.NotErrorIs(t, err, object.ErrNotFound)
	assert.Contains(t, err.Error(), "s3://bucket/missing.html")
}
