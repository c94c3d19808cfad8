package blobstore

import (
	"context"
	"io"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// --- Mocks ---

type mockObjects struct {
	putFunc func(in *s3.PutObjectInput) error
	bodies  map[string][]byte
}

func (m *mockObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putFunc != nil {
		if err := m.putFunc(params); err != nil {
			return nil, err
		}
	}
	data, _ := io.ReadAll(params.Body)
	if m.bodies == nil {
		m.bodies = map[string][]byte{}
	}
	m.bodies[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

type mockPresign struct {
	lastBucket string
	lastKey    string
	lastTTL    int64
}

func (m *mockPresign) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	m.lastBucket = *params.Bucket
	m.lastKey = *params.Key
	m.lastTTL = int64(opts.Expires.Seconds())
	return &v4.PresignedHTTPRequest{URL: "https://blob.example/" + m.lastBucket + "/" + m.lastKey + "?X-Amz-Signature=sig"}, nil
}
