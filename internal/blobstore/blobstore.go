package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// URIScheme は履歴に記録するオブジェクト参照のスキームです。
const URIScheme = "s3://"

// ObjectAPI は利用する s3.Client のメソッドです。
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI は利用する s3.PresignClient のメソッドです。
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options は S3 互換ストレージへの接続設定です。
type Options struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	URLTTL          time.Duration
}

// Store は生成画像とサムネイルを保存し、期限付き URL を発行します。
type Store struct {
	objects ObjectAPI
	presign PresignAPI
	bucket  string
	ttl     time.Duration
}

// New は静的な資格情報で S3 互換 (R2 / MinIO 等) のクライアントを作ります。
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("blob store credentials are not configured")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClients(client, s3.NewPresignClient(client), opts.Bucket, opts.URLTTL), nil
}

// NewWithClients は既存のクライアントから Store を作ります。
func NewWithClients(objects ObjectAPI, presign PresignAPI, bucket string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{objects: objects, presign: presign, bucket: bucket, ttl: ttl}
}

// Put はオブジェクトを保存し、"s3://<bucket>/<key>" 形式の参照を返します。
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return URIScheme + s.bucket + "/" + key, nil
}

// DownloadURL はオブジェクト参照またはキーから期限付きのダウンロード URL を発行します。
func (s *Store) DownloadURL(ctx context.Context, ref string) (string, error) {
	bucket, key, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign GetObject: %w", err)
	}
	return req.URL, nil
}

func (s *Store) resolve(ref string) (bucket, key string, err error) {
	if !strings.HasPrefix(ref, URIScheme) {
		if ref == "" {
			return "", "", fmt.Errorf("empty object reference")
		}
		return s.bucket, ref, nil
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, URIScheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed object reference: %q", ref)
	}
	return bucket, key, nil
}

// IsObjectRef は参照がこのストアのオブジェクトを指すかどうかを返します。
func IsObjectRef(ref string) bool {
	return strings.HasPrefix(ref, URIScheme)
}
