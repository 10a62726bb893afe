package persist

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the backend uses. *s3.Client
// satisfies it; tests substitute a fake.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Backend stores snapshot documents as S3 objects.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	backend := persist.NewS3Backend(s3.NewFromConfig(cfg), "my-bucket", "snapshots/")
type S3Backend struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Backend creates a backend writing to bucket under prefix.
func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	return &S3Backend{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (b *S3Backend) key(name string) string {
	return b.prefix + name + ".json"
}

// Save uploads data under name, replacing any previous document.
func (b *S3Backend) Save(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Load downloads the document named name, or ErrNotFound.
func (b *S3Backend) Load(ctx context.Context, name string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
