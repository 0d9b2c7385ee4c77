package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ArchiveStore archives run logs in S3-compatible storage.
type S3ArchiveStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3ArchiveConfig holds S3 configuration.
type S3ArchiveConfig struct {
	Bucket          string
	Prefix          string // e.g., "logs/runs/"
	Region          string
	Endpoint        string // for MinIO/local S3
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3ArchiveStore creates a new S3-backed archive store.
func NewS3ArchiveStore(cfg S3ArchiveConfig) (*S3ArchiveStore, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &S3ArchiveStore{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Store uploads a run's joined channel text, keyed by day and run ID.
func (s *S3ArchiveStore) Store(ctx context.Context, runID string, logs []byte) (string, error) {
	key := fmt.Sprintf("%s%s/%s.log", s.prefix, time.Now().UTC().Format("2006/01/02"), runID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(logs),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload logs to S3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Retrieve fetches archived logs from S3.
func (s *S3ArchiveStore) Retrieve(ctx context.Context, reference string) ([]byte, error) {
	key := s.extractKey(reference)

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get logs from S3: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return data, nil
}

func (s *S3ArchiveStore) extractKey(reference string) string {
	// Handle s3://bucket/key format.
	if rest, ok := strings.CutPrefix(reference, "s3://"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return rest[i+1:]
		}
	}
	return reference
}

// LocalArchiveStore archives run logs on the local filesystem, for
// development and single-node deployments.
type LocalArchiveStore struct {
	basePath string
}

func NewLocalArchiveStore(basePath string) (*LocalArchiveStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchiveStore{basePath: basePath}, nil
}

func (l *LocalArchiveStore) Store(ctx context.Context, runID string, logs []byte) (string, error) {
	path := filepath.Join(l.basePath, runID+".log")
	if err := os.WriteFile(path, logs, 0o644); err != nil {
		return "", fmt.Errorf("failed to write logs: %w", err)
	}
	return path, nil
}

func (l *LocalArchiveStore) Retrieve(ctx context.Context, reference string) ([]byte, error) {
	return os.ReadFile(reference)
}
