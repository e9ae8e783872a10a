package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// S3Config holds the settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string // key prefix, e.g. "docs/"
	AccessKey string
	SecretKey string
	// Root is the local directory that maps to Prefix. Paths under Root keep
	// their relative layout as object keys.
	Root string
}

// putObjectAPI is the part of *s3.Client that S3Store uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads artifacts to an S3-compatible bucket with path-style
// addressing.
type S3Store struct {
	client putObjectAPI
	bucket string
	prefix string
	root   string
}

// NewS3Store creates a store for cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrMissingS3Cfg
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(strings.TrimRight(cfg.Endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client putObjectAPI, cfg S3Config) *S3Store {
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		root:   cfg.Root,
	}
}

// Key maps a local path to its object key.
func (s *S3Store) Key(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	rel := path
	if s.root != "" {
		r, err := filepath.Rel(s.root, path)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
		}
		rel = r
	}

	key := strings.TrimLeft(filepath.ToSlash(rel), "/")
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key, nil
}

// WriteBytes uploads data under the key for path. The content type is
// sniffed from the bytes.
func (s *S3Store) WriteBytes(ctx context.Context, path string, data []byte) error {
	key, err := s.Key(path)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(path, data)),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 upload %s/%s: %v", ErrWriteFailed, s.bucket, key, err)
	}
	return nil
}

// WriteText uploads text under the key for path.
func (s *S3Store) WriteText(ctx context.Context, path, text string) error {
	return s.WriteBytes(ctx, path, []byte(text))
}

// EnsureDir is a no-op: object stores have no directories.
func (s *S3Store) EnsureDir(_ context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	return nil
}

// contentType prefers the extension for Markdown, which sniffs as plain text.
func contentType(path string, data []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return "text/markdown; charset=utf-8"
	}
	return mimetype.Detect(data).String()
}

var _ Store = (*S3Store)(nil)
