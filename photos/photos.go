// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// URLExpiry is how long a presigned URL stays valid.
const URLExpiry = 15 * time.Minute

var (
	ErrNotConfigured   = errors.New("photo storage is not configured")
	ErrUnsupportedType = errors.New("unsupported photo type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Store struct {
	cfg Config
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Enabled reports whether a bucket is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.cfg.Bucket != ""
}

// Upload is a presigned PUT for a new photo.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewKey returns a fresh object key for a nominee photo.
func NewKey(electionID, nomineeID, contentType string) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnsupportedType, contentType)
	}
	return fmt.Sprintf("nominees/%s/%s/%s%s", electionID, nomineeID, uuid.NewString(), ext), nil
}

// KeyBelongsTo reports whether key was issued for the nominee.
func KeyBelongsTo(key, electionID, nomineeID string) bool {
	return strings.HasPrefix(key, fmt.Sprintf("nominees/%s/%s/", electionID, nomineeID))
}

func (s *Store) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.cfg.Region)}
	if s.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(client), nil
}

// PresignUpload returns a presigned PUT for a new photo of the nominee.
func (s *Store) PresignUpload(ctx context.Context, electionID, nomineeID, contentType string) (Upload, error) {
	if !s.Enabled() {
		return Upload{}, ErrNotConfigured
	}
	key, err := NewKey(electionID, nomineeID, contentType)
	if err != nil {
		return Upload{}, err
	}
	pc, err := s.presignClient(ctx)
	if err != nil {
		return Upload{}, err
	}

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}
	return Upload{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: time.Now().Add(URLExpiry)}, nil
}

// PresignView returns a presigned GET for an existing photo.
func (s *Store) PresignView(ctx context.Context, key string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign view: %w", err)
	}
	return req.URL, nil
}
