// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package avatar stores uploaded avatar images in an S3-compatible
// bucket and returns durable public URLs.
package avatar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/contactshq/contacts-api/internal/config"
)

// Uploader is the asset store contract. The S3 implementation below is
// swapped for a fake in tests.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, contentType string, userID int64) (string, error)
}

// ErrNotConfigured is returned by the Disabled uploader.
var ErrNotConfigured = fmt.Errorf("avatar storage not configured")

// Disabled is the fallback Uploader used when no bucket is configured;
// every upload fails cleanly.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string, int64) (string, error) {
	return "", ErrNotConfigured
}

// Service uploads avatars to an S3-compatible endpoint (AWS, MinIO).
type Service struct {
	client *s3.Client
	cfg    *config.S3Config
}

// NewService builds the S3 client from static credentials.
func NewService(ctx context.Context, cfg *config.S3Config) (*Service, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Service{client: client, cfg: cfg}, nil
}

// Upload stores the avatar under a uuid-suffixed key so a re-upload
// never serves a stale cached object, and returns its public URL.
func (s *Service) Upload(ctx context.Context, body io.Reader, contentType string, userID int64) (string, error) {
	key := fmt.Sprintf("avatars/%d-%s", userID, uuid.New())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}

	return s.publicURL(key), nil
}

func (s *Service) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
