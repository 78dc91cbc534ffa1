// Package storage handles course media (cover images, lesson videos) stored in
// an S3 bucket with public-read objects.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/edulaunch/marketplace-api/model"
	"github.com/google/uuid"
)

var (
	ErrNoImage        = errors.New("no image payload")
	ErrInvalidDataURI = errors.New("image must be a base64 data URI")
)

// Client handles media bucket operations
type Client struct {
	s3Client *s3.S3
	bucket   string
	region   string
}

// Config holds configuration for the media bucket client
type Config struct {
	Region string
	Bucket string
}

// NewClient creates a media bucket client. Credentials come from the default
// AWS chain (env vars, shared config, instance profile).
func NewClient(config Config) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Client{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		region:   config.Region,
	}, nil
}

// UploadImage decodes a base64 data URI ("data:image/png;base64,...") and
// uploads it under a fresh key. Returns the stored asset reference.
func (c *Client) UploadImage(ctx context.Context, dataURI string) (model.Asset, error) {
	if dataURI == "" {
		return model.Asset{}, ErrNoImage
	}

	header, payload, found := strings.Cut(dataURI, ",")
	if !found || !strings.HasPrefix(header, "data:image/") {
		return model.Asset{}, ErrInvalidDataURI
	}

	// header looks like "data:image/png;base64"
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext := strings.TrimPrefix(contentType, "image/")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return model.Asset{}, ErrInvalidDataURI
	}

	key := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	return c.upload(ctx, key, strings.NewReader(string(data)), contentType)
}

// UploadVideo streams a lesson video to the bucket under a fresh key
func (c *Client) UploadVideo(ctx context.Context, contentType string, data io.Reader) (model.Asset, error) {
	ext := "mp4"
	if _, sub, found := strings.Cut(contentType, "/"); found && sub != "" {
		ext = sub
	}

	key := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	return c.upload(ctx, key, data, contentType)
}

func (c *Client) upload(ctx context.Context, key string, data io.Reader, contentType string) (model.Asset, error) {
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"), // assets are served directly to learners
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return model.Asset{
		Bucket:      c.bucket,
		Key:         key,
		URL:         fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key),
		ContentType: contentType,
	}, nil
}

// Delete removes an asset from the bucket. Deleting an absent key is a no-op.
func (c *Client) Delete(ctx context.Context, asset model.Asset) error {
	if asset.IsZero() {
		return nil
	}

	bucket := asset.Bucket
	if bucket == "" {
		bucket = c.bucket
	}

	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(asset.Key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", asset.Key, err)
	}
	return nil
}
