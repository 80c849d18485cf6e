// Package archive stores delivery receipts for sent reminders in S3-compatible
// object storage (MinIO in development).
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/google/uuid"
)

// Receipt records one delivered reminder.
type Receipt struct {
	ReminderID  string    `json:"reminder_id"`
	OwnerID     string    `json:"user_id"`
	Channel     string    `json:"channel"`
	TargetDate  string    `json:"target_date"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archiver writes each batch of receipts as one JSON object under
// receipts/YYYY/MM/DD/<uuid>.json.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds a client from the S3 settings of cfg using static
// credentials and path-style addressing.
func NewS3Archiver(ctx context.Context, cfg *config.Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

// Key returns the object key for a batch written at t.
func Key(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("receipts/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), uuid.New())
}

// Archive uploads receipts. An empty batch is not written.
func (a *S3Archiver) Archive(ctx context.Context, receipts []Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	body, err := json.Marshal(receipts)
	if err != nil {
		return err
	}

	key := Key(a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", a.bucket, key, err)
	}
	return nil
}
