// Package docstore issues short-lived signed URLs for document bytes.
// URL issuance happens only after the access engine has allowed the
// document; this package has no opinion on authorization.
package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Factory hooks for the AWS clients so tests can substitute fakes
// without a live endpoint.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config for the S3-compatible document store.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	URLTTL    time.Duration
}

// DefaultURLTTL bounds how long an issued download URL stays valid.
const DefaultURLTTL = 15 * time.Minute

// SignedURLIssuer issues a time-limited GET URL for a storage key.
type SignedURLIssuer interface {
	SignedGetURL(ctx context.Context, storageKey string) (string, error)
}

// S3Issuer issues presigned GET URLs against an S3-compatible backend
// (AWS S3 or MinIO via a custom endpoint).
type S3Issuer struct {
	cfg Config
}

// NewS3Issuer creates an issuer for the given backend configuration.
func NewS3Issuer(cfg Config) *S3Issuer {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = DefaultURLTTL
	}
	return &S3Issuer{cfg: cfg}
}

func (i *S3Issuer) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(i.cfg.Region),
	}
	if i.cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(i.cfg.AccessKey, i.cfg.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if i.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(i.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// SignedGetURL implements SignedURLIssuer.
func (i *S3Issuer) SignedGetURL(ctx context.Context, storageKey string) (string, error) {
	pc, err := i.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(i.cfg.Bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(i.cfg.URLTTL))
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return req.URL, nil
}
