package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedGetURLUsesConfiguredBucketAndKey(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewClient := newS3ClientFromConfig
	origNewPresign := newS3PresignClient
	origPresignGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewClient
		newS3PresignClient = origNewPresign
		presignGetObject = origPresignGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		require.NotNil(t, c)
		return &s3.PresignClient{}
	}

	var gotBucket, gotKey string
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/doc"}, nil
	}

	issuer := NewS3Issuer(Config{
		Region: "us-east-1",
		Bucket: "rfp-documents",
	})

	url, err := issuer.SignedGetURL(context.Background(), "rfps/rfp-1/doc-1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/doc", url)
	assert.Equal(t, "rfp-documents", gotBucket)
	assert.Equal(t, "rfps/rfp-1/doc-1", gotKey)
}

func TestSignedGetURLConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	issuer := NewS3Issuer(Config{Region: "us-east-1", Bucket: "rfp-documents"})
	_, err := issuer.SignedGetURL(context.Background(), "any-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}
