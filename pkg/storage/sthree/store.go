// Copyright © 2018 One Concern

package sthree

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/registrysync/pkg/storage"
	"github.com/oneconcern/registrysync/pkg/storage/status"
)

// Option configures the S3 store
type Option func(*s3FS)

// Bucket sets the target bucket
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// AWSConfig replaces the whole AWS configuration
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Region sets the AWS region
func Region(region string) Option {
	return func(fs *s3FS) {
		if region != "" {
			fs.awsConfig.Region = aws.String(region)
		}
	}
}

// Endpoint targets an S3 compatible endpoint, such as minio
func Endpoint(endpoint string) Option {
	return func(fs *s3FS) {
		if endpoint != "" {
			fs.awsConfig.Endpoint = aws.String(endpoint)
		}
	}
}

// PathStyle forces path-style addressing (http://endpoint/bucket/key)
func PathStyle(enabled bool) Option {
	return func(fs *s3FS) {
		fs.awsConfig.S3ForcePathStyle = aws.Bool(enabled)
	}
}

// StaticCredentials use fixed credentials instead of the default AWS credentials chain
func StaticCredentials(id, secret string) Option {
	return func(fs *s3FS) {
		if id != "" {
			fs.awsConfig.Credentials = credentials.NewStaticCredentials(id, secret, "")
		}
	}
}

// New S3 store.
//
// A single PutObject is atomic: readers see either the previous or the new object.
func New(option Option, options ...Option) (storage.Store, error) {
	fs := &s3FS{
		awsConfig: aws.NewConfig(),
	}
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("an S3 bucket is required")
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	return fs, nil
}

type s3FS struct {
	bucket    string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == 404 {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   rdr,
	})
	if err != nil {
		return status.ErrWrite.Wrap(toSentinelErrors(err))
	}
	return nil
}

func (s *s3FS) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) String() string {
	return "s3@" + s.bucket
}
