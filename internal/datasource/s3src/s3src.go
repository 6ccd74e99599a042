// Package s3src reads a sample from an S3 object. Any S3-compatible store
// works when Endpoint and UsePathStyle are set.
package s3src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Config locates one object.
type Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Source reads one object.
type Source struct {
	client *s3.Client
	bucket string
	key    string
}

// New builds an S3 client from cfg. Static credentials come from cfg or,
// when both fields are empty, from AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY. With neither, requests are anonymous.
func New(cfg Config) *Source {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	id, secret := cfg.AccessKeyID, cfg.SecretAccessKey
	if id == "" && secret == "" {
		id, secret = os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if id != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(id, secret, os.Getenv("AWS_SESSION_TOKEN"))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Source{client: s3.New(opts), bucket: cfg.Bucket, key: cfg.Key}
}

// ParseURI splits "s3://bucket/path/to/key" into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("S3 uri %q needs both bucket and key", uri)
	}
	return u.Host, key, nil
}

// String returns the object as an s3:// URI.
func (s *Source) String() string { return "s3://" + s.bucket + "/" + s.key }

// Check issues a HEAD for the object.
func (s *Source) Check(ctx context.Context) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return s.wrap("head", err)
	}
	return nil
}

// Open streams the object body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, s.wrap("get", err)
	}
	return out.Body, nil
}

// wrap adds the object URI and maps missing objects onto fs.ErrNotExist.
func (s *Source) wrap(op string, err error) error {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
		noBucket *types.NoSuchBucket
		resp     *awshttp.ResponseError
	)
	missing := errors.As(err, &noKey) || errors.As(err, &notFound) || errors.As(err, &noBucket) ||
		(errors.As(err, &resp) && resp.HTTPStatusCode() == http.StatusNotFound)
	if missing {
		return fmt.Errorf("%s %s: %w: %w", op, s, fs.ErrNotExist, err)
	}
	return fmt.Errorf("%s %s: %w", op, s, err)
}
