package direct

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

// S3Config locates an S3-compatible object store (AWS, MinIO).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// ObjectStore is the part of *s3.Client the gateway uses.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Store builds an S3 client with static credentials. A non-empty
// BaseEndpoint switches to path-style addressing.
func NewS3Store(ctx context.Context, c S3Config) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// storageError maps an S3 failure to a RemoteError. Failed conditional
// writes become 409 conflicts.
func storageError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return gateway.NetworkError(err)
	}

	status := http.StatusInternalServerError
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return &gateway.RemoteError{Status: http.StatusConflict, Code: "Duplicate", Message: "The resource already exists", Err: err}
	}
	return &gateway.RemoteError{Status: status, Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
}

// Upload requires a signed-in user. Without Upsert the write is conditional
// on the key being absent.
func (g *Gateway) Upload(ctx context.Context, bucket, key string, data []byte, opts gateway.UploadOptions) error {
	if _, err := g.authorize(ctx); err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if !opts.Upsert {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := g.objects.PutObject(ctx, in); err != nil {
		g.log.Warn(ctx, "upload failed", "bucket", bucket, "key", key, "error", err)
		return storageError(err)
	}
	g.log.Debug(ctx, "uploaded", "bucket", bucket, "key", key, "bytes", len(data))
	return nil
}

func (g *Gateway) Remove(ctx context.Context, bucket string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := g.authorize(ctx); err != nil {
		return err
	}
	ids := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		ids[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}
	_, err := g.objects.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

func (g *Gateway) PublicURL(bucket, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(g.publicBase, "/") + "/" + url.PathEscape(bucket) + "/" + strings.Join(segs, "/")
}
