package direct

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_ConditionalWrite(t *testing.T) {
	g, _, objs := newMockGateway(t)
	ctx := context.Background()

	err := g.Upload(ctx, "car-images", "a.jpg", []byte("x"), gateway.UploadOptions{})
	require.ErrorIs(t, err, gateway.ErrUnauthenticated)

	signIn(t, g, "u-1")
	require.NoError(t, g.Upload(ctx, "car-images", "a.jpg", []byte("one"), gateway.UploadOptions{ContentType: "image/jpeg"}))
	b, ok := objs.get("car-images", "a.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("one"), b)
	assert.Equal(t, "image/jpeg", objs.types["car-images/a.jpg"])

	err = g.Upload(ctx, "car-images", "a.jpg", []byte("two"), gateway.UploadOptions{})
	require.ErrorIs(t, err, gateway.ErrObjectExists)
	b, _ = objs.get("car-images", "a.jpg")
	assert.Equal(t, []byte("one"), b)

	require.NoError(t, g.Upload(ctx, "car-images", "a.jpg", []byte("three"), gateway.UploadOptions{Upsert: true}))
	b, _ = objs.get("car-images", "a.jpg")
	assert.Equal(t, []byte("three"), b)
}

func TestRemove(t *testing.T) {
	g, _, objs := newMockGateway(t)
	ctx := context.Background()
	require.NoError(t, g.Remove(ctx, "car-images"))

	signIn(t, g, "u-1")
	require.NoError(t, g.Upload(ctx, "car-images", "a.jpg", []byte("x"), gateway.UploadOptions{}))
	require.NoError(t, g.Remove(ctx, "car-images", "a.jpg", "missing.jpg"))
	_, ok := objs.get("car-images", "a.jpg")
	assert.False(t, ok)
	assert.Equal(t, []string{"car-images/a.jpg", "car-images/missing.jpg"}, objs.deleted)
}

func TestStorageError(t *testing.T) {
	err := storageError(&smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied."})
	re, ok := gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "AccessDenied", re.Code)
	assert.Equal(t, "Access Denied.", re.Message)
	assert.False(t, errors.Is(err, gateway.ErrObjectExists))

	err = storageError(&smithy.GenericAPIError{Code: "ConditionalRequestConflict"})
	assert.ErrorIs(t, err, gateway.ErrObjectExists)
	re, _ = gateway.IsRemote(err)
	assert.Equal(t, http.StatusConflict, re.Status)

	err = storageError(errors.New("dial tcp: connection refused"))
	re, _ = gateway.IsRemote(err)
	require.NotNil(t, re)
	assert.Equal(t, gateway.CodeNetwork, re.Code)
}

func TestUpload_NetworkError(t *testing.T) {
	g, _, objs := newMockGateway(t)
	signIn(t, g, "u-1")
	objs.err = errors.New("connection reset")

	err := g.Upload(context.Background(), "car-images", "a.jpg", []byte("x"), gateway.UploadOptions{})
	re, ok := gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, gateway.CodeNetwork, re.Code)
}

func TestPublicURL(t *testing.T) {
	g, _, _ := newMockGateway(t)
	assert.Equal(t, "http://minio.local/avatars/avatars/u%201.jpg", g.PublicURL("avatars", "avatars/u 1.jpg"))
}

func TestNewS3Store_UsesSeams(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	defer func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew }()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	c, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1", AccessKey: "k", SecretKey: "s", BaseEndpoint: "http://localhost:9000"})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Store(context.Background(), S3Config{})
	require.EqualError(t, err, "no config")
}
