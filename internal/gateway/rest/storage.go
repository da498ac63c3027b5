package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

const (
	pathObject       = "/storage/v1/object/"
	pathPublicObject = "/storage/v1/object/public/"
)

// escapeKey escapes every segment of an object key, keeping the slashes.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, opts gateway.UploadOptions) error {
	ct := opts.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if data == nil {
		data = []byte{}
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        pathObject + url.PathEscape(bucket) + "/" + escapeKey(key),
		header:      http.Header{headerUpsert: {strconv.FormatBool(opts.Upsert)}},
		body:        data,
		contentType: ct,
		authed:      true,
	}, nil)
}

func (c *Client) Remove(ctx context.Context, bucket string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     pathObject + url.PathEscape(bucket),
		jsonBody: map[string][]string{"prefixes": keys},
		authed:   true,
	}, nil)
}

func (c *Client) PublicURL(bucket, key string) string {
	return c.baseURL + pathPublicObject + url.PathEscape(bucket) + "/" + escapeKey(key)
}
