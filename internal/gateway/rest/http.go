package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

const (
	headerAPIKey        = "apikey"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerPrefer        = "Prefer"
	headerUpsert        = "x-upsert"
	contentTypeJSON     = "application/json"
)

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	// body is sent verbatim; jsonBody is marshalled when body is nil.
	body        []byte
	jsonBody    any
	contentType string
	// authed requests carry the session access token and trigger a refresh
	// when it has expired. bearer, when set, is used as is.
	authed bool
	bearer string
}

// do performs req and decodes a successful JSON response into result.
func (c *Client) do(ctx context.Context, req request, result any) error {
	bearer := c.apiKey
	if req.bearer != "" {
		bearer = req.bearer
	} else if req.authed {
		s, err := c.freshSession(ctx)
		if err != nil {
			return err
		}
		if s != nil {
			bearer = s.AccessToken
		}
	}

	reqURL := c.baseURL + req.path
	if len(req.query) > 0 {
		reqURL += "?" + req.query.Encode()
	}

	body := req.body
	contentType := req.contentType
	if body == nil && req.jsonBody != nil {
		b, err := json.Marshal(req.jsonBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = b
		contentType = contentTypeJSON
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(headerAPIKey, c.apiKey)
	httpReq.Header.Set(headerAuthorization, "Bearer "+bearer)
	if contentType != "" {
		httpReq.Header.Set(headerContentType, contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn(ctx, "backend unreachable", "method", req.method, "path", req.path, "error", err)
		return gateway.NetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.NetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.log.Debug(ctx, "backend call", "method", req.method, "path", req.path, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
