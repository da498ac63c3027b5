package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

// errorBody covers the error shapes of the three backend APIs:
// PostgREST {code,message,details,hint}, GoTrue {code,error_code,msg} or
// {error,error_description} and Storage {statusCode,error,message}.
type errorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	StatusCode       any    `json:"statusCode"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// parseError converts a failed response into a *gateway.RemoteError. The
// backend message is kept verbatim.
func parseError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return &gateway.RemoteError{
			Status:  status,
			Code:    http.StatusText(status),
			Message: strings.TrimSpace(string(body)),
		}
	}

	msg := firstNonEmpty(eb.Message, eb.Msg, eb.ErrorDescription, eb.Error)
	code := eb.ErrorCode
	if code == "" {
		if s, ok := eb.Code.(string); ok {
			code = s
		}
	}
	if code == "" && eb.Error != "" && eb.Error != msg {
		code = eb.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	// Storage reports some conflicts as HTTP 400 with the real status in
	// the body.
	if n, err := strconv.Atoi(scalar(eb.StatusCode)); err == nil && n >= 400 {
		status = n
	}
	if eb.Error == "Duplicate" {
		status = http.StatusConflict
	}

	return &gateway.RemoteError{Status: status, Code: code, Message: msg}
}
