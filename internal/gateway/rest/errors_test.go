package rest

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"postgrest", 400, `{"code":"PGRST204","message":"Could not find the column","details":null}`, 400, "PGRST204", "Could not find the column"},
		{"gotrue new", 422, `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`, 422, "user_already_exists", "User already registered"},
		{"gotrue oauth", 400, `{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`, 400, "invalid_grant", "Invalid Refresh Token"},
		{"storage duplicate", 400, `{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`, 409, "Duplicate", "The resource already exists"},
		{"storage numeric status", 400, `{"statusCode":403,"error":"Unauthorized","message":"new row violates row-level security policy"}`, 403, "Unauthorized", "new row violates row-level security policy"},
		{"plain text", 502, `Bad Gateway`, 502, "Bad Gateway", "Bad Gateway"},
		{"empty json", 500, `{}`, 500, "", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(tt.status, []byte(tt.body))
			var re *gateway.RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.wantStatus, re.Status)
			assert.Equal(t, tt.wantCode, re.Code)
			assert.Equal(t, tt.wantMsg, re.Message)
		})
	}
}

func TestParseError_DuplicateMatchesObjectExists(t *testing.T) {
	err := parseError(http.StatusBadRequest, []byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
	assert.ErrorIs(t, err, gateway.ErrObjectExists)
}
