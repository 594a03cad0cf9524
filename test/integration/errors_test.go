package integration

import (
	"net/http"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/blobgate/pkg/api"
)

const downloadPath = "/api/files?bucketName=b&directory=d&name=missing.txt"

func TestGateFailures(t *testing.T) {
	validUpload := map[string]any{
		"bucketName":  "b",
		"directory":   "d",
		"name":        "n.txt",
		"contentType": "text/plain",
		"content":     "aGk=",
	}

	tests := []struct {
		name       string
		method     string
		path       string
		credential string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing credential",
			method:     http.MethodGet,
			path:       downloadPath,
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:       "unknown scheme",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:       "expired token",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: bearer(t, -time.Minute, readScope),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:   "wrong audience",
			method: http.MethodGet,
			path:   downloadPath,
			credential: bearerWithClaims(t, jwtlib.MapClaims{
				"aud": "someone-else",
				"iss": testIssuer,
				"exp": time.Now().Add(time.Hour).Unix(),
				"scp": readScope,
			}),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:       "malformed token",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: "Bearer abc.def",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:       "wrong api key",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: "ApiKey nope",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unable to authenticate request",
		},
		{
			name:       "missing scope",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: bearer(t, time.Hour, writeScope),
			wantStatus: http.StatusForbidden,
			wantError:  "Unable to authorize request",
		},
		{
			name:       "unauthorized before validation",
			method:     http.MethodPost,
			path:       "/api/files",
			credential: bearer(t, time.Hour, readScope),
			body:       `{not json`,
			wantStatus: http.StatusForbidden,
			wantError:  "Unable to authorize request",
		},
		{
			name:       "invalid JSON",
			method:     http.MethodPost,
			path:       "/api/files",
			credential: bearer(t, time.Hour, writeScope),
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantError:  "PATH: [] ;; MESSAGE: request body is not valid JSON",
		},
		{
			name:       "missing required field",
			method:     http.MethodPost,
			path:       "/api/files",
			credential: bearer(t, time.Hour, writeScope),
			body:       map[string]any{"bucketName": "b", "directory": "d", "contentType": "text/plain", "content": "aGk="},
			wantStatus: http.StatusBadRequest,
			wantError:  `PATH: [name] ;; MESSAGE: "name" is required`,
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/api/files",
			credential: bearer(t, time.Hour, writeScope),
			body:       merge(validUpload, map[string]any{"owner": "x"}),
			wantStatus: http.StatusBadRequest,
			wantError:  `PATH: [owner] ;; MESSAGE: "owner" is not allowed`,
		},
		{
			name:       "handler error passes through",
			method:     http.MethodGet,
			path:       "/api/files?bucketName=b&directory=d",
			credential: bearer(t, time.Hour, readScope),
			wantStatus: http.StatusBadRequest,
			wantError:  "name query parameter is required",
		},
		{
			name:       "not found",
			method:     http.MethodGet,
			path:       downloadPath,
			credential: "ApiKey " + testAPIKey,
			wantStatus: http.StatusNotFound,
			wantError:  "file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, tt.path, tt.credential, tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, readBody(t, resp))
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var errResp api.ErrorResponse
			decodeJSON(t, resp, &errResp)
			if errResp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", errResp.Error, tt.wantError)
			}
		})
	}
}

func TestPanicRecovered(t *testing.T) {
	resp := do(t, http.MethodGet, "/panic", "", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == "" {
		t.Error("error message missing")
	}

	// The server keeps serving after a panic.
	resp = do(t, http.MethodGet, "/healthz", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health after panic = %d, want 200", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	resp := do(t, http.MethodDelete, "/api/files", bearer(t, time.Hour, writeScope), nil)
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func merge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
