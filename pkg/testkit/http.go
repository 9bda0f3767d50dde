package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded response body.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Request builds a request with an optional JSON body and bearer token.
func Request(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// Do serves one request through h and decodes the envelope.
func Do(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, Request(t, method, path, body, token))

	var env Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

// DecodeData unmarshals env.Data into dest.
func DecodeData(t *testing.T, env Envelope, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest), "data: %s", string(env.Data))
}

// AssertStatus checks the HTTP code and that the envelope repeats it.
func AssertStatus(t *testing.T, want int, rec *httptest.ResponseRecorder, env Envelope) {
	t.Helper()
	assert.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, want, env.Status, "envelope status")
}
