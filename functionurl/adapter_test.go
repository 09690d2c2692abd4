package functionurl

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_TranslatesRequestAndResponse(t *testing.T) {
	var seen *http.Request
	var seenBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	})

	event := events.LambdaFunctionURLRequest{
		RawPath:        "/",
		RawQueryString: "id=42",
		Headers:        map[string]string{"accept": "application/json", "content-type": "application/json"},
		Body:           `{"customer_id":7}`,
		RequestContext: events.LambdaFunctionURLRequestContext{
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{Method: "POST", Path: "/", SourceIP: "203.0.113.9"},
		},
	}

	resp, err := New(h).Handle(context.Background(), event)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "POST", seen.Method)
	assert.Equal(t, "42", seen.URL.Query().Get("id"))
	assert.Equal(t, "application/json", seen.Header.Get("Accept"))
	assert.Equal(t, `{"customer_id":7}`, seenBody)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, `{"id":1}`, resp.Body)
}

func TestAdapter_DefaultsAndBase64(t *testing.T) {
	var method, path, body string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Write([]byte("ok"))
	})

	event := events.LambdaFunctionURLRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)),
		IsBase64Encoded: true,
	}

	resp, err := New(h).Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, "GET", method)
	assert.Equal(t, "/", path)
	assert.Equal(t, `{"a":1}`, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", resp.Body)
}

func TestAdapter_InvalidBase64(t *testing.T) {
	called := false
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	resp, err := New(h).Handle(context.Background(), events.LambdaFunctionURLRequest{
		Body:            "%%%",
		IsBase64Encoded: true,
		RequestContext: events.LambdaFunctionURLRequestContext{
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{Method: "POST"},
		},
	})

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Body, "Invalid payload")
}
