package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReturnsReplyAndAudio(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var body Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hallo", body.Message)

		_, _ = w.Write([]byte(`{"reply":"Guten Tag","audio":"https://x/ok.mp3"}`))
	}))
	defer server.Close()

	reply, err := NewClient(server.URL).Send(context.Background(), "Hallo")
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "Guten Tag", AudioRef: "https://x/ok.mp3"}, reply)
	assert.EqualValues(t, 1, requests.Load())
}

func TestSendWithoutAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"Guten Tag","audio":null}`))
	}))
	defer server.Close()

	reply, err := NewClient(server.URL).Send(context.Background(), "Hallo")
	require.NoError(t, err)
	assert.Empty(t, reply.AudioRef)
}

func TestSendNonSuccessStatusIsProtocolError(t *testing.T) {
	longBody := strings.Repeat("x", 400)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(longBody))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Send(context.Background(), "Hallo")

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, http.StatusInternalServerError, protocolErr.StatusCode)
	assert.Len(t, protocolErr.Body, bodyExcerptLength)
	assert.Equal(t, "status", ErrorKind(err))
	assert.EqualValues(t, 1, requests.Load(), "no retries")
}

func TestSendMalformedBodyIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Send(context.Background(), "Hallo")

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Zero(t, protocolErr.StatusCode)
	assert.Equal(t, "<html>gateway</html>", protocolErr.Body)
	assert.Equal(t, "malformed", ErrorKind(err))
}

func TestSendEmptyReply(t *testing.T) {
	for _, body := range []string{`{"reply":""}`, `{"reply":"   "}`, `{}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewClient(server.URL).Send(context.Background(), "Hallo")
		server.Close()

		require.ErrorIs(t, err, ErrEmptyReply, "body %s", body)
	}
}

func TestSendTransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Send(context.Background(), "Hallo")

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.Equal(t, "network", ErrorKind(err))
}

func TestSendTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(server.URL, WithTimeout(20*time.Millisecond)).Send(context.Background(), "Hallo")

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)
}

func TestSchemasDescribeWireFormat(t *testing.T) {
	raw, err := SchemaJSON()
	require.NoError(t, err)

	var schemas map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &schemas))
	require.Contains(t, schemas, "request")
	require.Contains(t, schemas, "response")

	requestProps, ok := schemas["request"]["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, requestProps, "message")

	responseProps, ok := schemas["response"]["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, responseProps, "reply")
	assert.Contains(t, responseProps, "audio")
}

func TestErrorKindOfUnknownError(t *testing.T) {
	assert.Equal(t, "other", ErrorKind(errors.New("boom")))
}
