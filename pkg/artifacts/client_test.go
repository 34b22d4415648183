package artifacts

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphQLClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGraphQLClient(GraphQLClientOptions{
		BaseURL: "https://api.wandb.ai",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestNewGraphQLClient_InvalidBaseURL(t *testing.T) {
	_, err := NewGraphQLClient(GraphQLClientOptions{
		BaseURL: "://not-a-url",
		APIKey:  "test-key",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestNewGraphQLClient_BuildsClient(t *testing.T) {
	client, err := NewGraphQLClient(GraphQLClientOptions{
		BaseURL: "https://api.wandb.ai",
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewFileTransferHTTPClient_AppliesDefaults(t *testing.T) {
	client := NewFileTransferHTTPClient(FileTransferClientOptions{
		APIKey: "test-key",
	})
	require.NotNil(t, client)
	assert.Equal(t, 20, client.RetryMax)
	assert.NotNil(t, client.CheckRetry)
	assert.NotNil(t, client.Backoff)

	// The auth transport wraps the default transport and sets the
	// Authorization header using the configured API key.
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.HTTPClient.Transport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, gotAuth)
}

func TestBackendErrorPeeker_LogsAndPreservesBody(t *testing.T) {
	var logBuf bytes.Buffer
	peeker := backendErrorPeeker{logger: slog.New(slog.NewTextHandler(&logBuf, nil))}

	req, err := http.NewRequest(http.MethodPost, "https://api.wandb.ai/graphql", nil)
	require.NoError(t, err)

	body := `{"errors":[{"message":"conflict: artifact version already exists"}]}`
	resp := &http.Response{
		StatusCode: http.StatusConflict,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}

	peeker.Peek(req, resp)

	assert.Contains(t, logBuf.String(), "conflict: artifact version already exists")

	// The body must still be readable by whatever decodes the response next.
	remaining, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(remaining))
}

func TestBackendErrorPeeker_IgnoresSuccessResponses(t *testing.T) {
	var logBuf bytes.Buffer
	peeker := backendErrorPeeker{logger: slog.New(slog.NewTextHandler(&logBuf, nil))}

	req, err := http.NewRequest(http.MethodPost, "https://api.wandb.ai/graphql", nil)
	require.NoError(t, err)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(`{"data":{}}`)),
	}

	peeker.Peek(req, resp)

	assert.Empty(t, logBuf.String())
}

func TestNewFileTransferHTTPClient_HonorsOverrides(t *testing.T) {
	client := NewFileTransferHTTPClient(FileTransferClientOptions{
		RetryMax: 3,
	})
	assert.Equal(t, 3, client.RetryMax)
}
