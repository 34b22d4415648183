package artifacts

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Khan/genqlient/graphql"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/artifactpipe/core/internal/api"
	"github.com/artifactpipe/core/internal/clients"
	"github.com/artifactpipe/core/internal/observability"
	"github.com/artifactpipe/core/internal/retryableclient"
)

// defaultGraphQLPath is appended to GraphQLClientOptions.BaseURL when
// Endpoint is left unset.
const defaultGraphQLPath = "/graphql"

// GraphQLClientOptions configures the control-plane transport that
// ArtifactSaveManager uses to run the createArtifact / createArtifactFiles /
// createArtifactManifest / commitArtifact mutations defined in internal/gql.
type GraphQLClientOptions struct {
	// BaseURL is the backend root, e.g. "https://api.wandb.ai".
	BaseURL string

	// Endpoint overrides the GraphQL path appended to BaseURL. Defaults to
	// "/graphql".
	Endpoint string

	// APIKey authenticates requests via HTTP Basic Auth.
	APIKey string

	Logger *observability.CoreLogger
}

// NewGraphQLClient builds the graphql.Client injected into
// NewArtifactSaveManager. It wires internal/api's retry-capable HTTP
// transport with internal/clients.UpsertBucketRetryPolicy, so that a 409
// Conflict from an upsert-style mutation (e.g. re-creating an artifact
// version the server just deleted) is retried rather than surfaced, 408,
// 429 and other 4xx responses are retried, 5xx responses fall through to
// retryablehttp's default classification, and 400/401/403/404/410 fail
// without retrying.
func NewGraphQLClient(opts GraphQLClientOptions) (graphql.Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("artifacts: invalid base URL %q: %w", opts.BaseURL, err)
	}

	creds, err := api.NewAPIKeyCredentialProvider(opts.APIKey)
	if err != nil {
		return nil, err
	}

	retryable := api.NewClient(api.ClientOptions{
		BaseURL:            base,
		RetryMax:           api.DefaultRetryMax,
		RetryWaitMin:       api.DefaultRetryWaitMin,
		RetryWaitMax:       api.DefaultRetryWaitMax,
		RetryPolicy:        clients.UpsertBucketRetryPolicy,
		NonRetryTimeout:    api.DefaultNonRetryTimeout,
		CredentialProvider: creds,
		NetworkPeeker:      backendErrorPeeker{logger: coreLoggerOrNil(opts.Logger)},
		Logger:             coreLoggerOrNil(opts.Logger),
	})

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultGraphQLPath
	}

	return graphql.NewClient(base.String()+endpoint, api.AsStandardClient(retryable)), nil
}

// FileTransferClientOptions configures the object-store transport that
// internal/filetransfer uses to PUT/GET file bytes against presigned URLs.
type FileTransferClientOptions struct {
	// APIKey is attached to requests as a fallback for object stores that
	// echo it back on a retried RequestTimeout; most presigned URLs carry
	// their own auth and ignore it.
	APIKey string

	Logger *observability.CoreLogger

	// RetryMax, RetryWaitMin, and RetryWaitMax default to internal/api's
	// DefaultRetryMax/DefaultRetryWaitMin/DefaultRetryWaitMax when zero.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// NewFileTransferHTTPClient builds the *retryablehttp.Client injected into
// internal/filetransfer.NewFileTransfers, giving uploads/downloads of
// presigned object-store URLs the retry/backoff classification of
// internal/clients.DefaultRetryPolicy, which retries a 408 RequestTimeout
// from the object store. Unlike the GraphQL client's policy, it does not
// retry a 409 Conflict.
func NewFileTransferHTTPClient(opts FileTransferClientOptions) *retryablehttp.Client {
	retryMax := opts.RetryMax
	if retryMax == 0 {
		retryMax = api.DefaultRetryMax
	}
	retryWaitMin := opts.RetryWaitMin
	if retryWaitMin == 0 {
		retryWaitMin = api.DefaultRetryWaitMin
	}
	retryWaitMax := opts.RetryWaitMax
	if retryWaitMax == 0 {
		retryWaitMax = api.DefaultRetryWaitMax
	}

	retryOpts := []retryableclient.RetryClientOption{
		retryableclient.WithRetryClientRetryMax(retryMax),
		retryableclient.WithRetryClientRetryWaitMin(retryWaitMin),
		retryableclient.WithRetryClientRetryWaitMax(retryWaitMax),
		retryableclient.WithRetryClientRetryPolicy(clients.DefaultRetryPolicy),
		retryableclient.WithRetryClientBackoff(clients.ExponentialBackoffWithJitter),
	}
	if opts.APIKey != "" {
		retryOpts = append(retryOpts, retryableclient.WithRetryClientHttpAuthTransport(opts.APIKey))
	}
	if opts.Logger != nil {
		retryOpts = append(retryOpts, retryableclient.WithRetryClientLogger(opts.Logger))
	}

	return retryableclient.NewRetryClient(retryOpts...)
}

// backendErrorPeeker logs the W&B-formatted error message carried in a
// non-2xx GraphQL response body, so that a 409/429/5xx that the retry
// policy is about to retry (or give up on) is visible in logs with the
// backend's own explanation rather than just a status code.
//
// It buffers the body through api.BufferingReader and reconstructs it
// afterward so the retry/decode logic downstream still sees a fresh reader.
type backendErrorPeeker struct {
	logger *slog.Logger
}

// Peek implements api.Peeker.
func (p backendErrorPeeker) Peek(req *http.Request, resp *http.Response) {
	if p.logger == nil || resp == nil || resp.StatusCode < 400 || resp.Body == nil {
		return
	}

	buffering := api.NewBufferingReader(resp.Body)
	body, err := io.ReadAll(buffering)
	resp.Body = buffering.Reconstruct()
	if err != nil {
		return
	}

	if msg := api.ErrorFromWBResponse(body); msg != "" {
		p.logger.Warn("artifacts: backend returned an error",
			"status", resp.StatusCode,
			"path", req.URL.Path,
			"message", msg,
		)
	}
}

// coreLoggerOrNil unwraps the embedded *slog.Logger, tolerating a nil
// *observability.CoreLogger.
func coreLoggerOrNil(logger *observability.CoreLogger) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.Logger
}
