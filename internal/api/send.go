package api

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Do implements RetryableClient.
//
// All header/auth/rate-limit handling lives in the transport built by
// NewClient; this just forwards to the underlying retryablehttp.Client and
// turns a (nil, nil) result into an explicit error.
func (client *clientImpl) Do(req *retryablehttp.Request) (*http.Response, error) {
	return client.send(req)
}

func (client *clientImpl) send(req *retryablehttp.Request) (*http.Response, error) {
	resp, err := client.retryableHTTP.Do(req)
	if err == nil && resp == nil {
		return nil, fmt.Errorf("api: no response")
	}
	return resp, err
}
