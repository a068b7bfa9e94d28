// Package httputil holds helpers shared by the outbound provider clients.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MaxBodyBytes caps how much of an upstream response is read.
const MaxBodyBytes = 10 << 20

// NewClient returns an *http.Client with the given per-request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// RedactURLError strips the request URL from transport errors. Provider
// credentials travel in query strings and paths, and *url.Error prints the
// full URL.
func RedactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", uerr.Op, uerr.Err)
	}
	return err
}

// ReadBody reads at most MaxBodyBytes from resp.Body.
func ReadBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
}
