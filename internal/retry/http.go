package retry

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrTooManyRedirects is returned by the redirect policy once the limit is hit.
var ErrTooManyRedirects = errors.New("too many redirects")

// RedirectPolicy follows up to maxRedirects redirects and then fails with ErrTooManyRedirects.
func RedirectPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, ErrTooManyRedirects)
		}
		return nil
	}
}

// WrapHTTPClient returns client unchanged when the policy allows no retries;
// otherwise it returns a standard *http.Client backed by retryablehttp.
func WrapHTTPClient(client *http.Client, p Policy) *http.Client {
	if p.MaxRetries <= 0 {
		return client
	}
	if client == nil {
		client = &http.Client{}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = client
	retryClient.Logger = nil
	retryClient.CheckRetry = checkRetry
	retryClient.Backoff = p.Backoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RetryMax = p.MaxRetries
	retryClient.RetryWaitMin = p.Initial
	retryClient.RetryWaitMax = p.Max
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			slog.Debug("Retrying link check", "url", req.URL.String(), "method", req.Method, "attempt", attempt)
		}
	}
	return retryClient.StandardClient()
}

// checkRetry retries transport failures, 429 and 5xx responses, but not
// permanent failures such as bad URLs, certificate problems or redirect loops.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return false, nil
		}

		var certError x509.CertificateInvalidError
		if errors.As(err, &certError) {
			return false, nil
		}

		var caError x509.UnknownAuthorityError
		if errors.As(err, &caError) {
			return false, nil
		}

		var hostError x509.HostnameError
		if errors.As(err, &hostError) {
			return false, nil
		}

		var urlError *url.Error
		if errors.As(err, &urlError) && urlError.Op == "parse" {
			return false, nil
		}

		return true, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}

	if resp.StatusCode == 0 || (resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented) {
		return true, nil
	}

	return false, nil
}
