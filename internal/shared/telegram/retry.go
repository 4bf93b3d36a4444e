package telegram

import (
	"log/slog"
	"net/http"
	"time"
)

// RetryTransport retries Telegram API requests that fail with network-class
// errors: a bounded number of attempts with a fixed pause between them.
// HTTP responses of any status are returned as-is; only transport errors
// are retried.
type RetryTransport struct {
	Base        http.RoundTripper
	MaxAttempts int
	Backoff     time.Duration
}

// NewHTTPClient builds the http.Client the bot talks to Telegram with:
// a bounded per-request timeout and the retrying transport
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &RetryTransport{
			Base:        http.DefaultTransport,
			MaxAttempts: 3,
			Backoff:     time.Second,
		},
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= t.MaxAttempts; attempt++ {
		resp, err := t.Base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// A consumed request body cannot be replayed
		if req.Body != nil && req.GetBody == nil {
			break
		}
		if attempt == t.MaxAttempts {
			break
		}

		slog.Warn("Telegram request failed, retrying",
			"url", req.URL.Path,
			"attempt", attempt,
			"max_attempts", t.MaxAttempts,
			"error", err,
		)

		select {
		case <-time.After(t.Backoff):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}

		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, lastErr
			}
			req.Body = body
		}
	}

	return nil, lastErr
}
