package ofs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const retryAttempts = 3

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// requestWithRetry executes one logical OFS call with up to three attempts.
// Retryable statuses (429/5xx) and transport errors back off exponentially;
// every other status is returned immediately as ok with its literal status
// code string. Failure never surfaces as a panic here: the four-tuple
// (ok, code, response, errText) carries everything the caller needs.
func (c *Client) requestWithRetry(ctx context.Context, method, rawURL string, body any) (bool, string, *Response, string) {
	return c.requestWithRetryAuth(ctx, method, rawURL, body, c.cfg.Username, c.cfg.Password)
}

// requestWithRetryCreate is requestWithRetry with the creation environment
// credentials.
func (c *Client) requestWithRetryCreate(ctx context.Context, method, rawURL string, body any) (bool, string, *Response, string) {
	return c.requestWithRetryAuth(ctx, method, rawURL, body, c.cfg.CreateUsername, c.cfg.CreatePassword)
}

func (c *Client) requestWithRetryAuth(ctx context.Context, method, rawURL string, body any, user, pass string) (bool, string, *Response, string) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, "ERR:encode", nil, err.Error()
		}
		payload = encoded
	}

	lastStatus := 0
	for attempt := 0; attempt < retryAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return false, "ERR:request", nil, err.Error()
		}
		req.SetBasicAuth(user, pass)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "ofsadmin")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == retryAttempts-1 {
				return false, "ERR:" + transportErrKind(err), nil, err.Error()
			}
			c.sleep(c.backoff(attempt))
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			if attempt == retryAttempts-1 {
				return false, "ERR:read", nil, readErr.Error()
			}
			c.sleep(c.backoff(attempt))
			continue
		}

		if retryableStatus(resp.StatusCode) {
			lastStatus = resp.StatusCode
			if attempt < retryAttempts-1 {
				c.sleep(c.backoff(attempt))
			}
			continue
		}

		return true, strconv.Itoa(resp.StatusCode), &Response{Status: resp.StatusCode, Body: data}, ""
	}

	return false, "ERR:exhausted", nil, fmt.Sprintf("gave up after %d attempts, last status %d", retryAttempts, lastStatus)
}

// backoff is (2^attempt) * Pause, no jitter.
func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * c.cfg.Pause
}

func transportErrKind(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "connection"
}
