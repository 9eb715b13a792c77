package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/metrics"
)

// maxResponseBody caps how much of a response is read
const maxResponseBody = 8 << 20

// PostJSON serializes request, POSTs it to path and decodes the reply into response.
func (c *Client) PostJSON(ctx context.Context, path string, request, response any) error {
	return c.roundTrip(ctx, http.MethodPost, path, request, response)
}

// GetJSON issues a GET to path and decodes the reply into response.
func (c *Client) GetJSON(ctx context.Context, path string, response any) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, response)
}

// roundTrip performs exactly one request/response exchange. No retries.
func (c *Client) roundTrip(ctx context.Context, method, path string, request, response any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if request != nil {
		payload, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("X-Request-ID", requestID)

	log := c.log.With(
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
	)

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.finish(log, path, metrics.OutcomeNetworkError, start, 0, err)
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return apierrors.NewNetworkError(method+" "+path, c.baseURL+path, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	data, err := readBody(resp)
	if err != nil {
		c.finish(log, path, metrics.OutcomeNetworkError, start, resp.StatusCode, err)
		return apierrors.NewNetworkError("read response", c.baseURL+path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := apierrors.NewAPIErrorWithBody(resp.StatusCode, path, http.StatusText(resp.StatusCode), string(data))
		c.finish(log, path, metrics.OutcomeAPIError, start, resp.StatusCode, apiErr)
		return apiErr
	}

	if response != nil {
		if err := json.Unmarshal(data, response); err != nil {
			parseErr := apierrors.NewParseError(path, "failed to decode response", err)
			c.finish(log, path, metrics.OutcomeParseError, start, resp.StatusCode, parseErr)
			return parseErr
		}
	}

	c.finish(log, path, metrics.OutcomeOK, start, resp.StatusCode, nil)
	return nil
}

// finish logs and records the outcome of one round trip
func (c *Client) finish(log *zap.Logger, path, outcome string, start time.Time, status int, err error) {
	elapsed := time.Since(start)
	c.metrics.ObserveRoundTrip(path, outcome, elapsed)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		log.Warn("round trip failed", append(fields, zap.Error(err))...)
		return
	}
	log.Info("round trip", fields...)
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
}
