package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/csheth/churnscout/internal/response"
)

type httpClient struct {
	endpoint string
	field    string
	client   *http.Client
	logger   zerolog.Logger
}

func (c *httpClient) Endpoint() string {
	return c.endpoint
}

func (c *httpClient) Query(ctx context.Context, text string) (response.QueryResponse, error) {
	buf, err := json.Marshal(map[string]string{c.field: text})
	if err != nil {
		return response.QueryResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return response.QueryResponse{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return response.QueryResponse{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response.QueryResponse{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(started)).
		Msg("query answered")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response.QueryResponse{}, fmt.Errorf("%w: %w", ErrTransport, &StatusError{
			Code: resp.StatusCode,
			Body: clip(strings.TrimSpace(string(body)), maxErrorBody),
		})
	}

	decoded, err := response.Decode(body)
	if err != nil {
		return response.QueryResponse{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	for _, warning := range decoded.Warnings {
		c.logger.Warn().Str("field", warning.Field).Msg(warning.Message)
	}
	return decoded, nil
}

// clip cuts s to at most limit bytes without splitting a UTF-8 sequence.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
