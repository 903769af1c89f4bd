package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// getJSON issues a GET through the getter and decodes a 2xx body into v.
// Non-2xx statuses wrap ErrUnexpectedStatus; an undecodable body is an error
// as well.
func getJSON(ctx context.Context, getter HTTPGetter, rawURL string, params url.Values, headers http.Header, timeout time.Duration, v any) error {
	resp, err := getter.Get(ctx, rawURL, params, headers, timeout)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.Status, rawURL)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", rawURL, err)
	}
	return nil
}
