package visual

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"newscycle/internal/retry"
)

// maxImageBytes bounds any single download.
const maxImageBytes = 20 << 20

// download GETs url and returns the body. Non-200 responses are errors; 429
// wraps retry.ErrRateLimited.
func download(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", resp.StatusCode, retry.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
}
