package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Prefix returns up to n bytes from the start of url. It requests a byte
// range and also caps the read, so a server that ignores Range costs at
// most n bytes. A 416 answer means the resource exists but is empty and
// yields no bytes. Any other status of 400 or above is a *StatusError.
func (c *Client) Prefix(ctx context.Context, url string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("httpds: prefix length must be positive")
	}
	resp, err := c.get(ctx, url, http.Header{"Range": {"bytes=0-" + strconv.Itoa(n-1)}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		return nil, nil
	case resp.StatusCode >= 400:
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("httpds: read %s: %w", url, err)
	}
	return b, nil
}
