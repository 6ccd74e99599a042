package httpds

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
)

// StatusError reports a final, non-success HTTP status. 404 and 410 match
// fs.ErrNotExist under errors.Is.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound || e.Code == http.StatusGone {
		return fs.ErrNotExist
	}
	return nil
}

// Source reads one URL through a Client.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// String returns the URL.
func (s *Source) String() string { return s.url }

// Check fetches the first byte of the URL to confirm it exists. An empty
// resource passes; reading it later yields an empty input.
func (s *Source) Check(ctx context.Context) error {
	_, err := s.client.Prefix(ctx, s.url, 1)
	return err
}

// Open starts the download and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
