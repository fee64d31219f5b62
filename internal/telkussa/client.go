// Package telkussa is the HTTP client for the remote TV schedule API.
package telkussa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const (
	DefaultBaseURL   = "https://telkussa.fi/API"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	DefaultTimeout   = 15 * time.Second
)

var dateRe = regexp.MustCompile(`^\d{8}$`)

// Client fetches channel lists and daily schedules. It never retries;
// retry policy belongs to the caller.
type Client struct {
	client     *http.Client
	apiBaseURL string
	userAgent  string
}

// New creates a Client. Empty values fall back to the defaults.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:     &http.Client{Timeout: timeout},
		apiBaseURL: baseURL,
		userAgent:  userAgent,
	}
}

// FetchChannelList returns every channel the source knows about.
func (c *Client) FetchChannelList(ctx context.Context) ([]RawChannel, error) {
	var channels []RawChannel
	if err := c.getJSON(ctx, fmt.Sprintf("%s/Channels", c.apiBaseURL), &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// FetchChannelPrograms returns the schedule of one channel for one day.
// An empty array is a valid result.
func (c *Client) FetchChannelPrograms(ctx context.Context, channelID, date string) ([]RawProgram, error) {
	if !dateRe.MatchString(date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	endpoint := fmt.Sprintf("%s/Channel/%s/%s", c.apiBaseURL, url.PathEscape(channelID), date)

	// Elements are decoded one by one so a single bad record does not
	// cost the whole channel/date.
	var elems []json.RawMessage
	if err := c.getJSON(ctx, endpoint, &elems); err != nil {
		return nil, err
	}
	programs := make([]RawProgram, 0, len(elems))
	for i, elem := range elems {
		var p RawProgram
		if err := json.Unmarshal(elem, &p); err != nil {
			p = RawProgram{DecodeErr: fmt.Errorf("element %d: %w", i, err)}
		}
		programs = append(programs, p)
	}
	return programs, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{URL: endpoint, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "fi-FI,fi;q=0.9,en;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return &RemoteError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: endpoint, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: endpoint, Err: err}
	}
	return nil
}
