// Package backend talks to an NRDP endpoint, the HTTP front door for
// passive results on a Nagios server.
package backend

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// NRDP prefixes commands with its own timestamp.
var commandTimestamp = regexp.MustCompile(`^\[\d+\]\s*`)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient constructs an NRDP client authenticating with token.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	normalizedURL, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	if token == "" {
		return nil, errors.New("nrdp token is required")
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: normalizedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token: token,
	}, nil
}

// WithHTTPClient overrides the default http.Client. Primarily useful for testing.
func (c *Client) WithHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

// SubmitCommand sends one external command line, such as a formatted
// PROCESS_SERVICE_CHECK_RESULT line.
func (c *Client) SubmitCommand(ctx context.Context, command string) error {
	command = commandTimestamp.ReplaceAllString(strings.TrimSpace(command), "")
	if command == "" {
		return errors.New("command is required")
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("cmd", "submitcmd")
	form.Set("command", command)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create submitcmd request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out result
	if err := c.do(req, &out); err != nil {
		return err
	}

	if out.Status != 0 {
		return fmt.Errorf("nrdp rejected command: status %d: %s", out.Status, out.Message)
	}

	return nil
}

type result struct {
	XMLName xml.Name `xml:"result"`
	Status  int      `xml:"status"`
	Message string   `xml:"message"`
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("nrdp URL is required")
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid nrdp URL: %w", err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid nrdp URL: %s", raw)
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			host := req.URL.Hostname()
			return fmt.Errorf("execute request: network error contacting %s: %w", host, err)
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		if len(b) == 0 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
