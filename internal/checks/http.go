package checks

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

// HTTP requests a URL and reports OK (UP) below status 400, CRITICAL (DOWN)
// otherwise or when the request fails.
type HTTP struct {
	kind    status.Kind
	method  string
	url     string
	body    string
	headers map[string]string
	timeout time.Duration
	client  *http.Client
}

// NewHTTP reads "url", or builds it from the host, port, use_ssl and the
// "path" param. "method", "body", "headers" and "timeout" are optional.
func NewHTTP(kind status.Kind, cfg plugin.Config) (plugin.Measurer, error) {
	params := cfg.Blob

	target, err := prepareURL(stringParam(params, "url", ""), cfg, stringParam(params, "path", "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: http: %v", plugin.ErrConfiguration, err)
	}

	timeout := durationParam(params, "timeout", 10*time.Second)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	headers := make(map[string]string)
	if raw, ok := params["headers"].(map[string]any); ok {
		for key, value := range raw {
			headers[key] = fmt.Sprintf("%v", value)
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifySSL} //nolint:gosec

	return &HTTP{
		kind:    kind,
		method:  strings.ToUpper(stringParam(params, "method", http.MethodGet)),
		url:     target,
		body:    stringParam(params, "body", ""),
		headers: headers,
		timeout: timeout,
		client:  &http.Client{Transport: transport},
	}, nil
}

func (h *HTTP) Measure(ctx context.Context) (status.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, h.method, h.url, strings.NewReader(h.body))
	if err != nil {
		return nil, err
	}
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return newResult(h.kind, outcome(h.kind, false), fmt.Sprintf("%s %s failed: %v", h.method, h.url, err)), nil
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	healthy := resp.StatusCode < http.StatusBadRequest
	return newResult(h.kind, outcome(h.kind, healthy), fmt.Sprintf("%s %s returned %s", h.method, h.url, resp.Status)), nil
}

func prepareURL(raw string, cfg plugin.Config, path string) (string, error) {
	if raw == "" {
		if cfg.Host == "" {
			return "", fmt.Errorf("empty target")
		}
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		host := cfg.Host
		if cfg.Port > 0 {
			host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		}
		raw = scheme + "://" + host + path
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", raw)
	}

	return parsed.String(), nil
}
