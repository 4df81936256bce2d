package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// newProxyFunc resolves proxies from explicit settings, falling back to the
// environment for any value left empty.
func newProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxyFor := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyFor(req.URL)
	}
}

// newHTTPClient builds the client shared by REST providers
func newHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: newProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}
}

// restClient talks JSON to a provider REST API
type restClient struct {
	provider string
	baseURL  string
	headers  map[string]string
	http     *http.Client
}

func newRESTClient(provider, baseURL string, headers map[string]string, config Config, defaultTimeout time.Duration) *restClient {
	return &restClient{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  headers,
		http:     newHTTPClient(config, defaultTimeout),
	}
}

// errorDecoder extracts the provider status label and message from an error body
type errorDecoder func(body []byte) (status, message string)

// postJSON sends in to path and decodes a 200 response into out. Any other
// status becomes an *APIError carrying the provider message when decodeErr finds one.
func (c *restClient) postJSON(ctx context.Context, path string, in, out any, decodeErr errorDecoder) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Provider: c.provider, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		if decodeErr != nil {
			if status, msg := decodeErr(data); msg != "" {
				apiErr.Status, apiErr.Message = status, msg
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", c.provider, err)
	}
	return nil
}

// ping reports whether GET path answers 200
func (c *restClient) ping(ctx context.Context, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
