// Package gateway implements the uniform HTTP client abstraction over the
// Explorer and Node upstreams: one request/response cycle, header
// injection, timeouts, JSON decode, and error classification into
// apierror.Error. It never retries; retry policy belongs to whichever
// engine needs it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
)

// Upstream selects which REST API a RequestSpec targets.
type Upstream int

const (
	Explorer Upstream = iota
	Node
)

func (u Upstream) String() string {
	if u == Node {
		return "node"
	}
	return "explorer"
}

// Method is the HTTP method of a RequestSpec.
type Method string

const (
	GET  Method = "GET"
	POST Method = "POST"
)

// RequestSpec describes one call: endpoint path, method, query parameters,
// and an optional JSON body. Built per call; short-lived.
type RequestSpec struct {
	Path   string
	Method Method
	Query  map[string]string
	Body   interface{}
}

// Gateway issues RequestSpecs against the configured upstreams.
type Gateway struct {
	cfg    *config.Config
	log    logger.Logger
	client *http.Client
}

// New builds a Gateway sharing a single http.Client across both upstreams.
func New(cfg *config.Config, log logger.Logger) *Gateway {
	return &Gateway{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *Gateway) upstreamConfig(u Upstream) config.UpstreamConfig {
	if u == Node {
		return g.cfg.Node
	}
	return g.cfg.Explorer
}

// Call issues a single RequestSpec against the given upstream, returning a
// decoded JSON value or a typed *apierror.Error. timeout, when positive,
// overrides the upstream's default.
func (g *Gateway) Call(ctx context.Context, u Upstream, spec RequestSpec, timeout time.Duration) (interface{}, error) {
	uc := g.upstreamConfig(u)
	if timeout <= 0 {
		timeout = uc.Timeout
	}

	endpoint := fmt.Sprintf("%s/%s", u, spec.Path)

	reqURL, err := buildURL(uc.BaseURL, spec.Path, spec.Query)
	if err != nil {
		return nil, apierror.Wrap(apierror.InputValidation, endpoint, err, "malformed request URL")
	}

	var bodyReader io.Reader
	if spec.Body != nil {
		encoded, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, apierror.Wrap(apierror.InputValidation, endpoint, err, "failed to encode request body")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, string(spec.Method), reqURL, bodyReader)
	if err != nil {
		return nil, apierror.Wrap(apierror.TransportFailure, endpoint, err, "failed to build request")
	}
	httpReq.Header.Set("User-Agent", uc.UserAgent)
	if spec.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if u == Node && uc.APIKey != "" {
		httpReq.Header.Set("api_key", uc.APIKey)
	}

	g.log.Debugf("gateway: %s %s params=%v body=%v", spec.Method, reqURL, spec.Query, redactBody(spec.Body))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if reqCtx.Err() == context.Canceled {
			return nil, apierror.Cancelledf(endpoint)
		}
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, apierror.Wrap(apierror.TransportFailure, endpoint, err, "request timeout after %s", timeout)
		}
		return nil, apierror.Wrap(apierror.TransportFailure, endpoint, err, "transport error")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.Wrap(apierror.TransportFailure, endpoint, err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Debugf("gateway: %s %s -> status %d body=%s", spec.Method, reqURL, resp.StatusCode, truncateForLog(raw))
		if resp.StatusCode == http.StatusNotFound {
			return nil, apierror.NotFoundf(endpoint, "not found: %s", spec.Path)
		}
		return nil, apierror.HTTPStatus(endpoint, resp.StatusCode)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		g.log.Infof("gateway: %s %s -> %d (empty body)", spec.Method, reqURL, resp.StatusCode)
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		g.log.Debugf("gateway: %s %s -> decode failure body=%s", spec.Method, reqURL, truncateForLog(raw))
		return nil, apierror.Wrap(apierror.DecodeFailure, endpoint, err, "response body is not valid JSON")
	}

	g.log.Infof("gateway: %s %s -> %d (%d bytes)", spec.Method, reqURL, resp.StatusCode, len(raw))
	return decoded, nil
}

func buildURL(base, path string, query map[string]string) (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s", trimTrailingSlash(base), trimLeadingSlash(path)))
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

func truncateForLog(raw []byte) string {
	const max = 2000
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "...(truncated)"
}

// redactBody returns a loggable form of a request body, obfuscating any
// api_key-shaped field to its first four characters.
func redactBody(body interface{}) interface{} {
	if body == nil {
		return nil
	}
	m, ok := body.(map[string]interface{})
	if !ok {
		return body
	}
	redacted := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "api_key" || k == "apiKey" {
			if s, ok := v.(string); ok {
				redacted[k] = redactedPrefix(s)
				continue
			}
		}
		redacted[k] = v
	}
	return redacted
}

func redactedPrefix(s string) string {
	if len(s) <= 4 {
		return s + "..."
	}
	return s[:4] + "..."
}

// QueryInt formats an integer query parameter value.
func QueryInt(n int) string {
	return strconv.Itoa(n)
}
