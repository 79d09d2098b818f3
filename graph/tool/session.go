package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentgraph/workflow/graph"
)

// SessionManager owns one pooled *http.Client per host so HTTP tool calls
// reuse keep-alive connections instead of paying a new TCP+TLS handshake
// per call, mirroring a long-lived aiohttp ClientSession.
type SessionManager struct {
	mu      sync.Mutex
	clients map[string]*http.Client

	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		clients:             make(map[string]*http.Client),
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
}

// clientFor returns the pooled client for host, creating one on first use.
func (sm *SessionManager) clientFor(host string) *http.Client {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if c, ok := sm.clients[host]; ok {
		return c
	}
	c := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: sm.MaxIdleConnsPerHost,
			IdleConnTimeout:     sm.IdleConnTimeout,
		},
	}
	sm.clients[host] = c
	return c
}

// Close evicts every pooled client's idle connections, used at process
// shutdown.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, c := range sm.clients {
		c.CloseIdleConnections()
	}
}

// HTTPExecutor is a Tool backed by an HttpToolSpec, executed through a
// shared SessionManager. It generalizes the teacher's HTTPTool by
// resolving a URL template against the call's input instead of requiring
// the caller to pass a literal URL.
type HTTPExecutor struct {
	spec    *HttpToolSpec
	session *SessionManager
}

func NewHTTPExecutor(spec *HttpToolSpec, session *SessionManager) *HTTPExecutor {
	if session == nil {
		session = NewSessionManager()
	}
	return &HTTPExecutor{spec: spec, session: session}
}

func (h *HTTPExecutor) Name() string { return h.spec.Name }

func (h *HTTPExecutor) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	method := strings.ToUpper(h.spec.Method)
	if method == "" {
		method = "GET"
	}
	url := substituteVars(h.spec.URLTemplate, input)

	var body io.Reader
	if b, ok := input["body"].(string); ok && b != "" {
		body = bytes.NewBufferString(b)
	}

	if h.spec.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.spec.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range h.spec.Headers {
		req.Header.Set(k, substituteVars(v, input))
	}

	client := h.session.clientFor(req.URL.Host)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]interface{}, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}

	result := map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        string(respBody),
	}

	if resp.StatusCode >= 400 {
		return result, graph.NewError(graph.KindToolExecutionError, fmt.Sprintf("http %s %s: status %d", method, url, resp.StatusCode)).
			WithDetail("status_code", resp.StatusCode)
	}
	return result, nil
}

// substituteVars replaces every "{field}" occurrence in s with
// input[field]'s string form, used for both URL templates and webhook
// node target URLs.
func substituteVars(s string, input map[string]interface{}) string {
	if !strings.Contains(s, "{") {
		return s
	}
	out := s
	for k, v := range input {
		out = strings.ReplaceAll(out, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return out
}
