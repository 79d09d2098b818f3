package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/prompttemplate"
)

// Webhook issues one HTTP call built from the step input: URL/Headers
// support "{var}" substitution from the input object and "{ctx.var}"
// substitution from context variables, independently of the
// dataMapping path grammar the edge/condition layer uses. BodyTemplate
// takes precedence over BodyKey (a single input field used as the raw
// body) when both are set.
type Webhook struct {
	NodeID         string
	URL            string
	Method         string
	Headers        map[string]string
	BodyTemplate   string
	BodyKey        string
	TimeoutMs      int
	ExpectedStatus []int
	ResponseType   string // "json" | "text" | "binary"
	Client         *http.Client
}

func (w *Webhook) ID() string { return w.NodeID }

func (w *Webhook) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	method := strings.ToUpper(w.Method)
	if method == "" {
		method = "GET"
	}
	input := wctx.OutputData

	url := prompttemplate.Substitute(w.URL, input, wctx)

	var bodyStr string
	if w.BodyTemplate != "" {
		bodyStr = prompttemplate.Substitute(w.BodyTemplate, input, wctx)
	} else if w.BodyKey != "" {
		if v, ok := input.Get(w.BodyKey); ok {
			bodyStr = v.AsString()
		}
	}
	var body io.Reader
	if bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	timeout := time.Duration(w.TimeoutMs) * time.Millisecond
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nodeErr(graph.KindWebhookError, w.NodeID, "failed to build webhook request", err)
	}
	for k, v := range w.Headers {
		req.Header.Set(k, prompttemplate.Substitute(v, input, wctx))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nodeErr(graph.KindWebhookError, w.NodeID, "webhook request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	expected := w.ExpectedStatus
	if len(expected) == 0 {
		expected = []int{200, 201, 202}
	}
	if !containsInt(expected, resp.StatusCode) {
		return nodeErr(graph.KindWebhookError, w.NodeID, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nodeErr(graph.KindWebhookError, w.NodeID, "failed to read webhook response", err)
	}

	var out graph.Value
	switch w.ResponseType {
	case "json":
		var native interface{}
		if err := json.Unmarshal(raw, &native); err != nil {
			return nodeErr(graph.KindWebhookError, w.NodeID, "failed to parse json response", err)
		}
		out = graph.FromNative(native)
	case "binary":
		out = graph.Object(map[string]graph.Value{
			"status_code": graph.Number(float64(resp.StatusCode)),
			"byte_length": graph.Number(float64(len(raw))),
		})
	default: // "text"
		out = graph.Object(map[string]graph.Value{
			"status_code": graph.Number(float64(resp.StatusCode)),
			"body":        graph.String(string(raw)),
		})
	}
	return graph.NodeResult{Output: out}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
