package node

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentgraph/workflow/graph"
)

func TestWebhookSubstitutesURLAndParsesJSON(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"confirmed":true}`)
	}))
	defer srv.Close()

	wh := &Webhook{
		NodeID:       "call",
		URL:          srv.URL + "/orders/{order_id}",
		Method:       "GET",
		ResponseType: "json",
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"order_id": graph.String("42")})

	res := wh.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if gotPath != "/orders/42" {
		t.Fatalf("expected substituted path '/orders/42', got %q", gotPath)
	}
	confirmed, _ := res.Output.Get("confirmed")
	if !confirmed.Truthy() {
		t.Fatalf("expected confirmed true, got %v", res.Output.Native())
	}
}

func TestWebhookUnexpectedStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := &Webhook{NodeID: "call", URL: srv.URL, Method: "GET"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := wh.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected an error for unexpected status code")
	}
}

func TestWebhookTextResponseType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer srv.Close()

	wh := &Webhook{NodeID: "call", URL: srv.URL, Method: "GET", ResponseType: "text"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := wh.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	body, _ := res.Output.Get("body")
	if body.AsString() != "pong" {
		t.Fatalf("expected text body 'pong', got %v", res.Output.Native())
	}
}
