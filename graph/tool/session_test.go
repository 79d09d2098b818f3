package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPExecutorSubstitutesURLAndHeaders(t *testing.T) {
	var gotPath, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("X-Order-Id")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	spec := &HttpToolSpec{
		Name:        "lookup-order",
		Method:      "GET",
		URLTemplate: srv.URL + "/orders/{id}",
		Headers:     map[string]string{"X-Order-Id": "{id}"},
	}
	exec := NewHTTPExecutor(spec, nil)

	out, err := exec.Call(context.Background(), map[string]interface{}{"id": "42"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotPath != "/orders/42" {
		t.Fatalf("expected substituted path, got %q", gotPath)
	}
	if gotHeader != "42" {
		t.Fatalf("expected substituted header, got %q", gotHeader)
	}
	if out["status_code"] != http.StatusOK {
		t.Fatalf("expected 200, got %v", out["status_code"])
	}
	if out["body"] != `{"ok":true}` {
		t.Fatalf("unexpected body: %v", out["body"])
	}
}

func TestHTTPExecutorDefaultsMethodToGET(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	spec := &HttpToolSpec{Name: "ping", URLTemplate: srv.URL}
	exec := NewHTTPExecutor(spec, nil)

	if _, err := exec.Call(context.Background(), map[string]interface{}{}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Fatalf("expected default GET method, got %q", gotMethod)
	}
}

func TestHTTPExecutorReusesSessionManagerClientPerHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sm := NewSessionManager()
	spec := &HttpToolSpec{Name: "ping", URLTemplate: srv.URL}
	exec := NewHTTPExecutor(spec, sm)

	if _, err := exec.Call(context.Background(), map[string]interface{}{}); err != nil {
		t.Fatalf("first Call: %v", err)
	}
	if _, err := exec.Call(context.Background(), map[string]interface{}{}); err != nil {
		t.Fatalf("second Call: %v", err)
	}
	if len(sm.clients) != 1 {
		t.Fatalf("expected one pooled client per host, got %d", len(sm.clients))
	}
	sm.Close()
}

func TestHTTPExecutorReturnsErrorOnServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	spec := &HttpToolSpec{Name: "flaky", URLTemplate: srv.URL}
	exec := NewHTTPExecutor(spec, nil)

	out, err := exec.Call(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected a 503 response to surface as an error")
	}
	if out["status_code"] != http.StatusServiceUnavailable {
		t.Fatalf("expected the result to still carry status_code, got %v", out["status_code"])
	}
}

func TestSubstituteVarsLeavesUnmatchedPlaceholdersUntouched(t *testing.T) {
	out := substituteVars("/orders/{id}/items/{missing}", map[string]interface{}{"id": 7})
	if out != "/orders/7/items/{missing}" {
		t.Fatalf("unexpected substitution result: %q", out)
	}
}
