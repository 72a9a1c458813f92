package netclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hopper/internal/logging"
	"hopper/internal/netclient"
	"hopper/internal/testsupport"
)

func TestGetJSONSetsUserAgent(t *testing.T) {
	var seenAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"hopper"}`))
	}))
	defer server.Close()

	client := netclient.Start(testsupport.NewConfig(t), logging.NewNop())
	defer client.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "hopper" {
		t.Fatalf("decoded name = %q, want %q", out.Name, "hopper")
	}
	if !strings.HasPrefix(seenAgent, "hopper/") {
		t.Fatalf("User-Agent = %q, want hopper/ prefix", seenAgent)
	}
}

func TestGetJSONRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	client := netclient.Start(testsupport.NewConfig(t), logging.NewNop())
	defer client.Close()

	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("GetJSON succeeded on 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q does not carry the status code", err)
	}
}
