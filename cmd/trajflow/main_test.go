package main

import (
	"errors"
	"testing"

	"github.com/trajflow/engine/internal/httputil"
	"github.com/trajflow/engine/internal/testutil"
)

func TestPostRunSummarySendsJSONBody(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.AddResponse(200, `{"ok":true}`)

	err := postRunSummary(client, "https://example.invalid/webhook", runSummary{
		RunID:   "run-1",
		Objects: 3,
		Flocks:  2,
	})
	testutil.AssertNoError(t, err)

	if client.RequestCount() != 1 {
		t.Fatalf("RequestCount() = %d, want 1", client.RequestCount())
	}
	req := client.GetRequest(0)
	if req.URL.String() != "https://example.invalid/webhook" {
		t.Fatalf("request URL = %s, want the webhook URL", req.URL.String())
	}
}

func TestPostRunSummaryErrorsOnNonSuccessStatus(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.AddResponse(500, "boom")

	err := postRunSummary(client, "https://example.invalid/webhook", runSummary{RunID: "run-1"})
	testutil.AssertError(t, err)
}

func TestPostRunSummaryPropagatesTransportError(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	client.DefaultError = errors.New("connection refused")

	err := postRunSummary(client, "https://example.invalid/webhook", runSummary{RunID: "run-1"})
	testutil.AssertError(t, err)
}
