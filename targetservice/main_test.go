package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStatusHandlerDefaultsToOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader("hello"))
	resp := httptest.NewRecorder()

	statusHandler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	var body statusResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unable to decode response: %v", err)
	}
	if body.Method != http.MethodPost || body.Size != 5 {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestStatusHandlerReturnsRequestedCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status?code=503", nil)
	resp := httptest.NewRecorder()

	statusHandler(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, resp.Code)
	}
}

func TestStatusHandlerDelays(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status?delay=20ms", nil)
	resp := httptest.NewRecorder()

	start := time.Now()
	statusHandler(resp, req)

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected at least 20ms delay, got %s", elapsed)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
}

func TestStatusHandlerRejectsBadParams(t *testing.T) {
	for _, target := range []string{"/status?code=abc", "/status?code=99", "/status?code=600", "/status?delay=soon", "/status?delay=1h"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()

		statusHandler(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	server := httptest.NewServer(newMux())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
