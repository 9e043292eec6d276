package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/PeladoCollado/requester/requester/logger"
)

const maxDelay = 30 * time.Second

type statusResponse struct {
	Code   int    `json:"code"`
	Delay  string `json:"delay"`
	Method string `json:"method"`
	Size   int64  `json:"requestBytes"`
}

func main() {
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: newMux(),
	}
	logger.Logger.Infow("Target service listening", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Logger.Fatalw("Target service failed", "error", err)
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", statusHandler)
	mux.HandleFunc("/healthz", healthHandler)
	return mux
}

// statusHandler answers with the code from ?code= (200 by default) after
// sleeping for ?delay= so runs can produce a chosen code histogram.
func statusHandler(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if value := r.URL.Query().Get("code"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 200 || parsed > 599 {
			http.Error(w, fmt.Sprintf("invalid status code %q", value), http.StatusBadRequest)
			return
		}
		code = parsed
	}

	var delay time.Duration
	if value := r.URL.Query().Get("delay"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < 0 || parsed > maxDelay {
			http.Error(w, fmt.Sprintf("invalid delay %q", value), http.StatusBadRequest)
			return
		}
		delay = parsed
	}

	size, _ := drain(r)
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method == http.MethodHead || code == http.StatusNoContent || code == http.StatusNotModified {
		return
	}
	_ = json.NewEncoder(w).Encode(statusResponse{
		Code:   code,
		Delay:  delay.String(),
		Method: r.Method,
		Size:   size,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func drain(r *http.Request) (int64, error) {
	if r.Body == nil {
		return 0, nil
	}
	return io.Copy(io.Discard, r.Body)
}
