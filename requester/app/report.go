package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PeladoCollado/requester/requester/logger"
	"github.com/PeladoCollado/requester/types"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const reportPublishTimeout = 30 * time.Second

var reportClient = newReportClient()

func newReportClient() *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.RetryWaitMin = 100 * time.Millisecond
	client.Logger = leveledLogger{log: logger.Logger}
	return client.StandardClient()
}

// leveledLogger lets retryablehttp log through the shared zap logger.
type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}

func publishReport(ctx context.Context, reportURL string, report types.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, reportURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build run report request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := reportClient.Do(request)
	if err != nil {
		return fmt.Errorf("publish run report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg, readErr := io.ReadAll(io.LimitReader(resp.Body, 10000))
		if readErr != nil {
			errMsg = []byte(fmt.Sprintf("Unable to read error response body - %s", readErr.Error()))
		}
		return fmt.Errorf("run report rejected with status %d: %s", resp.StatusCode, string(errMsg))
	}
	return nil
}
