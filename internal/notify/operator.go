package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"reviewrota/internal/pkg/logger"
)

// OperatorReporter funnels internal failures to an ops webhook. Best-effort:
// a report that cannot be delivered is logged and dropped, never propagated.
type OperatorReporter struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

func NewOperatorReporter(url string, timeout time.Duration, logger *logger.Logger) *OperatorReporter {
	return &OperatorReporter{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Component("notify/operator"),
	}
}

type operatorReport struct {
	Title   string            `json:"title"`
	Details map[string]string `json:"details,omitempty"`
	Error   string            `json:"error"`
	At      time.Time         `json:"at"`
}

func (o *OperatorReporter) Report(ctx context.Context, title string, details map[string]string, err error) {
	o.logger.Error("operator report",
		"title", title,
		"details", details,
		"error", err,
	)

	if o.url == "" {
		return
	}

	report := operatorReport{
		Title:   title,
		Details: details,
		At:      time.Now(),
	}
	if err != nil {
		report.Error = err.Error()
	}

	body, merr := json.Marshal(report)
	if merr != nil {
		o.logger.Warn("failed to marshal operator report", "error", merr)
		return
	}

	req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if rerr != nil {
		o.logger.Warn("failed to build operator report request", "error", rerr)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, derr := o.client.Do(req)
	if derr != nil {
		o.logger.Warn("failed to deliver operator report", "error", derr)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		o.logger.Warn("operator webhook rejected report", "status", resp.StatusCode)
	}
}
