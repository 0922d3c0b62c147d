package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CleanupPath is the backend endpoint that releases session resources.
const CleanupPath = "/api/cleanup"

// Notifier tells the backend that a session has ended.
type Notifier interface {
	NotifyCleanup(ctx context.Context, sessionID string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, sessionID string) error

func (f NotifierFunc) NotifyCleanup(ctx context.Context, sessionID string) error {
	return f(ctx, sessionID)
}

// HTTPNotifier posts cleanup notifications to the backend API.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotifier creates a notifier for baseURL. A nil client uses
// http.DefaultClient, which imposes no timeout.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// CleanupURL returns the endpoint URL for sessionID.
func (n *HTTPNotifier) CleanupURL(sessionID string) string {
	return n.baseURL + CleanupPath + "?session_id=" + url.QueryEscape(sessionID)
}

// NotifyCleanup sends POST {base}/api/cleanup?session_id={id} with an empty
// body. Any status outside 2xx is an error; the response body is discarded.
func (n *HTTPNotifier) NotifyCleanup(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.CleanupURL(sessionID), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build cleanup request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send cleanup request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cleanup request failed with status %d", resp.StatusCode)
	}
	return nil
}
