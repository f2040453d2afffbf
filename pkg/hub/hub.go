package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var DebugLog func(string, ...interface{})

const modelAPIBase = "https://huggingface.co/api/models/"

type Session struct {
	Client *http.Client
}

type LoggingTransport struct {
	Transport http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if DebugLog != nil {
		DebugLog("requesting url: %s", req.URL.String())
	}

	resp, err := t.Transport.RoundTrip(req)

	if DebugLog != nil {
		if err != nil {
			DebugLog("hub request failed: %v", err)
		} else {
			DebugLog("response for %s: status code %d", req.URL.String(), resp.StatusCode)

			if resp.StatusCode >= 400 && resp.Body != nil {
				bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 500))
				if readErr == nil && len(bodyBytes) > 0 {
					DebugLog("error response body: %s", string(bodyBytes))
				}
			}
		}
	}

	return resp, err
}

func New(timeout time.Duration) *Session {
	baseTransport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	var transport http.RoundTripper = baseTransport
	if DebugLog != nil {
		transport = &LoggingTransport{Transport: baseTransport}
	}

	return &Session{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// IsLocal reports whether a model identifier points at a checkpoint on disk
// rather than a hub repository id.
func IsLocal(model string) bool {
	if strings.HasPrefix(model, "/") || strings.HasPrefix(model, "./") || strings.HasPrefix(model, "../") {
		return true
	}
	_, err := os.Stat(model)
	return err == nil
}

// CheckModel verifies a hub model id exists before a run burns GPU time on
// it. Local checkpoint paths are checked on disk instead.
func (s *Session) CheckModel(ctx context.Context, model string) error {
	if IsLocal(model) {
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("local checkpoint not found: %s", model)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelAPIBase+model, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "quantbench")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("hub request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("model %s not found on the hub", model)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("model %s is gated or private (status %d)", model, resp.StatusCode)
	default:
		return fmt.Errorf("unexpected status %d checking model %s", resp.StatusCode, model)
	}
}
