package testhelpers

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// FreePort returns a TCP port that was free a moment ago.
func FreePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer l.Close()
	_, port, _ := net.SplitHostPort(l.Addr().String())
	return port
}

// WaitForHealth polls <baseURL>/healthz until it answers below 400.
func WaitForHealth(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = CheckHealth(baseURL); lastErr == nil {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("health check timeout after %v: %w", timeout, lastErr)
}

// CheckHealth performs a single health check.
func CheckHealth(baseURL string) error {
	resp, err := http.Get(strings.TrimSuffix(baseURL, "/") + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unhealthy: %d", resp.StatusCode)
	}
	return nil
}
