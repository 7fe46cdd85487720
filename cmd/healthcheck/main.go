// Command healthcheck probes the passlink health endpoint and exits non-zero
// when the service is not serving. It is meant for container HEALTHCHECKs on
// images without a shell or curl.
package main

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultAddr = "127.0.0.1:8080"

func main() {
	os.Exit(check(healthURL(os.Getenv("PASSLINK_LISTEN_ADDR"))))
}

func check(target string) int {
	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func healthURL(listenAddr string) string {
	u := url.URL{Scheme: "http", Host: loopback(listenAddr), Path: "/api/health"}
	return u.String()
}

// loopback rewrites a bind-all listen address to loopback, as the probe runs
// inside the same container as the server.
func loopback(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}
