package discovery

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultProbeTimeout bounds a single health check.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultScanProbeTimeout bounds each probe inside a wide port scan,
	// keeping worst-case scan latency proportional to batches, not ports.
	DefaultScanProbeTimeout = 1 * time.Second
)

// Prober issues bounded health checks against candidate base URLs.
// Connection failures are ordinary outcomes of probing an absent server,
// never errors.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// NewProber builds a prober whose requests never outlive timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Prober{
		client:  &http.Client{Transport: tr, Timeout: timeout},
		timeout: timeout,
	}
}

// Timeout returns the configured per-probe bound.
func (p *Prober) Timeout() time.Duration { return p.timeout }

// Probe reports whether baseURL answers 2xx on its /health endpoint.
// Any transport error, timeout, or non-2xx status yields false.
func (p *Prober) Probe(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		probesTotal.WithLabelValues("unreachable").Inc()
		return false
	}
	defer resp.Body.Close()
	healthy := resp.StatusCode/100 == 2
	if healthy {
		probesTotal.WithLabelValues("healthy").Inc()
	} else {
		probesTotal.WithLabelValues("unhealthy").Inc()
	}
	return healthy
}
