package discovery

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func serverPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}
	return port
}

func TestProbeHealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	p := NewProber(DefaultProbeTimeout)
	if !p.Probe(context.Background(), ts.URL) {
		t.Fatalf("expected healthy probe against %s", ts.URL)
	}
}

func TestProbeNon2xxIsUnhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	p := NewProber(DefaultProbeTimeout)
	if p.Probe(context.Background(), ts.URL) {
		t.Fatalf("expected unhealthy probe on 503")
	}
}

func TestProbeUnreachableIsFalse(t *testing.T) {
	port := freePort(t)
	p := NewProber(DefaultProbeTimeout)
	if p.Probe(context.Background(), fmt.Sprintf("http://127.0.0.1:%d", port)) {
		t.Fatalf("expected false for closed port %d", port)
	}
}

func TestProbeNeverHangsPastTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer ts.Close()
	p := NewProber(300 * time.Millisecond)
	start := time.Now()
	if p.Probe(context.Background(), ts.URL) {
		t.Fatalf("expected false from stalled server")
	}
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Fatalf("probe exceeded timeout bound: %s", elapsed)
	}
}
