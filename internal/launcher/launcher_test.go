package launcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"kuuzukid/internal/discovery"
)

type fakeProcess struct {
	killed   int32
	detached int32
}

func (p *fakeProcess) Pid() int    { return 4242 }
func (p *fakeProcess) Kill() error { atomic.StoreInt32(&p.killed, 1); return nil }
func (p *fakeProcess) Detach()     { atomic.StoreInt32(&p.detached, 1) }

type capturedEvents struct {
	mu     sync.Mutex
	events []Event
}

func (c *capturedEvents) Publish(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *capturedEvents) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// healthServer responds 200 on /health only while enabled.
type healthServer struct {
	ts      *httptest.Server
	port    int
	enabled int32
}

func newHealthServer(t *testing.T, enabled bool) *healthServer {
	t.Helper()
	hs := &healthServer{}
	if enabled {
		hs.enabled = 1
	}
	hs.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&hs.enabled) == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(hs.ts.Close)
	_, portStr, _ := splitHostPort(hs.ts.Listener.Addr().String())
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	hs.port = port
	return hs
}

func splitHostPort(addr string) (string, string, error) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], nil
		}
	}
	return addr, "", nil
}

// testLocator scans only the given well-known ports against an empty state dir.
func testLocator(t *testing.T, wellKnown []int) *discovery.Locator {
	t.Helper()
	l := discovery.NewLocator(t.TempDir(), zerolog.Nop())
	l.Scanner.WellKnown = wellKnown
	l.Scanner.Start = 0
	l.Scanner.End = 0
	return l
}

func existingBin(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "kuuzuki")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub bin: %v", err)
	}
	return p
}

func TestEnsureServerFastPathNeverSpawns(t *testing.T) {
	running := newHealthServer(t, true)
	l := New(testLocator(t, []int{running.port}), zerolog.Nop())
	events := &capturedEvents{}
	l.Events = events
	var spawned int32
	l.spawn = func(string) (ServerProcess, error) {
		atomic.AddInt32(&spawned, 1)
		return &fakeProcess{}, nil
	}

	url, err := l.EnsureServer(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if url != running.ts.URL {
		t.Fatalf("expected %s, got %s", running.ts.URL, url)
	}
	if atomic.LoadInt32(&spawned) != 0 {
		t.Fatal("fast path must not spawn a process")
	}
	if len(events.all()) != 0 {
		t.Fatalf("fast path must not emit events, got %v", events.all())
	}
}

func TestEnsureServerResourceError(t *testing.T) {
	l := New(testLocator(t, nil), zerolog.Nop())
	l.ServerBin = filepath.Join(t.TempDir(), "missing", "kuuzuki")
	_, err := l.EnsureServer(context.Background())
	if err == nil {
		t.Fatal("expected resource error")
	}
	if !IsResource(err) {
		t.Fatalf("expected resource error kind, got %v", err)
	}
}

func TestEnsureServerSpawnError(t *testing.T) {
	l := New(testLocator(t, nil), zerolog.Nop())
	l.ServerBin = existingBin(t)
	cause := errors.New("fork failed")
	l.spawn = func(string) (ServerProcess, error) { return nil, cause }
	_, err := l.EnsureServer(context.Background())
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if !IsSpawn(err) {
		t.Fatalf("expected spawn error kind, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("spawn error must wrap the OS cause: %v", err)
	}
}

func TestEnsureServerTimeoutKillsProcess(t *testing.T) {
	l := New(testLocator(t, []int{freeClosedPort(t)}), zerolog.Nop())
	l.ServerBin = existingBin(t)
	l.Deadline = 600 * time.Millisecond
	l.PollInterval = 100 * time.Millisecond
	proc := &fakeProcess{}
	l.spawn = func(string) (ServerProcess, error) { return proc, nil }

	start := time.Now()
	_, err := l.EnsureServer(context.Background())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error kind, got %v", err)
	}
	if elapsed < l.Deadline {
		t.Fatalf("returned before deadline: %s < %s", elapsed, l.Deadline)
	}
	if elapsed > l.Deadline+5*l.PollInterval {
		t.Fatalf("returned too long after deadline: %s", elapsed)
	}
	if atomic.LoadInt32(&proc.killed) != 1 {
		t.Fatal("timed-out process must be terminated")
	}
	if atomic.LoadInt32(&proc.detached) != 0 {
		t.Fatal("timed-out process must not be detached")
	}
}

func TestEnsureServerPollsUntilHealthy(t *testing.T) {
	server := newHealthServer(t, false)
	l := New(testLocator(t, []int{server.port}), zerolog.Nop())
	l.ServerBin = existingBin(t)
	l.PollInterval = 50 * time.Millisecond
	l.Deadline = 5 * time.Second
	events := &capturedEvents{}
	l.Events = events
	proc := &fakeProcess{}
	l.spawn = func(string) (ServerProcess, error) {
		// The "spawned server" comes up shortly after launch.
		go func() {
			time.Sleep(120 * time.Millisecond)
			atomic.StoreInt32(&server.enabled, 1)
		}()
		return proc, nil
	}

	url, err := l.EnsureServer(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if url != server.ts.URL {
		t.Fatalf("expected %s, got %s", server.ts.URL, url)
	}
	if atomic.LoadInt32(&proc.detached) != 1 {
		t.Fatal("healthy process must be detached")
	}
	if atomic.LoadInt32(&proc.killed) != 0 {
		t.Fatal("healthy process must not be killed")
	}
	got := events.all()
	if len(got) != 1 || got[0].Name != EventServerStarted || got[0].URL != url {
		t.Fatalf("expected one %s event carrying %s, got %v", EventServerStarted, url, got)
	}
	if got[0].AttemptID == "" {
		t.Fatal("event must carry the launch attempt id")
	}
}

func TestReadyReflectsLastDiscovery(t *testing.T) {
	server := newHealthServer(t, true)
	l := New(testLocator(t, []int{server.port}), zerolog.Nop())
	if l.Ready() {
		t.Fatal("expected not ready before any discovery")
	}
	if _, ok := l.FindServer(context.Background()); !ok {
		t.Fatal("expected server to be found")
	}
	if !l.Ready() {
		t.Fatal("expected ready after a successful locate")
	}
	atomic.StoreInt32(&server.enabled, 0)
	if _, ok := l.FindServer(context.Background()); ok {
		t.Fatal("expected server to be gone")
	}
	if l.Ready() {
		t.Fatal("expected not ready after the server went away")
	}
}

func TestEnsureServerPreCanceledContextNeverSpawns(t *testing.T) {
	l := New(testLocator(t, nil), zerolog.Nop())
	l.ServerBin = existingBin(t)
	var spawned int32
	l.spawn = func(string) (ServerProcess, error) {
		atomic.AddInt32(&spawned, 1)
		return &fakeProcess{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.EnsureServer(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if atomic.LoadInt32(&spawned) != 0 {
		t.Fatal("canceled caller must not cause a spawn")
	}
}

func TestEnsureServerCanceledContextKillsProcess(t *testing.T) {
	l := New(testLocator(t, []int{freeClosedPort(t)}), zerolog.Nop())
	l.ServerBin = existingBin(t)
	l.PollInterval = 50 * time.Millisecond
	l.Deadline = 10 * time.Second
	proc := &fakeProcess{}
	l.spawn = func(string) (ServerProcess, error) { return proc, nil }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := l.EnsureServer(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if atomic.LoadInt32(&proc.killed) != 1 {
		t.Fatal("canceled launch must terminate the process")
	}
}

func TestSanityCheck(t *testing.T) {
	l := New(testLocator(t, nil), zerolog.Nop())
	l.ServerBin = existingBin(t)
	r := l.SanityCheck()
	if !r.ServerFound || r.ServerPath != l.ServerBin {
		t.Fatalf("unexpected report: %+v", r)
	}
	l.ServerBin = filepath.Join(t.TempDir(), "nope")
	r = l.SanityCheck()
	if r.ServerFound || r.Error == "" {
		t.Fatalf("expected failing report, got %+v", r)
	}
}

func freeClosedPort(t *testing.T) int {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	_, portStr, _ := splitHostPort(ts.Listener.Addr().String())
	ts.Close()
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return port
}
