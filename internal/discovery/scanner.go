package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWellKnownPorts are the ports the kuuzuki server commonly binds,
// probed in priority order before the ephemeral sweep.
var DefaultWellKnownPorts = []int{4096, 3000, 8080, 8000, 5000}

// Ephemeral sweep defaults: [30000, 50000) in strides of 100, probing the
// first 10 ports of each stride concurrently. Batching bounds worst-case
// scan time to roughly (range/stride) probe timeouts instead of one per port.
const (
	DefaultScanStart  = 30000
	DefaultScanEnd    = 50000
	DefaultScanStride = 100
	DefaultScanBatch  = 10
)

// Scanner sweeps the local port space for a healthy kuuzuki server.
type Scanner struct {
	Prober    *Prober
	Hostname  string
	WellKnown []int
	Start     int
	End       int
	Stride    int
	Batch     int
	Log       zerolog.Logger
}

// NewScanner builds a scanner with the default port plan. The prober should
// carry the short scan timeout so a full sweep stays bounded.
func NewScanner(prober *Prober, log zerolog.Logger) *Scanner {
	return &Scanner{
		Prober:    prober,
		Hostname:  "127.0.0.1",
		WellKnown: DefaultWellKnownPorts,
		Start:     DefaultScanStart,
		End:       DefaultScanEnd,
		Stride:    DefaultScanStride,
		Batch:     DefaultScanBatch,
		Log:       log,
	}
}

func (s *Scanner) baseURL(port int) string {
	host := s.Hostname
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// Scan probes well-known ports in order, then sweeps the ephemeral range.
// Returns the first healthy base URL, or false when the space is exhausted.
// Not finding a server is a normal outcome, never an error.
func (s *Scanner) Scan(ctx context.Context) (string, bool) {
	start := time.Now()
	defer func() { scanDuration.Observe(time.Since(start).Seconds()) }()

	if url, ok := s.scanWellKnown(ctx); ok {
		scansTotal.WithLabelValues("found").Inc()
		return url, true
	}
	if url, ok := s.scanEphemeral(ctx); ok {
		scansTotal.WithLabelValues("found").Inc()
		return url, true
	}
	scansTotal.WithLabelValues("exhausted").Inc()
	return "", false
}

// scanWellKnown checks the priority list sequentially so the common case
// stays cheap and ordering stays deterministic.
func (s *Scanner) scanWellKnown(ctx context.Context) (string, bool) {
	for _, port := range s.WellKnown {
		if ctx.Err() != nil {
			return "", false
		}
		url := s.baseURL(port)
		if s.Prober.Probe(ctx, url) {
			s.Log.Debug().Str("url", url).Msg("found server on well-known port")
			return url, true
		}
	}
	return "", false
}

// scanEphemeral sweeps [Start, End) stride by stride. Each stride fans out a
// batch of concurrent probes and waits for all of them; if several ports in
// one batch are healthy, whichever probe completed first wins. That tie-break
// is non-deterministic and accepted: at most one kuuzuki server is expected.
func (s *Scanner) scanEphemeral(ctx context.Context) (string, bool) {
	for origin := s.Start; origin < s.End; origin += s.Stride {
		if ctx.Err() != nil {
			return "", false
		}
		// The final stride may be narrower than a full batch; never probe
		// past the declared end of the range.
		limit := origin + s.Batch
		if limit > s.End {
			limit = s.End
		}
		results := make(chan string, limit-origin)
		var wg sync.WaitGroup
		for port := origin; port < limit; port++ {
			port := port
			wg.Add(1)
			go func() {
				defer wg.Done()
				url := s.baseURL(port)
				if s.Prober.Probe(ctx, url) {
					results <- url
				}
			}()
		}
		wg.Wait()
		close(results)
		if url, ok := <-results; ok {
			s.Log.Debug().Str("url", url).Msg("found server in ephemeral range")
			return url, true
		}
	}
	return "", false
}
