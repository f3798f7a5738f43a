package discovery

import (
	"context"

	"github.com/rs/zerolog"

	"kuuzukid/pkg/types"
)

// Locator composes the discovery steps in strict priority order:
// persisted descriptor first, then well-known ports, then the ephemeral
// sweep. The first success short-circuits the rest.
type Locator struct {
	Info    *InfoReader
	Scanner *Scanner
	Prober  *Prober // single-check prober, longer timeout than the scan prober
	Log     zerolog.Logger
}

// NewLocator wires a locator with default probers and port plan.
func NewLocator(stateDir string, log zerolog.Logger) *Locator {
	return &Locator{
		Info:    NewInfoReader(stateDir),
		Scanner: NewScanner(NewProber(DefaultScanProbeTimeout), log),
		Prober:  NewProber(DefaultProbeTimeout),
		Log:     log,
	}
}

// Find returns the base URL of a healthy server, or false when none is
// reachable. A descriptor record is never trusted on its own: its process may
// be alive but not yet listening, or listening for something else entirely,
// so the URL must answer a health probe before the scan is skipped.
// Descriptor read errors are logged and demoted to the scan fallback; a
// missing server is always a representable outcome here, never an error.
func (l *Locator) Find(ctx context.Context) (string, bool) {
	info, err := l.Info.Read()
	switch {
	case err != nil:
		l.Log.Warn().Err(err).Msg("server descriptor unusable, falling back to scan")
	case info != nil:
		if l.Prober.Probe(ctx, info.URL) {
			l.Log.Debug().Str("url", info.URL).Msg("descriptor URL answered healthy")
			return info.URL, true
		}
		l.Log.Debug().Str("url", info.URL).Uint32("pid", info.PID).Msg("descriptor stale, falling back to scan")
	}
	return l.Scanner.Scan(ctx)
}

// ReadInfo exposes the raw descriptor to the host shell.
func (l *Locator) ReadInfo() (*types.ServerInfo, error) {
	return l.Info.Read()
}
