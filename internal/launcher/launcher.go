package launcher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kuuzukid/internal/discovery"
	"kuuzukid/pkg/types"
)

const (
	// DefaultPollInterval is how often a fresh spawn is re-checked for health.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultLaunchDeadline bounds the whole launch attempt, wall-clock from spawn.
	DefaultLaunchDeadline = 10 * time.Second
)

// Launcher locates a running kuuzuki server and starts one when none is
// reachable. Concurrent EnsureServer calls are not serialized: two callers
// that both observe no server may both spawn one, matching the behavior of
// the desktop shell this replaces. The health probe decides which instance
// callers end up talking to.
type Launcher struct {
	Locator *discovery.Locator

	// ServerBin overrides executable resolution when non-empty.
	ServerBin string

	PollInterval time.Duration
	Deadline     time.Duration

	Events EventPublisher
	Log    zerolog.Logger

	// spawn is swapped in tests.
	spawn SpawnFunc

	// ready records whether the most recent discovery attempt succeeded.
	ready int32
}

// New wires a launcher with default polling parameters and a no-op publisher.
func New(loc *discovery.Locator, log zerolog.Logger) *Launcher {
	return &Launcher{
		Locator:      loc,
		PollInterval: DefaultPollInterval,
		Deadline:     DefaultLaunchDeadline,
		Events:       noopPublisher{},
		Log:          log,
		spawn:        spawnServer,
	}
}

func (l *Launcher) pollInterval() time.Duration {
	if l.PollInterval > 0 {
		return l.PollInterval
	}
	return DefaultPollInterval
}

func (l *Launcher) deadline() time.Duration {
	if l.Deadline > 0 {
		return l.Deadline
	}
	return DefaultLaunchDeadline
}

func (l *Launcher) spawnFn() SpawnFunc {
	if l.spawn != nil {
		return l.spawn
	}
	return spawnServer
}

func (l *Launcher) events() EventPublisher {
	if l.Events != nil {
		return l.Events
	}
	return noopPublisher{}
}

// FindServer reports a healthy server's base URL without ever launching one.
func (l *Launcher) FindServer(ctx context.Context) (string, bool) {
	url, ok := l.Locator.Find(ctx)
	l.setReady(ok)
	return url, ok
}

// Ready reports whether the most recent discovery attempt found a healthy
// server. This backs the readiness endpoint; it never triggers discovery
// itself, so probing it stays cheap.
func (l *Launcher) Ready() bool {
	return atomic.LoadInt32(&l.ready) == 1
}

func (l *Launcher) setReady(ok bool) {
	if ok {
		atomic.StoreInt32(&l.ready, 1)
		return
	}
	atomic.StoreInt32(&l.ready, 0)
}

// ReadServerInfo exposes the persisted descriptor record.
func (l *Launcher) ReadServerInfo() (*types.ServerInfo, error) {
	return l.Locator.ReadInfo()
}

// CheckHealth probes an arbitrary base URL's health endpoint.
func (l *Launcher) CheckHealth(ctx context.Context, url string) bool {
	return l.Locator.Prober.Probe(ctx, url)
}

// EnsureServer returns the base URL of a healthy server, spawning one when
// discovery comes up empty. The fast path is idempotent: a reachable server
// means no process is ever created. After a spawn, discovery is re-polled on
// an interval until the server answers healthy or the deadline expires; an
// expired deadline terminates the spawned process so it is not orphaned.
func (l *Launcher) EnsureServer(ctx context.Context) (string, error) {
	if url, ok := l.FindServer(ctx); ok {
		l.Log.Debug().Str("url", url).Msg("server already running")
		launchesTotal.WithLabelValues("already_running").Inc()
		return url, nil
	}
	if err := ctx.Err(); err != nil {
		// The caller gave up during the failed fast path; spawning now
		// would only create a process the loop below immediately kills.
		launchesTotal.WithLabelValues("canceled").Inc()
		return "", err
	}

	bin, err := resolveServerBin(l.ServerBin)
	if err != nil {
		launchesTotal.WithLabelValues("resource_missing").Inc()
		return "", err
	}

	attempt := uuid.NewString()
	l.Log.Info().Str("bin", bin).Str("attempt", attempt).Msg("starting kuuzuki server")
	proc, err := l.spawnFn()(bin)
	if err != nil {
		launchesTotal.WithLabelValues("spawn_failed").Inc()
		return "", ErrSpawn(bin, err)
	}

	deadline := time.Now().Add(l.deadline())
	for {
		if time.Now().After(deadline) {
			if killErr := proc.Kill(); killErr != nil {
				// Best effort; an unkillable process is logged, not escalated.
				l.Log.Warn().Err(killErr).Int("pid", proc.Pid()).Str("attempt", attempt).Msg("could not terminate unhealthy server")
			}
			launchesTotal.WithLabelValues("timeout").Inc()
			return "", ErrLaunchTimeout(l.deadline())
		}
		if url, ok := l.FindServer(ctx); ok {
			l.events().Publish(Event{Name: EventServerStarted, URL: url, AttemptID: attempt})
			proc.Detach()
			launchesTotal.WithLabelValues("started").Inc()
			l.Log.Info().Str("url", url).Int("pid", proc.Pid()).Str("attempt", attempt).Msg("server became healthy")
			return url, nil
		}
		select {
		case <-ctx.Done():
			if killErr := proc.Kill(); killErr != nil {
				l.Log.Warn().Err(killErr).Int("pid", proc.Pid()).Msg("could not terminate server after cancellation")
			}
			launchesTotal.WithLabelValues("canceled").Inc()
			return "", ctx.Err()
		case <-time.After(l.pollInterval()):
		}
	}
}
