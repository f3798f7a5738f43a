package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kuuzukid/internal/config"
	"kuuzukid/internal/discovery"
	"kuuzukid/internal/httpapi"
	"kuuzukid/internal/launcher"
	"kuuzukid/pkg/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	serverBin  string
	stateDir   string
	hostname   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "kuuzukid",
		Short:         "Locate, launch, and supervise the local kuuzuki server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml/.yml/.json/.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envStr("KUUZUKID_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.serverBin, "server-bin", "", "Path to the kuuzuki executable (skips resolution)")
	root.PersistentFlags().StringVar(&opts.stateDir, "state-dir", "", "State directory override (defaults to XDG_STATE_HOME)")
	root.PersistentFlags().StringVar(&opts.hostname, "hostname", "", "Host probed during port scans (default 127.0.0.1)")

	root.AddCommand(
		newServeCmd(opts),
		newEnsureCmd(opts),
		newLocateCmd(opts),
		newInfoCmd(opts),
		newProbeCmd(opts),
		newSanityCmd(opts),
	)
	return root
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func buildLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

// loadConfig merges the optional config file with flags; flags win.
func loadConfig(opts *options) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("loading config %s: %w", opts.configPath, err)
		}
	}
	if opts.serverBin != "" {
		cfg.ServerBin = opts.serverBin
	}
	if opts.stateDir != "" {
		cfg.StateDir = opts.stateDir
	}
	if opts.hostname != "" {
		cfg.Hostname = opts.hostname
	}
	return cfg, nil
}

// buildLauncher assembles the discovery and launch pipeline from the merged
// configuration; unset values keep the package defaults.
func buildLauncher(cfg config.Config, log zerolog.Logger) *launcher.Launcher {
	loc := discovery.NewLocator(cfg.StateDir, log)
	if cfg.Hostname != "" {
		loc.Scanner.Hostname = cfg.Hostname
	}
	if len(cfg.WellKnownPorts) > 0 {
		loc.Scanner.WellKnown = cfg.WellKnownPorts
	}
	if cfg.ScanStart > 0 {
		loc.Scanner.Start = cfg.ScanStart
	}
	if cfg.ScanEnd > 0 {
		loc.Scanner.End = cfg.ScanEnd
	}
	if cfg.ScanStride > 0 {
		loc.Scanner.Stride = cfg.ScanStride
	}
	if cfg.ScanBatch > 0 {
		loc.Scanner.Batch = cfg.ScanBatch
	}
	if cfg.ScanTimeoutMS > 0 {
		loc.Scanner.Prober = discovery.NewProber(time.Duration(cfg.ScanTimeoutMS) * time.Millisecond)
	}
	if cfg.ProbeTimeoutMS > 0 {
		loc.Prober = discovery.NewProber(time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond)
	}

	l := launcher.New(loc, log)
	l.ServerBin = cfg.ServerBin
	if cfg.PollIntervalMS > 0 {
		l.PollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	if cfg.LaunchDeadlineMS > 0 {
		l.Deadline = time.Duration(cfg.LaunchDeadlineMS) * time.Millisecond
	}
	return l
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr        string
		corsEnabled bool
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor HTTP API for the host shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Addr == "" {
				cfg.Addr = addr
			}
			if corsEnabled {
				cfg.CORSEnabled = true
			}
			if corsOrigins != "" {
				cfg.CORSOrigins = splitCSV(corsOrigins)
			}

			hub := httpapi.NewHub()
			l := buildLauncher(cfg, log)
			l.Events = hub

			baseCtx, cancelBase := context.WithCancel(context.Background())
			defer cancelBase()
			httpapi.SetLogger(log)
			httpapi.SetBaseContext(baseCtx)
			httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

			srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(l, hub)}
			go func() {
				log.Info().Str("addr", cfg.Addr).Msg("kuuzukid listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			// Auto-start the kuuzuki server on launch the way the desktop
			// shell does. Failure is logged, not fatal: the host can retry
			// through POST /server/ensure.
			go func() {
				url, err := l.EnsureServer(baseCtx)
				if err != nil {
					log.Error().Err(err).Msg("initial server start failed")
					return
				}
				log.Info().Str("url", url).Msg("kuuzuki server available")
			}()

			// Graceful shutdown (Ctrl+C / SIGTERM)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			cancelBase()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envStr("KUUZUKID_ADDR", ":4900"), "HTTP listen address")
	cmd.Flags().BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS for the host shell webview")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed origins")
	return cmd
}

func newEnsureCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Return a healthy server URL, launching one if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			url, err := buildLauncher(cfg, log).EnsureServer(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(types.DiscoveredServer{URL: url})
		},
	}
}

func newLocateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Find a running server without launching one",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			url, ok := buildLauncher(cfg, log).FindServer(cmd.Context())
			return printJSON(types.LocateResponse{Found: ok, URL: url})
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Read the persisted server descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			info, err := buildLauncher(cfg, log).ReadServerInfo()
			if err != nil {
				return err
			}
			return printJSON(types.InfoResponse{Found: info != nil, Info: info})
		},
	}
}

func newProbeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>",
		Short: "Health-check a server base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reachable := buildLauncher(cfg, log).CheckHealth(cmd.Context(), args[0])
			return printJSON(types.HealthResponse{Reachable: reachable})
		},
	}
}

func newSanityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity",
		Short: "Report whether the kuuzuki executable is resolvable",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger(opts.logLevel)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return printJSON(buildLauncher(cfg, log).SanityCheck())
		},
	}
}
