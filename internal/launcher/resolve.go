package launcher

import (
	"os"
	"os/exec"
	"path/filepath"
)

// resolveServerBin locates the kuuzuki server executable: an explicit
// override first, then the packaged copy shipped next to this executable,
// then common install locations, then PATH.
func resolveServerBin(override string) (string, error) {
	if override != "" {
		if fi, err := os.Stat(override); err == nil && !fi.IsDir() {
			return override, nil
		}
		return "", ErrResource("kuuzuki binary not found at " + override)
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "binaries", "kuuzuki"),
			filepath.Join(dir, "kuuzuki"),
		)
	}
	candidates = append(candidates,
		"/usr/local/bin/kuuzuki",
		"/opt/homebrew/bin/kuuzuki",
	)
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	if lp, err := exec.LookPath("kuuzuki"); err == nil {
		return lp, nil
	}
	return "", ErrResource("kuuzuki binary not found; set server_bin or install kuuzuki on PATH")
}

// SanityReport describes whether the server executable is resolvable.
// It does not mutate state and is safe to call at any time.
type SanityReport struct {
	// Whether a kuuzuki executable was found.
	// example: true
	ServerFound bool `json:"server_found"`
	// Resolved path, when found.
	// example: /usr/local/bin/kuuzuki
	ServerPath string `json:"server_path,omitempty" example:"/usr/local/bin/kuuzuki"`
	// Resolution failure, when not found.
	Error string `json:"error,omitempty"`
}

// SanityCheck reports whether a launch could resolve the server executable.
func (l *Launcher) SanityCheck() SanityReport {
	bin, err := resolveServerBin(l.ServerBin)
	if err != nil {
		return SanityReport{Error: err.Error()}
	}
	return SanityReport{ServerFound: true, ServerPath: bin}
}
