package discovery

import (
	"encoding/json"
	"os"
	"path/filepath"

	"kuuzukid/pkg/types"
)

// InfoReader loads the persisted server descriptor the kuuzuki server writes
// under its state directory.
type InfoReader struct {
	// StateDir overrides the resolved state directory when non-empty.
	StateDir string

	// alive is swapped in tests; defaults to the platform pid check.
	alive func(pid int) bool
}

// NewInfoReader builds a reader rooted at stateDir, or at the
// environment-resolved state directory when stateDir is empty.
func NewInfoReader(stateDir string) *InfoReader {
	return &InfoReader{StateDir: stateDir, alive: processAlive}
}

// resolveStateDir prefers XDG_STATE_HOME and falls back to
// $HOME/.local/state. os.UserHomeDir covers USERPROFILE on Windows.
func resolveStateDir() (string, error) {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrConfig("cannot resolve state directory: no home directory")
	}
	return filepath.Join(home, ".local", "state"), nil
}

// Read returns the persisted descriptor, or nil when no usable record exists.
// A missing file and a record referencing a dead process both yield (nil, nil):
// absence is the common case on first run, and a stale record from a crashed
// run is treated the same way. A file that exists but cannot be parsed is a
// persistence error so corruption is not mistaken for absence.
func (r *InfoReader) Read() (*types.ServerInfo, error) {
	dir := r.StateDir
	if dir == "" {
		var err error
		dir, err = resolveStateDir()
		if err != nil {
			return nil, err
		}
	}
	path := filepath.Join(dir, "kuuzuki", "server.json")

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ErrPersistence(path, err)
	}

	var info types.ServerInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, ErrPersistence(path, err)
	}

	alive := r.alive
	if alive == nil {
		alive = processAlive
	}
	if !alive(int(info.PID)) {
		// Descriptor left behind by a crashed run.
		return nil, nil
	}
	return &info, nil
}
